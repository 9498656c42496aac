package steps

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

type cleanupStep struct {
	patterns []string
}

// NewCleanupStep creates the best-effort artifact removal step. It never
// fails the build: missing paths are fine, removal errors are logged and
// swallowed.
func NewCleanupStep(patterns []string) Step {
	return &cleanupStep{patterns: patterns}
}

func (s *cleanupStep) Name() string { return "cleanup" }

func (s *cleanupStep) Run(ctx StepContext) (*StepResult, error) {
	for _, rel := range s.expand(ctx.WorkDir) {
		p := filepath.Join(ctx.WorkDir, rel)
		slog.Info("cleaning up build artifact", "path", p)
		if err := os.RemoveAll(p); err != nil {
			slog.Warn("failed to remove build artifact", "path", p, "error", err)
		}
	}
	return &StepResult{}, nil
}

// expand resolves the cleanup patterns against workDir. Literal paths pass
// through doublestar unchanged, so "build" matches the build directory and
// "*.spec" matches generated spec files.
func (s *cleanupStep) expand(workDir string) []string {
	var matches []string
	fsys := os.DirFS(workDir)

	for _, pattern := range s.patterns {
		found, err := doublestar.Glob(fsys, filepath.ToSlash(pattern))
		if err != nil {
			slog.Warn("skipping invalid cleanup pattern", "pattern", pattern, "error", err)
			continue
		}
		matches = append(matches, found...)
	}

	slices.Sort(matches)
	return slices.Compact(matches)
}
