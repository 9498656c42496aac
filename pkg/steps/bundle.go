package steps

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"lettrebuild/pkg/api"
)

type bundleStep struct {
	python      string
	target      api.Target
	versionFile string
}

// NewBundleStep creates the packaging step. versionFile, when non-empty,
// is a previously rendered version resource passed to the packaging tool.
func NewBundleStep(python string, target api.Target, versionFile string) Step {
	return &bundleStep{python: python, target: target, versionFile: versionFile}
}

func (s *bundleStep) Name() string { return "bundle" }

// args builds the PyInstaller invocation. The hidden imports are the only
// configuration with semantic weight: omitting one produces an executable
// that dies on import at runtime.
func (s *bundleStep) args() []string {
	args := []string{"-m", "PyInstaller"}

	if s.target.IsOneFile() {
		args = append(args, "--onefile")
	} else {
		args = append(args, "--onedir")
	}
	if s.target.IsConsole() {
		args = append(args, "--console")
	} else {
		args = append(args, "--noconsole")
	}

	args = append(args, "--name", s.target.Name)

	for _, mod := range s.target.HiddenImports {
		args = append(args, "--hidden-import", mod)
	}

	if s.versionFile != "" {
		args = append(args, "--version-file", s.versionFile)
	}

	return append(args, s.target.Entry)
}

func (s *bundleStep) Run(ctx StepContext) (*StepResult, error) {
	slog.Info("running pyinstaller", "target", s.target.Name, "entry", s.target.Entry)

	cmd := exec.Command(s.python, s.args()...)
	cmd.Dir = ctx.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pyinstaller failed for %q: %w\nstderr: %s", s.target.Name, err, stderr.String())
	}

	artifact := filepath.Join("dist", s.target.ArtifactName())
	if _, err := os.Stat(filepath.Join(ctx.WorkDir, artifact)); err != nil {
		return nil, fmt.Errorf("pyinstaller reported success but %s is missing: %w", artifact, err)
	}

	cleanup := []string{"build", s.target.Name + ".spec"}
	cleanup = append(cleanup, s.target.Cleanup...)

	return &StepResult{ArtifactPath: artifact, Cleanup: cleanup}, nil
}
