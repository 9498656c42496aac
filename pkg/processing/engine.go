package processing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"lettrebuild/pkg/api"
	"lettrebuild/pkg/steps"
)

// Recorder receives build lifecycle events, typically backed by the build
// history database. Recorder errors never fail a build; the engine logs
// them and moves on.
type Recorder interface {
	BuildStarted(target api.Target) (int64, error)
	StepFinished(buildID int64, step string, duration time.Duration, stepErr error) error
	BuildFinished(buildID int64, artifact string, buildErr error) error
}

// Runner executes build files.
type Runner struct {
	Out      io.Writer // summary output, defaults to os.Stdout
	Recorder Recorder  // optional build history sink
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

// RunBuildFile executes every target in the build file. A failing target
// does not stop later targets; the returned error summarizes failures.
func (r *Runner) RunBuildFile(bf *api.BuildFile, globalContext map[string]any) error {
	var failed []string

	for _, target := range bf.Targets {
		slog.Info("building target", "file", bf.FilePath, "target", target.Name)
		if err := r.RunTarget(bf, target, globalContext); err != nil {
			slog.Error("target failed", "target", target.Name, "error", err)
			failed = append(failed, target.Name)
		} else {
			slog.Info("target succeeded", "target", target.Name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d target(s) failed: %v", len(failed), failed)
	}

	return nil
}

// RunTarget executes one target: interpreter check, dependency install,
// optional version info, bundle. The sequence is fail-fast; cleanup and the
// summary run only after a successful bundle, and cleanup is best-effort.
func (r *Runner) RunTarget(bf *api.BuildFile, target api.Target, globalContext map[string]any) error {
	python := bf.Python
	if python == "" {
		python = api.DefaultPython
	}

	sctx := steps.StepContext{
		WorkDir:      bf.Dir,
		Python:       python,
		Target:       target,
		TemplateData: MergeContext(MergeContext(globalContext, bf.Context), target.Context),
	}

	buildID := r.recordStart(target)

	var cleanup []string
	for _, step := range steps.BuildSteps(python, target) {
		slog.Info("running step", "target", target.Name, "step", step.Name())

		start := time.Now()
		result, err := step.Run(sctx)
		r.recordStep(buildID, step.Name(), time.Since(start), err)

		if err != nil {
			wrapped := fmt.Errorf("step %q failed: %w", step.Name(), err)
			r.recordFinish(buildID, "", wrapped)
			return wrapped
		}

		if result != nil {
			cleanup = append(cleanup, result.Cleanup...)
			if result.ArtifactPath != "" {
				sctx.ArtifactPath = result.ArtifactPath
			}
		}
	}

	// Transient artifacts go away regardless of what exists; a missing
	// build directory or spec file is not an error.
	start := time.Now()
	_, _ = steps.NewCleanupStep(cleanup).Run(sctx)
	r.recordStep(buildID, "cleanup", time.Since(start), nil)

	start = time.Now()
	_, err := steps.NewReportStep(target, r.out()).Run(sctx)
	r.recordStep(buildID, "report", time.Since(start), err)
	if err != nil {
		wrapped := fmt.Errorf("step \"report\" failed: %w", err)
		r.recordFinish(buildID, sctx.ArtifactPath, wrapped)
		return wrapped
	}

	r.recordFinish(buildID, sctx.ArtifactPath, nil)
	return nil
}

// RunAll discovers build files under root and executes each of them.
func (r *Runner) RunAll(root string, maxDepth int, globalContext map[string]any, pythonOverride string) error {
	buildFiles, err := DiscoverBuildFiles(root, maxDepth)
	if err != nil {
		return fmt.Errorf("discovering build files: %w", err)
	}

	if len(buildFiles) == 0 {
		slog.Warn("no lettrebuild.yaml files found", "dir", root)
		return nil
	}

	slog.Info("discovered build files", "count", len(buildFiles))

	var failed []string
	for _, bf := range buildFiles {
		if pythonOverride != "" {
			bf.Python = pythonOverride
		}
		slog.Info("executing build file", "path", bf.FilePath)
		if bErr := r.RunBuildFile(bf, globalContext); bErr != nil {
			slog.Error("build file failed", "path", bf.FilePath, "error", bErr)
			failed = append(failed, bf.FilePath)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d build file(s) failed: %v", len(failed), failed)
	}

	return nil
}

func (r *Runner) recordStart(target api.Target) int64 {
	if r.Recorder == nil {
		return 0
	}
	id, err := r.Recorder.BuildStarted(target)
	if err != nil {
		slog.Warn("failed to record build start", "target", target.Name, "error", err)
	}
	return id
}

func (r *Runner) recordStep(buildID int64, step string, duration time.Duration, stepErr error) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.StepFinished(buildID, step, duration, stepErr); err != nil {
		slog.Warn("failed to record step", "step", step, "error", err)
	}
}

func (r *Runner) recordFinish(buildID int64, artifact string, buildErr error) {
	if r.Recorder == nil {
		return
	}
	if err := r.Recorder.BuildFinished(buildID, artifact, buildErr); err != nil {
		slog.Warn("failed to record build finish", "error", err)
	}
}
