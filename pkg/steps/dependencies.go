package steps

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
)

type dependenciesStep struct {
	python   string
	packages []string
}

// NewDependenciesStep creates the pip install step.
func NewDependenciesStep(python string, packages []string) Step {
	return &dependenciesStep{python: python, packages: packages}
}

func (s *dependenciesStep) Name() string { return "dependencies" }

func (s *dependenciesStep) Run(ctx StepContext) (*StepResult, error) {
	if len(s.packages) == 0 {
		slog.Debug("no dependencies declared, skipping pip install")
		return &StepResult{}, nil
	}

	args := []string{"-m", "pip", "install", "--upgrade", "--quiet"}
	args = append(args, s.packages...)

	slog.Info("installing dependencies", "python", s.python, "packages", s.packages)

	cmd := exec.Command(s.python, args...)
	cmd.Dir = ctx.WorkDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pip install failed: %w\nstderr: %s", err, stderr.String())
	}

	return &StepResult{}, nil
}
