package steps

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const pythonDownloadURL = "https://www.python.org/downloads/"

type interpreterStep struct {
	python string
}

// NewInterpreterStep creates the interpreter availability check.
func NewInterpreterStep(python string) Step {
	return &interpreterStep{python: python}
}

func (s *interpreterStep) Name() string { return "interpreter" }

func (s *interpreterStep) Run(ctx StepContext) (*StepResult, error) {
	if _, err := exec.LookPath(s.python); err != nil {
		return nil, remediationError(s.python, err)
	}

	cmd := exec.Command(s.python, "--version")
	cmd.Dir = ctx.WorkDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return nil, remediationError(s.python, fmt.Errorf("%w: %s", err, out.String()))
	}

	slog.Info("interpreter found", "python", s.python, "version", strings.TrimSpace(out.String()))
	return &StepResult{}, nil
}

// remediationError tells the user how to fix a missing or broken
// interpreter, not just that it is missing.
func remediationError(python string, cause error) error {
	return fmt.Errorf("%s is not available: %w\n"+
		"Install Python from %s and tick \"Add python.exe to PATH\" during setup, then run again",
		python, cause, pythonDownloadURL)
}
