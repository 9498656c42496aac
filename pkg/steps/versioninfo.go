package steps

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"lettrebuild/pkg/api"
)

type versionInfoStep struct {
	target string
	cfg    *api.VersionInfoConfig
}

// NewVersionInfoStep creates a step that renders a version resource file
// for the packaging tool. The rendered file is transient and listed for
// cleanup.
func NewVersionInfoStep(target string, cfg *api.VersionInfoConfig) Step {
	return &versionInfoStep{target: target, cfg: cfg}
}

func (s *versionInfoStep) Name() string { return "versioninfo" }

func (s *versionInfoStep) Run(ctx StepContext) (*StepResult, error) {
	tmpl, err := template.New(s.target).Funcs(sprig.FuncMap()).Parse(s.cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("parsing version info template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.TemplateData); err != nil {
		return nil, fmt.Errorf("executing version info template: %w", err)
	}

	outPath := filepath.Join(ctx.WorkDir, s.cfg.Output)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating parent directories: %w", err)
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("writing version info file: %w", err)
	}

	slog.Info("version info rendered", "target", s.target, "output", s.cfg.Output)
	return &StepResult{Cleanup: []string{s.cfg.Output}}, nil
}
