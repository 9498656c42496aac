package steps

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"lettrebuild/pkg/api"
)

// defaultSummaryTemplate is printed after a successful build. Targets can
// override it with their own summary template.
const defaultSummaryTemplate = `
Build complete.

  Executable : {{ .Artifact }}
  Target     : {{ .Target }}
  Entry      : {{ .Entry }}

The executable is self-contained: it runs without a Python installation
on the target machine. Copy it anywhere you like.
`

type reportStep struct {
	target api.Target
	out    io.Writer
}

// NewReportStep creates the final summary step, writing to out.
func NewReportStep(target api.Target, out io.Writer) Step {
	return &reportStep{target: target, out: out}
}

func (s *reportStep) Name() string { return "report" }

func (s *reportStep) Run(ctx StepContext) (*StepResult, error) {
	text := s.target.Summary
	if text == "" {
		text = defaultSummaryTemplate
	}

	tmpl, err := template.New(s.target.Name).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing summary template: %w", err)
	}

	data := make(map[string]any, len(ctx.TemplateData)+3)
	for k, v := range ctx.TemplateData {
		data[k] = v
	}
	data["Artifact"] = filepath.ToSlash(ctx.ArtifactPath)
	data["Target"] = s.target.Name
	data["Entry"] = s.target.Entry

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing summary template: %w", err)
	}

	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	slog.Debug("summary printed", "target", s.target.Name, "artifact", ctx.ArtifactPath)
	return &StepResult{}, nil
}
