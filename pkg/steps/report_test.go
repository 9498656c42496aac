package steps

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"lettrebuild/pkg/api"
)

func TestReportStep_DefaultSummary(t *testing.T) {
	target := api.Target{Name: "LettreDeMission", Entry: "lettre_mission.py"}

	var buf bytes.Buffer
	step := NewReportStep(target, &buf)

	_, err := step.Run(StepContext{
		WorkDir:      t.TempDir(),
		Target:       target,
		ArtifactPath: filepath.Join("dist", "LettreDeMission.exe"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "dist/LettreDeMission.exe") {
		t.Errorf("summary should name the artifact with forward slashes, got:\n%s", out)
	}
	if !strings.Contains(out, "self-contained") {
		t.Errorf("summary should note the executable is self-contained, got:\n%s", out)
	}
	if !strings.Contains(out, "lettre_mission.py") {
		t.Errorf("summary should name the entry script, got:\n%s", out)
	}
}

func TestReportStep_CustomSummary(t *testing.T) {
	target := api.Target{
		Name:    "App",
		Entry:   "app.py",
		Summary: "done: {{ .Artifact }} for {{ .company | title }}",
	}

	var buf bytes.Buffer
	step := NewReportStep(target, &buf)

	_, err := step.Run(StepContext{
		WorkDir:      t.TempDir(),
		Target:       target,
		ArtifactPath: filepath.Join("dist", "App"),
		TemplateData: map[string]any{"company": "example"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := buf.String(); got != "done: dist/App for Example" {
		t.Errorf("unexpected summary: %q", got)
	}
}

func TestReportStep_BrokenSummary(t *testing.T) {
	target := api.Target{Name: "App", Entry: "app.py", Summary: "{{ .unclosed"}

	var buf bytes.Buffer
	_, err := NewReportStep(target, &buf).Run(StepContext{WorkDir: t.TempDir(), Target: target})
	if err == nil {
		t.Fatal("expected error for broken summary template")
	}
	if !strings.Contains(err.Error(), "parsing summary template") {
		t.Errorf("unexpected error: %v", err)
	}
}
