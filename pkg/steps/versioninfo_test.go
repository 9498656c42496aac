package steps

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lettrebuild/pkg/api"
)

func TestVersionInfoStep_Run(t *testing.T) {
	workDir := t.TempDir()

	step := NewVersionInfoStep("LettreDeMission", &api.VersionInfoConfig{
		Output:   filepath.Join("meta", "version.txt"),
		Template: "ProductName={{ .product | upper }}\nVersion={{ .version }}\n",
	})

	result, err := step.Run(StepContext{
		WorkDir:      workDir,
		TemplateData: map[string]any{"product": "lettre de mission", "version": "1.2.0"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(workDir, "meta", "version.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "ProductName=LETTRE DE MISSION") {
		t.Errorf("sprig functions should be available, got:\n%s", content)
	}
	if !strings.Contains(string(content), "Version=1.2.0") {
		t.Errorf("template data should be rendered, got:\n%s", content)
	}

	if !slices.Contains(result.Cleanup, filepath.Join("meta", "version.txt")) {
		t.Errorf("rendered file should be listed for cleanup, got %v", result.Cleanup)
	}
}

func TestVersionInfoStep_BadTemplate(t *testing.T) {
	step := NewVersionInfoStep("App", &api.VersionInfoConfig{
		Output:   "version.txt",
		Template: "{{ .unclosed",
	})

	_, err := step.Run(StepContext{WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for broken template")
	}
	if !strings.Contains(err.Error(), "parsing version info template") {
		t.Errorf("unexpected error: %v", err)
	}
}
