package processing

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"lettrebuild/pkg/api"
)

// fakePython installs a shell script named "python" on PATH.
func fakePython(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter scripts need a POSIX shell")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "python"), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// pyinstallerScript fakes a full interpreter: pip succeeds silently and
// PyInstaller creates the artifact plus the transient build outputs.
const pyinstallerScript = `
name=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--name" ]; then name="$a"; fi
  prev="$a"
done
case "$2" in
PyInstaller)
  mkdir -p dist build
  : > "$name.spec"
  : > "dist/$name"
  ;;
esac
exit 0
`

type capturingRecorder struct {
	buildID  int64
	steps    []string
	stepErrs map[string]error
	artifact string
	buildErr error
	finished bool
}

func newCapturingRecorder() *capturingRecorder {
	return &capturingRecorder{buildID: 42, stepErrs: make(map[string]error)}
}

func (r *capturingRecorder) BuildStarted(target api.Target) (int64, error) {
	return r.buildID, nil
}

func (r *capturingRecorder) StepFinished(buildID int64, step string, d time.Duration, stepErr error) error {
	r.steps = append(r.steps, step)
	r.stepErrs[step] = stepErr
	return nil
}

func (r *capturingRecorder) BuildFinished(buildID int64, artifact string, buildErr error) error {
	r.finished = true
	r.artifact = artifact
	r.buildErr = buildErr
	return nil
}

func buildFileFor(t *testing.T, targets ...api.Target) *api.BuildFile {
	t.Helper()
	return &api.BuildFile{Dir: t.TempDir(), Targets: targets}
}

func TestRunTarget_InterpreterMissingStopsImmediately(t *testing.T) {
	rec := newCapturingRecorder()
	runner := &Runner{Out: &bytes.Buffer{}, Recorder: rec}

	bf := buildFileFor(t, api.Target{Name: "App", Entry: "app.py", Dependencies: []string{"reportlab"}})
	bf.Python = "definitely-not-a-real-interpreter-xyz"

	err := runner.RunTarget(bf, bf.Targets[0], nil)
	if err == nil {
		t.Fatal("expected error for missing interpreter")
	}
	if !strings.Contains(err.Error(), `step "interpreter" failed`) {
		t.Errorf("unexpected error: %v", err)
	}

	if !slices.Equal(rec.steps, []string{"interpreter"}) {
		t.Errorf("no step may run after a failed interpreter check, recorded: %v", rec.steps)
	}
	if !rec.finished || rec.buildErr == nil {
		t.Error("build should be recorded as failed")
	}
}

func TestRunTarget_PipFailureSkipsBundle(t *testing.T) {
	fakePython(t, `
case "$2" in
pip) echo "resolution impossible" >&2; exit 1 ;;
esac
exit 0
`)

	rec := newCapturingRecorder()
	runner := &Runner{Out: &bytes.Buffer{}, Recorder: rec}
	bf := buildFileFor(t, api.Target{Name: "App", Entry: "app.py", Dependencies: []string{"reportlab"}})

	err := runner.RunTarget(bf, bf.Targets[0], nil)
	if err == nil {
		t.Fatal("expected error for failing pip install")
	}
	if !strings.Contains(err.Error(), `step "dependencies" failed`) {
		t.Errorf("unexpected error: %v", err)
	}

	if slices.Contains(rec.steps, "bundle") {
		t.Errorf("bundle must not run after a failed install, recorded: %v", rec.steps)
	}
}

func TestRunTarget_BundleFailureSkipsCleanupAndReport(t *testing.T) {
	fakePython(t, `
case "$2" in
PyInstaller) exit 1 ;;
esac
exit 0
`)

	var out bytes.Buffer
	rec := newCapturingRecorder()
	runner := &Runner{Out: &out, Recorder: rec}
	bf := buildFileFor(t, api.Target{Name: "App", Entry: "app.py"})

	// Pre-existing transient artifacts must survive a failed bundle:
	// cleanup is never reached.
	if err := os.MkdirAll(filepath.Join(bf.Dir, "build"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bf.Dir, "App.spec"), []byte("# spec"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := runner.RunTarget(bf, bf.Targets[0], nil)
	if err == nil {
		t.Fatal("expected error for failing bundle")
	}

	if slices.Contains(rec.steps, "cleanup") || slices.Contains(rec.steps, "report") {
		t.Errorf("cleanup and report must not run after a failed bundle, recorded: %v", rec.steps)
	}
	if _, statErr := os.Stat(filepath.Join(bf.Dir, "build")); statErr != nil {
		t.Error("build directory should still exist after a failed bundle")
	}
	if out.Len() != 0 {
		t.Errorf("no summary may be printed after a failed bundle, got: %q", out.String())
	}
}

func TestRunTarget_Success(t *testing.T) {
	fakePython(t, pyinstallerScript)

	var out bytes.Buffer
	rec := newCapturingRecorder()
	runner := &Runner{Out: &out, Recorder: rec}
	bf := buildFileFor(t, api.Target{
		Name:          "App",
		Entry:         "app.py",
		Dependencies:  []string{"reportlab", "pyinstaller"},
		HiddenImports: []string{"reportlab.platypus"},
	})

	if err := runner.RunTarget(bf, bf.Targets[0], nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	artifact := bf.Targets[0].ArtifactName()
	if _, err := os.Stat(filepath.Join(bf.Dir, "dist", artifact)); err != nil {
		t.Errorf("artifact should exist: %v", err)
	}
	for _, gone := range []string{"build", "App.spec"} {
		if _, err := os.Stat(filepath.Join(bf.Dir, gone)); !os.IsNotExist(err) {
			t.Errorf("%s should have been cleaned up", gone)
		}
	}

	if !strings.Contains(out.String(), "dist/"+artifact) {
		t.Errorf("summary should name the artifact, got: %q", out.String())
	}

	want := []string{"interpreter", "dependencies", "bundle", "cleanup", "report"}
	if !slices.Equal(rec.steps, want) {
		t.Errorf("expected steps %v, recorded %v", want, rec.steps)
	}
	if rec.buildErr != nil || rec.artifact != filepath.Join("dist", artifact) {
		t.Errorf("build should be recorded as success with artifact, got %q / %v", rec.artifact, rec.buildErr)
	}
}

func TestRunTarget_RerunOverwritesArtifact(t *testing.T) {
	fakePython(t, pyinstallerScript)

	runner := &Runner{Out: &bytes.Buffer{}}
	bf := buildFileFor(t, api.Target{Name: "App", Entry: "app.py"})

	for i := 0; i < 2; i++ {
		if err := runner.RunTarget(bf, bf.Targets[0], nil); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i+1, err)
		}
	}

	if _, err := os.Stat(filepath.Join(bf.Dir, "dist", bf.Targets[0].ArtifactName())); err != nil {
		t.Errorf("artifact should exist after re-run: %v", err)
	}
}

func TestRunBuildFile_ContinuesAfterTargetFailure(t *testing.T) {
	fakePython(t, `
name=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--name" ]; then name="$a"; fi
  prev="$a"
done
case "$2" in
PyInstaller)
  if [ "$name" = "Bad" ]; then exit 1; fi
  mkdir -p dist build
  : > "$name.spec"
  : > "dist/$name"
  ;;
esac
exit 0
`)

	runner := &Runner{Out: &bytes.Buffer{}}
	bf := buildFileFor(t,
		api.Target{Name: "Bad", Entry: "bad.py"},
		api.Target{Name: "Good", Entry: "good.py"},
	)

	err := runner.RunBuildFile(bf, nil)
	if err == nil {
		t.Fatal("expected error when a target fails")
	}
	if !strings.Contains(err.Error(), "1 target(s) failed") || !strings.Contains(err.Error(), "Bad") {
		t.Errorf("unexpected error: %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(bf.Dir, "dist", bf.Targets[1].ArtifactName())); statErr != nil {
		t.Error("later targets should still build after an earlier failure")
	}
}

func TestRunTarget_ContextMergeReachesSummary(t *testing.T) {
	fakePython(t, pyinstallerScript)

	var out bytes.Buffer
	runner := &Runner{Out: &out}
	bf := buildFileFor(t, api.Target{
		Name:    "App",
		Entry:   "app.py",
		Summary: "{{ .global }}-{{ .local }}",
		Context: map[string]any{"local": "L"},
	})
	bf.Context = map[string]any{"local": "overridden"}

	globalCtx := map[string]any{"global": "G"}
	if err := runner.RunTarget(bf, bf.Targets[0], globalCtx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "G-L" {
		t.Errorf("expected merged context 'G-L', got %q", out.String())
	}
}
