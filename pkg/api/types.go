package api

import "runtime"

const (
	// DefaultBuildFilename is the build definition looked up in the working
	// directory and during discovery.
	DefaultBuildFilename = "lettrebuild.yaml"

	// DefaultPython is the interpreter command used when the build file does
	// not name one.
	DefaultPython = "python"
)

// BuildFile is the lettrebuild.yaml configuration format.
type BuildFile struct {
	Python  string         `yaml:"python"`
	Context map[string]any `yaml:"context"`
	Targets []Target       `yaml:"targets"`

	// Set by the loader, not from YAML.
	Dir      string `yaml:"-"`
	FilePath string `yaml:"-"`
}

// Target describes one executable to produce from a Python entry script.
type Target struct {
	Name          string             `yaml:"name"`
	Entry         string             `yaml:"entry"`
	OneFile       *bool              `yaml:"onefile,omitempty"` // default true
	Console       *bool              `yaml:"console,omitempty"` // default true
	Dependencies  []string           `yaml:"dependencies"`
	HiddenImports []string           `yaml:"hiddenImports"`
	Cleanup       []string           `yaml:"cleanup"` // extra glob patterns removed after bundling
	VersionInfo   *VersionInfoConfig `yaml:"versionInfo,omitempty"`
	Summary       string             `yaml:"summary,omitempty"` // overrides the built-in summary template
	Context       map[string]any     `yaml:"context"`
}

// VersionInfoConfig renders a version resource file before bundling.
// The rendered file is handed to the packaging tool and removed afterwards.
type VersionInfoConfig struct {
	Output   string `yaml:"output"`
	Template string `yaml:"template"`
}

// IsOneFile reports whether the target bundles into a single file.
func (t Target) IsOneFile() bool { return t.OneFile == nil || *t.OneFile }

// IsConsole reports whether the produced executable keeps a console window.
func (t Target) IsConsole() bool { return t.Console == nil || *t.Console }

// ArtifactName returns the file the packaging tool writes under dist/.
func (t Target) ArtifactName() string {
	if runtime.GOOS == "windows" {
		return t.Name + ".exe"
	}
	return t.Name
}
