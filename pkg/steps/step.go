package steps

import "lettrebuild/pkg/api"

// StepContext provides the runtime context for a step.
type StepContext struct {
	WorkDir      string
	Python       string
	Target       api.Target
	TemplateData map[string]any
	ArtifactPath string // set once the bundle step has produced it
}

// StepResult holds the output of a step.
type StepResult struct {
	ArtifactPath string   // produced executable, relative to WorkDir
	Cleanup      []string // glob patterns relative to WorkDir to remove after bundling
}

// Step is the interface all build phases implement.
type Step interface {
	Name() string
	Run(ctx StepContext) (*StepResult, error)
}
