package api

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate checks the build file configuration for errors.
func (bf *BuildFile) Validate() error {
	if len(bf.Targets) == 0 {
		return fmt.Errorf("build file has no targets")
	}

	names := make(map[string]int)

	for i, target := range bf.Targets {
		if target.Name == "" {
			return fmt.Errorf("target %d: name is required", i)
		}
		if prev, exists := names[target.Name]; exists {
			return fmt.Errorf("target %d: duplicate target name %q (first defined at target %d)", i, target.Name, prev)
		}
		names[target.Name] = i

		if err := target.validate(); err != nil {
			return fmt.Errorf("target %q: %w", target.Name, err)
		}
	}

	return nil
}

func (t Target) validate() error {
	if t.Entry == "" {
		return fmt.Errorf("entry is required")
	}

	for _, dep := range t.Dependencies {
		if dep == "" {
			return fmt.Errorf("dependencies must not contain empty names")
		}
	}

	for _, mod := range t.HiddenImports {
		if mod == "" {
			return fmt.Errorf("hiddenImports must not contain empty module names")
		}
	}

	for _, pattern := range t.Cleanup {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("cleanup pattern %q is not a valid glob", pattern)
		}
	}

	if t.VersionInfo != nil {
		if t.VersionInfo.Output == "" {
			return fmt.Errorf("versionInfo.output is required")
		}
		if t.VersionInfo.Template == "" {
			return fmt.Errorf("versionInfo.template is required")
		}
	}

	return nil
}
