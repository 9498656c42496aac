package api

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadBuildFile reads a lettrebuild.yaml file, sets Dir/FilePath, and
// validates it.
func LoadBuildFile(filename string) (*BuildFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading build file: %w", err)
	}

	var bf BuildFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing build file: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	bf.FilePath = absPath
	bf.Dir = filepath.Dir(absPath)

	if err := bf.Validate(); err != nil {
		return nil, fmt.Errorf("validating build file %s: %w", filename, err)
	}

	return &bf, nil
}
