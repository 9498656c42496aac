package steps

import "lettrebuild/pkg/api"

// BuildSteps returns the fatal build sequence for a target: interpreter
// check, dependency install, optional version info, bundle. Cleanup and
// report are not included; the engine runs them itself after a successful
// bundle, since cleanup must never fail the build.
func BuildSteps(python string, target api.Target) []Step {
	steps := []Step{
		NewInterpreterStep(python),
		NewDependenciesStep(python, target.Dependencies),
	}

	versionFile := ""
	if target.VersionInfo != nil {
		steps = append(steps, NewVersionInfoStep(target.Name, target.VersionInfo))
		versionFile = target.VersionInfo.Output
	}

	return append(steps, NewBundleStep(python, target, versionFile))
}
