package api

// DefaultBuildFile returns the built-in build definition used when no
// lettrebuild.yaml exists: the lettre de mission generator, bundled as a
// single console executable. The hidden imports cover the reportlab
// submodules the packaging tool's static analysis misses.
func DefaultBuildFile(dir string) *BuildFile {
	return &BuildFile{
		Python: DefaultPython,
		Dir:    dir,
		Targets: []Target{
			{
				Name:         "LettreDeMission",
				Entry:        "lettre_mission.py",
				Dependencies: []string{"reportlab", "pyinstaller"},
				HiddenImports: []string{
					"reportlab.lib.pagesizes",
					"reportlab.lib.styles",
					"reportlab.lib.units",
					"reportlab.lib.colors",
					"reportlab.lib.enums",
					"reportlab.platypus",
				},
			},
		},
	}
}
