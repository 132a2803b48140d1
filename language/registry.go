package language

// Registry holds the supported language specs. It is populated once at
// construction and read-only afterwards; ids are the sole key other packages
// use to refer to a language.
type Registry struct {
	order []string
	specs map[string]Spec
}

// NewRegistry builds the registry with the seven supported languages.
func NewRegistry() *Registry {
	entries := []Spec{
		{
			ID:                    "python",
			Label:                 "Python",
			SourceFileName:        "main.py",
			SupportsDependencies:  true,
			DependencyFieldLabel:  "pip packages",
			DependencyPlaceholder: "e.g. requests numpy",
			kind:                  kindInterpreted,
			installer:             "pip install",
			interpreter:           "python",
		},
		{
			ID:                    "javascript",
			Label:                 "JavaScript",
			SourceFileName:        "index.js",
			SupportsDependencies:  true,
			DependencyFieldLabel:  "npm packages",
			DependencyPlaceholder: "e.g. lodash axios",
			kind:                  kindInterpreted,
			installer:             "npm install",
			interpreter:           "node",
		},
		{
			ID:                    "ruby",
			Label:                 "Ruby",
			SourceFileName:        "main.rb",
			SupportsDependencies:  true,
			DependencyFieldLabel:  "gems",
			DependencyPlaceholder: "e.g. json colorize",
			kind:                  kindInterpreted,
			installer:             "gem install",
			interpreter:           "ruby",
		},
		{
			ID:             "go",
			Label:          "Go",
			SourceFileName: "main.go",
			kind:           kindGo,
		},
		{
			ID:             "java",
			Label:          "Java",
			SourceFileName: "Main.java",
			kind:           kindJava,
		},
		{
			ID:             "c",
			Label:          "C",
			SourceFileName: "main.c",
			kind:           kindC,
		},
		{
			ID:             "cpp",
			Label:          "C++",
			SourceFileName: "main.cpp",
			kind:           kindCPP,
		},
	}

	reg := &Registry{
		order: make([]string, 0, len(entries)),
		specs: make(map[string]Spec, len(entries)),
	}
	for _, spec := range entries {
		reg.order = append(reg.order, spec.ID)
		reg.specs[spec.ID] = spec
	}
	return reg
}

// Get returns the spec for the given language id.
func (r *Registry) Get(id string) (Spec, bool) {
	spec, ok := r.specs[id]
	return spec, ok
}

// List returns the public metadata for every supported language in
// registration order.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		spec := r.specs[id]
		infos = append(infos, Info{
			ID:                    spec.ID,
			Label:                 spec.Label,
			SupportsDependencies:  spec.SupportsDependencies,
			DependencyFieldLabel:  spec.DependencyFieldLabel,
			DependencyPlaceholder: spec.DependencyPlaceholder,
		})
	}
	return infos
}
