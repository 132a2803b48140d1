package language

import (
	"fmt"
	"strings"
	"unicode"
)

// Fixed paths inside the runtime container. The staging directory is mounted
// read-only at MountPath; WorkDir is a separate writable directory. Every
// command copies the source out of the mount before touching it, so compilers
// that write artifacts next to the source do not fail on the read-only mount.
const (
	MountPath = "/code"
	WorkDir   = "/workspace"
)

// kind tags how a language's command pipeline is assembled. Commands are
// produced by a single pure function dispatching on this tag over the entry's
// data fields, so there is no per-language behavior hidden in closures.
type kind int

const (
	kindInterpreted kind = iota
	kindGo
	kindJava
	kindC
	kindCPP
)

// Spec describes one supported language. Specs are immutable after registry
// construction.
type Spec struct {
	ID                    string
	Label                 string
	SourceFileName        string
	SupportsDependencies  bool
	DependencyFieldLabel  string
	DependencyPlaceholder string

	kind        kind
	installer   string // package-manager prefix, interpreted languages only
	interpreter string // interpreter binary, interpreted languages only
}

// Info is the public view of a Spec handed to transports and the UI. It never
// exposes the command builder.
type Info struct {
	ID                    string `json:"id"`
	Label                 string `json:"label"`
	SupportsDependencies  bool   `json:"supports_dependencies"`
	DependencyFieldLabel  string `json:"dependency_field_label,omitempty"`
	DependencyPlaceholder string `json:"dependency_placeholder,omitempty"`
}

// BuildCommand produces the full shell command for one run: copy the source
// from the read-only mount into the working directory, install dependencies
// if any were requested and the language supports them, compile if the
// language needs it, then run. An empty dependency list produces no install
// stage at all.
func (s Spec) BuildCommand(dependencies []string) string {
	steps := []string{fmt.Sprintf("cp %s/%s .", MountPath, s.SourceFileName)}

	switch s.kind {
	case kindInterpreted:
		if s.SupportsDependencies && len(dependencies) > 0 {
			steps = append(steps, s.installer+" "+strings.Join(dependencies, " "))
		}
		steps = append(steps, s.interpreter+" "+s.SourceFileName)
	case kindGo:
		steps = append(steps, "go run "+s.SourceFileName)
	case kindJava:
		// Class name must match the fixed source file name.
		steps = append(steps, "javac "+s.SourceFileName, "java Main")
	case kindC:
		steps = append(steps, "gcc -o main "+s.SourceFileName+" -lm", "./main")
	case kindCPP:
		steps = append(steps, "g++ -o main "+s.SourceFileName+" -lm", "./main")
	}

	return strings.Join(steps, " && ")
}

// SplitDependencies tokenizes the free-form dependency field: runs of
// whitespace and commas separate tokens, empty tokens are discarded.
func SplitDependencies(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}
