// Package language defines the registry of supported languages.
//
// Each language entry carries the display metadata the UI needs, the fixed
// source file name the user's code is staged under, and the data needed to
// build the shell command that copies, installs, compiles, and runs that code
// inside the runtime container. Adding a language means adding one registry
// entry; no other package encodes per-language knowledge.
//
// Usage:
//
//	reg := language.NewRegistry()
//	spec, ok := reg.Get("python")
//	cmd := spec.BuildCommand([]string{"requests"})
package language
