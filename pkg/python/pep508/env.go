package pep508

import (
	"fmt"

	"github.com/datawire/pylock/pkg/python/pep440"
)

// KnownVariables is the set of marker variable names PEP 508 defines.  An Env
// may carry other keys; they just won't match anything a well-formed
// expression references.
//
//nolint:gochecknoglobals // Would be 'const'.
var KnownVariables = map[string]struct{}{
	"os_name":                        {},
	"sys_platform":                   {},
	"platform_machine":               {},
	"platform_python_implementation": {},
	"platform_release":               {},
	"platform_system":                {},
	"platform_version":               {},
	"python_version":                 {},
	"python_full_version":            {},
	"implementation_name":            {},
	"implementation_version":         {},
	"extra":                          {},
}

// NewEnv builds an Env for the given Python version, deriving
// "python_version" (major.minor) and "python_full_version" from it, then
// overlaying the explicitly given values.  Explicit values win.
func NewEnv(python pep440.Version, explicit map[string]string) Env {
	env := Env{
		"python_version":      fmt.Sprintf("%d.%d", python.Major(), python.Minor()),
		"python_full_version": python.String(),
	}
	for key, val := range explicit {
		env[key] = val
	}
	return env
}
