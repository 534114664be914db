// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pylock

import (
	"github.com/datawire/pylock/pkg/python/pep425"
	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pep508"
)

// Environment describes the interpreter that artifacts are being selected
// for.  It is supplied by the installer's host environment and is immutable
// for the duration of a resolution pass.
type Environment struct {
	// Python is the interpreter version, checked against requires-python
	// constraints.
	Python pep440.Version

	// Markers are the concrete marker-variable values, evaluated against
	// package marker expressions and matched against file-lock
	// marker-values.
	Markers pep508.Env

	// Tags are the wheel tags the interpreter supports, ordered from most-
	// to least-preferred; the order decides which of several compatible
	// files wins under package locking.
	Tags pep425.Installer

	// AllowAdHocBuild permits installing a non-binary artifact whose entry
	// records no build-requires, leaving build-dependency resolution to the
	// build backend.  Installs become non-reproducible; off by default.
	AllowAdHocBuild bool
}

// NewEnvironment builds an Environment for the given interpreter version,
// deriving the version-valued marker variables from it and overlaying the
// explicitly supplied markers.
func NewEnvironment(python pep440.Version, markers map[string]string, tags pep425.Installer) Environment {
	return Environment{
		Python:  python,
		Markers: pep508.NewEnv(python, markers),
		Tags:    tags,
	}
}
