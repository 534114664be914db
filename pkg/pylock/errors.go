// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pylock

import (
	"fmt"

	"github.com/datawire/pylock/pkg/python/pep440"
)

// Every way that parsing or resolution can fail gets its own error type, so
// that callers can tell the conditions apart with errors.As.  All of them are
// fatal: nothing in this package catches one and downgrades it.

// FormatVersionError indicates a lock document whose "version" key names a
// format revision this package does not implement.
type FormatVersionError struct {
	Version string
}

func (e *FormatVersionError) Error() string {
	return fmt.Sprintf("unsupported lock file format version: %q (supported: %q)",
		e.Version, FormatVersion)
}

// SchemaError indicates a document that is well-formed TOML but violates the
// lock-file schema: missing required keys, both or neither locking mode,
// duplicate names, malformed versions or markers, and the like.
type SchemaError struct {
	Msg string
	Err error // may be nil
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid lock file: %s: %v", e.Msg, e.Err)
	}
	return "invalid lock file: " + e.Msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func schemaErrorf(format string, args ...interface{}) *SchemaError {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

// IncompatiblePythonError indicates that the environment's Python version is
// outside the document's requires-python range.
type IncompatiblePythonError struct {
	Python         pep440.Version
	RequiresPython pep440.Specifier
}

func (e *IncompatiblePythonError) Error() string {
	return fmt.Sprintf("Python %s does not satisfy the lock file's requires-python = %q",
		e.Python.String(), e.RequiresPython.String())
}

// NoCompatibleEnvironmentError indicates that no file-lock entry matches the
// environment; the lock file simply was not generated for this platform.
type NoCompatibleEnvironmentError struct{}

func (e *NoCompatibleEnvironmentError) Error() string {
	return "no file-lock entry matches this environment"
}

// AmbiguousEnvironmentError indicates that more than one file-lock entry
// matches the environment; the locker violated its side of the contract, and
// guessing between the entries would make installs non-deterministic.
type AmbiguousEnvironmentError struct {
	Names []string
}

func (e *AmbiguousEnvironmentError) Error() string {
	return fmt.Sprintf("multiple file-lock entries match this environment: %q", e.Names)
}

// AmbiguousFileSelectionError indicates that a lock name selects more than
// one artifact within a package.
type AmbiguousFileSelectionError struct {
	Package    string
	LockName   string
	Candidates []string
}

func (e *AmbiguousFileSelectionError) Error() string {
	return fmt.Sprintf("package %q: lock name %q selects multiple artifacts: %q",
		e.Package, e.LockName, e.Candidates)
}

// NoInstallableArtifactError indicates a package entry that applies to the
// environment but offers neither a compatible file nor a VCS reference.  A
// zero Package means the document as a whole: every entry was filtered out
// and nothing at all would be installed.
type NoInstallableArtifactError struct {
	Package string
	Version pep440.Version
}

func (e *NoInstallableArtifactError) Error() string {
	if e.Package == "" {
		return "no package entry applies to this environment"
	}
	return fmt.Sprintf("package %q %s: no installable artifact for this environment",
		e.Package, e.Version.String())
}

// MissingBuildRequirementsError indicates that a non-binary artifact was
// selected, the entry carries no build-requires, and the caller did not opt
// in to resolving build dependencies ad hoc.
type MissingBuildRequirementsError struct {
	Package  string
	Version  pep440.Version
	Artifact string
}

func (e *MissingBuildRequirementsError) Error() string {
	return fmt.Sprintf("package %q %s: artifact %q must be built but the lock file records no "+
		"build requirements (and ad hoc resolution is not enabled)",
		e.Package, e.Version.String(), e.Artifact)
}

// HashVerificationError indicates that an artifact's content does not match
// the digest recorded in the lock document.  Never recoverable: a mismatch
// means the artifact is not the one that was locked.
type HashVerificationError struct {
	Artifact  string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *HashVerificationError) Error() string {
	return fmt.Sprintf("artifact %q: %s digest mismatch: expected=%s actual=%s",
		e.Artifact, e.Algorithm, e.Expected, e.Actual)
}
