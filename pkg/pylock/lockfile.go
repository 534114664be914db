// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pylock implements parsing, validation, and installer-side
// resolution of Python dependency lock files.
//
// A lock document is TOML.  It is produced once by a "locker" and is
// consumed read-only; the parsed Document is never mutated after Parse
// returns, so it is safe to resolve against concurrently.
//
// A document locks in exactly one of two modes:
//
//   - file locking: a [[file-locks]] table enumerates the environments the
//     locker chose to support, and every package file names which of those
//     environments it belongs to;
//
//   - package locking: a [package-lock] table, with package entries filtered
//     at install time by PEP 508 marker expressions and Python version.
package pylock

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/datawire/pylock/pkg/python/pep425"
	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pep508"
)

// FormatVersion is the lock file format revision this package implements.
// The "version" key of a document must be exactly this.
const FormatVersion = "1.0"

// Document is a parsed and validated lock document.
type Document struct {
	Version       string
	HashAlgorithm string

	// Dependencies are the input requirement strings the locker resolved
	// from.  Informational; the resolvers do not read them.
	Dependencies []string

	// Exactly one of FileLocks / PackageLock is set.
	FileLocks   []FileLockEntry
	PackageLock *PackageLock

	Packages []Package
}

// Mode reports which locking mode the document uses.
func (doc *Document) Mode() Mode {
	if doc.PackageLock != nil {
		return PackageLocking
	}
	return FileLocking
}

type Mode int

const (
	FileLocking Mode = iota
	PackageLocking
)

func (m Mode) String() string {
	switch m {
	case FileLocking:
		return "file-locking"
	case PackageLocking:
		return "package-locking"
	default:
		panic(fmt.Errorf("invalid Mode: %d", int(m)))
	}
}

// FileLockEntry describes one environment that a file-locking document
// supports.  An environment matches the entry if every MarkerValues pair
// equals the environment's value for that marker, and every tag in WheelTags
// is supported by the environment.  An empty entry matches anything.
type FileLockEntry struct {
	Name         string
	MarkerValues map[string]string
	WheelTags    []pep425.Tag
}

// PackageLock is the [package-lock] table of a package-locking document.
type PackageLock struct {
	RequiresPython pep440.Specifier
}

// Package is one locked package entry.  Several entries may share a (name,
// version) pair; when they do, every one of them must be flagged
// MultipleEntries and must carry a Marker, and the locker is responsible for
// the markers being mutually exclusive.
type Package struct {
	Name            string
	Version         pep440.Version
	MultipleEntries bool
	Marker          *Marker          // nil means "always applies"
	RequiresPython  pep440.Specifier // nil means "no narrower constraint"
	Direct          bool

	Files []FileRecord
	VCS   *VCSRecord

	// BuildRequires is present only when the entry may be installed from a
	// non-binary artifact; it locks the build-time dependency closure.
	BuildRequires []Package
}

// Marker is a parsed PEP 508 marker expression, retaining the source text
// for reporting.
type Marker struct {
	Raw  string
	Expr pep508.Expr
}

// FileRecord is one locked artifact file of a package.
type FileRecord struct {
	// Name is the artifact filename (a wheel or sdist name).
	Name string
	// Lock lists the file-lock entry names this file satisfies.  Only
	// meaningful under file locking.
	Lock []string
	// Origin is where the file may be fetched from; optional for files the
	// installer is expected to already have.
	Origin string
	// Hash is the hex digest of the file under the document's
	// hash-algorithm; empty means the artifact cannot be verified and so
	// cannot be installed.
	Hash string
}

// VCSRecord pins a version-control checkout of a package.
type VCSRecord struct {
	Type   string
	Origin string
	// Commit is an immutable commit identifier; tags and branches are not
	// allowed here.
	Commit string
	Lock   []string
}

// The on-disk naming convention: "pylock.toml", or "pylock.IDENTIFIER.toml"
// for documents that coexist in one directory.
//
//nolint:gochecknoglobals // Would be 'const'.
var reLockFileName = regexp.MustCompile(`^pylock\.([a-z0-9]+(?:[-_.][a-z0-9]+)*)\.toml$`)

// IsLockFileName reports whether filename is a name that installers
// recognize as a lock document.  The fixed parts are case-sensitive
// lowercase.
func IsLockFileName(filename string) bool {
	return filename == "pylock.toml" || reLockFileName.MatchString(filename)
}

// The raw shapes that the TOML decodes into; Parse validates these and
// builds the exported model from them.

type rawDocument struct {
	Version       string        `toml:"version"`
	HashAlgorithm string        `toml:"hash-algorithm"`
	Dependencies  []string      `toml:"dependencies"`
	FileLocks     []rawFileLock `toml:"file-locks"`
	PackageLock   *rawPkgLock   `toml:"package-lock"`
	Packages      []rawPackage  `toml:"packages"`
}

type rawFileLock struct {
	Name         string            `toml:"name"`
	MarkerValues map[string]string `toml:"marker-values"`
	WheelTags    []string          `toml:"wheel-tags"`
}

type rawPkgLock struct {
	RequiresPython string `toml:"requires-python"`
}

type rawPackage struct {
	Name            string       `toml:"name"`
	Version         string       `toml:"version"`
	MultipleEntries bool         `toml:"multiple-entries"`
	Marker          string       `toml:"marker"`
	RequiresPython  string       `toml:"requires-python"`
	Direct          bool         `toml:"direct"`
	Files           []rawFile    `toml:"files"`
	VCS             *rawVCS      `toml:"vcs"`
	BuildRequires   []rawPackage `toml:"build-requires"`
}

type rawFile struct {
	Name   string   `toml:"name"`
	Lock   []string `toml:"lock"`
	Origin string   `toml:"origin"`
	Hash   string   `toml:"hash"`
}

type rawVCS struct {
	Type   string   `toml:"type"`
	Origin string   `toml:"origin"`
	Commit string   `toml:"commit"`
	Lock   []string `toml:"lock"`
}

// Parse parses and validates a lock document.  It returns a
// *FormatVersionError if the document's format revision is unsupported, and
// a *SchemaError for any structural violation.  Parse has no side effects;
// parsing the same text twice yields equal Documents.
func Parse(text []byte) (*Document, error) {
	doc, err := parse(text)
	if err != nil {
		return nil, fmt.Errorf("pylock.Parse: %w", err)
	}
	return doc, nil
}

func parse(text []byte) (*Document, error) {
	var raw rawDocument
	if err := toml.Unmarshal(text, &raw); err != nil {
		return nil, &SchemaError{Msg: "malformed TOML", Err: err}
	}
	if raw.Version != FormatVersion {
		return nil, &FormatVersionError{Version: raw.Version}
	}
	return validate(&raw)
}
