// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pylock

import (
	"fmt"

	"github.com/datawire/pylock/pkg/python/pep425"
	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pep503"
	"github.com/datawire/pylock/pkg/python/pep508"
)

// validate checks the raw document against the schema invariants and builds
// the model.  Everything that can be rejected before resolution is rejected
// here; the resolvers may assume a validated Document.
//
// One invariant is deliberately NOT checked: that entries sharing a name
// carry mutually exclusive markers.  Deciding whether two arbitrary marker
// expressions can both be true requires enumerating environments; that is
// the locker's contract to keep, not this installer's to re-prove.  The
// syntactic half (shared (name, version) pairs must all be flagged
// multiple-entries, with markers) IS checked.
func validate(raw *rawDocument) (*Document, error) {
	if raw.HashAlgorithm == "" {
		return nil, schemaErrorf("missing required key %q", "hash-algorithm")
	}
	if pep503.FragmentDigest(raw.HashAlgorithm, nil) == "" {
		return nil, schemaErrorf("unknown hash-algorithm: %q", raw.HashAlgorithm)
	}
	if (len(raw.FileLocks) > 0) == (raw.PackageLock != nil) {
		return nil, schemaErrorf("exactly one of [[file-locks]] and [package-lock] must be present")
	}

	doc := &Document{
		Version:       raw.Version,
		HashAlgorithm: raw.HashAlgorithm,
		Dependencies:  raw.Dependencies,
	}

	seenLockNames := make(map[string]struct{}, len(raw.FileLocks))
	for _, rawEntry := range raw.FileLocks {
		entry, err := validateFileLock(&rawEntry)
		if err != nil {
			return nil, err
		}
		if _, dup := seenLockNames[entry.Name]; dup {
			return nil, schemaErrorf("duplicate file-lock name: %q", entry.Name)
		}
		seenLockNames[entry.Name] = struct{}{}
		doc.FileLocks = append(doc.FileLocks, *entry)
	}

	if raw.PackageLock != nil {
		if raw.PackageLock.RequiresPython == "" {
			return nil, schemaErrorf("package-lock: missing required key %q", "requires-python")
		}
		spec, err := pep440.ParseSpecifier(raw.PackageLock.RequiresPython)
		if err != nil {
			return nil, &SchemaError{Msg: "package-lock: requires-python", Err: err}
		}
		doc.PackageLock = &PackageLock{RequiresPython: spec}
	}

	pkgs, err := validatePackages(raw.Packages, doc.Mode())
	if err != nil {
		return nil, err
	}
	doc.Packages = pkgs

	return doc, nil
}

func validateFileLock(raw *rawFileLock) (*FileLockEntry, error) {
	if raw.Name == "" {
		return nil, schemaErrorf("file-locks: missing required key %q", "name")
	}
	entry := &FileLockEntry{
		Name:         raw.Name,
		MarkerValues: raw.MarkerValues,
	}
	seen := make(map[pep425.Tag]struct{}, len(raw.WheelTags))
	for _, tagStr := range raw.WheelTags {
		tag, err := pep425.ParseTag(tagStr)
		if err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("file-locks[%q]: wheel-tags", raw.Name), Err: err}
		}
		if tag.IsCompressed() {
			return nil, schemaErrorf("file-locks[%q]: compressed wheel tags are not allowed: %q",
				raw.Name, tagStr)
		}
		if _, dup := seen[tag]; dup {
			return nil, schemaErrorf("file-locks[%q]: duplicate wheel tag: %q", raw.Name, tagStr)
		}
		seen[tag] = struct{}{}
		entry.WheelTags = append(entry.WheelTags, tag)
	}
	return entry, nil
}

func validatePackages(raws []rawPackage, mode Mode) ([]Package, error) {
	pkgs := make([]Package, 0, len(raws))

	// Counted across all entries for invariant checks below.
	nameVersionCount := make(map[string]int, len(raws))
	// lock name -> artifacts it selects, per package name (invariant: at
	// most one artifact per lock name per package, across versions).
	lockNameArtifacts := make(map[string]map[string][]string)

	for _, raw := range raws {
		pkg, err := validatePackage(&raw, mode)
		if err != nil {
			return nil, err
		}

		key := pep503.NormalizeName(pkg.Name) + " " + pkg.Version.String()
		nameVersionCount[key]++

		normName := pep503.NormalizeName(pkg.Name)
		if lockNameArtifacts[normName] == nil {
			lockNameArtifacts[normName] = make(map[string][]string)
		}
		for _, file := range pkg.Files {
			for _, lockName := range file.Lock {
				lockNameArtifacts[normName][lockName] =
					append(lockNameArtifacts[normName][lockName], file.Name)
			}
		}
		if pkg.VCS != nil {
			for _, lockName := range pkg.VCS.Lock {
				lockNameArtifacts[normName][lockName] =
					append(lockNameArtifacts[normName][lockName], pkg.VCS.Origin+"@"+pkg.VCS.Commit)
			}
		}

		pkgs = append(pkgs, *pkg)
	}

	for _, pkg := range pkgs {
		key := pep503.NormalizeName(pkg.Name) + " " + pkg.Version.String()
		if nameVersionCount[key] > 1 {
			if !pkg.MultipleEntries {
				return nil, schemaErrorf("package %q %s appears in multiple entries, "+
					"but is not flagged multiple-entries", pkg.Name, pkg.Version.String())
			}
			if pkg.Marker == nil {
				return nil, schemaErrorf("package %q %s appears in multiple entries, "+
					"so each entry must carry a marker", pkg.Name, pkg.Version.String())
			}
		}
	}

	for pkgName, byLockName := range lockNameArtifacts {
		for lockName, artifacts := range byLockName {
			if len(artifacts) > 1 {
				return nil, schemaErrorf("package %q: lock name %q is claimed by multiple "+
					"artifacts: %q", pkgName, lockName, artifacts)
			}
		}
	}

	return pkgs, nil
}

func validatePackage(raw *rawPackage, mode Mode) (*Package, error) {
	if raw.Name == "" {
		return nil, schemaErrorf("packages: missing required key %q", "name")
	}
	if raw.Version == "" {
		return nil, schemaErrorf("package %q: missing required key %q", raw.Name, "version")
	}
	ver, err := pep440.ParseVersion(raw.Version)
	if err != nil {
		return nil, &SchemaError{Msg: fmt.Sprintf("package %q: version", raw.Name), Err: err}
	}

	pkg := &Package{
		Name:            raw.Name,
		Version:         *ver,
		MultipleEntries: raw.MultipleEntries,
		Direct:          raw.Direct,
	}

	if raw.Marker != "" {
		expr, err := pep508.ParseExpr(raw.Marker)
		if err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("package %q: marker", raw.Name), Err: err}
		}
		pkg.Marker = &Marker{Raw: raw.Marker, Expr: expr}
	}

	if raw.RequiresPython != "" {
		spec, err := pep440.ParseSpecifier(raw.RequiresPython)
		if err != nil {
			return nil, &SchemaError{Msg: fmt.Sprintf("package %q: requires-python", raw.Name), Err: err}
		}
		pkg.RequiresPython = spec
	}

	if len(raw.Files) == 0 && raw.VCS == nil {
		return nil, schemaErrorf("package %q: has neither files nor a vcs reference", raw.Name)
	}

	seenFiles := make(map[string]struct{}, len(raw.Files))
	for _, rawF := range raw.Files {
		if rawF.Name == "" {
			return nil, schemaErrorf("package %q: file with no name", raw.Name)
		}
		if _, dup := seenFiles[rawF.Name]; dup {
			return nil, schemaErrorf("package %q: duplicate file: %q", raw.Name, rawF.Name)
		}
		seenFiles[rawF.Name] = struct{}{}
		if mode == FileLocking && len(rawF.Lock) == 0 {
			return nil, schemaErrorf("package %q: file %q: missing required key %q under file locking",
				raw.Name, rawF.Name, "lock")
		}
		pkg.Files = append(pkg.Files, FileRecord(rawF))
	}

	if raw.VCS != nil {
		if raw.VCS.Type == "" || raw.VCS.Origin == "" {
			return nil, schemaErrorf("package %q: vcs reference must have both a type and an origin",
				raw.Name)
		}
		if raw.VCS.Commit == "" {
			return nil, schemaErrorf("package %q: vcs reference must pin an immutable commit",
				raw.Name)
		}
		vcs := VCSRecord(*raw.VCS)
		pkg.VCS = &vcs
	}

	for _, rawDep := range raw.BuildRequires {
		dep, err := validatePackage(&rawDep, mode)
		if err != nil {
			return nil, &SchemaError{
				Msg: fmt.Sprintf("package %q: build-requires", raw.Name),
				Err: err,
			}
		}
		pkg.BuildRequires = append(pkg.BuildRequires, *dep)
	}

	return pkg, nil
}
