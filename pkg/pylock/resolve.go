// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pylock

import (
	"fmt"
	"sort"

	"github.com/datawire/pylock/pkg/python/pep503"
	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pypa/bdist"
)

// An Install is one resolved artifact: exactly one of File / VCS is set.
type Install struct {
	Package string         `json:"package"`
	Version pep440.Version `json:"-"`
	// VersionString mirrors Version for serialized reports.
	VersionString string `json:"version"`
	Direct        bool   `json:"direct,omitempty"`

	File *FileRecord `json:"file,omitempty"`
	VCS  *VCSRecord  `json:"vcs,omitempty"`

	// NeedsBuild is set when the artifact is a non-binary form that a build
	// backend must process before it can be installed.
	NeedsBuild bool `json:"needs-build,omitempty"`
	// BuildDeps is the resolved build-requires closure; empty together with
	// NeedsBuild means the caller opted in to ad hoc build resolution.
	BuildDeps []Install `json:"build-deps,omitempty"`
}

func newInstall(pkg *Package) Install {
	return Install{
		Package:       pkg.Name,
		Version:       pkg.Version,
		VersionString: pkg.Version.String(),
		Direct:        pkg.Direct,
	}
}

// Resolve runs the resolver for the document's locking mode.  It is a pure
// function of (doc, env): the same inputs produce the same install set, or
// the same error, every time.  No I/O happens here; hashes are checked
// separately, against the finalized install set (see Verify).
func (doc *Document) Resolve(env Environment) ([]Install, error) {
	var installs []Install
	var err error
	switch doc.Mode() {
	case FileLocking:
		installs, err = doc.resolveFileLocked(env)
	case PackageLocking:
		installs, err = doc.resolvePackageLocked(env)
	default:
		panic(fmt.Errorf("invalid Mode: %d", int(doc.Mode())))
	}
	if err != nil {
		return nil, fmt.Errorf("pylock.Resolve: %w", err)
	}
	sort.Slice(installs, func(i, j int) bool {
		a := pep503.NormalizeName(installs[i].Package)
		b := pep503.NormalizeName(installs[j].Package)
		if a != b {
			return a < b
		}
		return installs[i].Version.Cmp(installs[j].Version) < 0
	})
	return installs, nil
}

// File locking: match the environment against the file-lock table, then let
// the single matching entry's name select artifacts.

func (doc *Document) resolveFileLocked(env Environment) ([]Install, error) {
	var matches []string
	for _, entry := range doc.FileLocks {
		if entryMatches(&entry, env) {
			matches = append(matches, entry.Name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &NoCompatibleEnvironmentError{}
	case 1:
		// ok
	default:
		// The locker guarantees that no two entries match one real
		// environment; picking one silently would hide the broken document.
		return nil, &AmbiguousEnvironmentError{Names: matches}
	}
	lockName := matches[0]

	var installs []Install
	for i := range doc.Packages {
		pkg := &doc.Packages[i]
		install, found, err := selectByLockName(pkg, lockName, env)
		if err != nil {
			return nil, err
		}
		if found {
			installs = append(installs, *install)
		}
	}
	return installs, nil
}

func entryMatches(entry *FileLockEntry, env Environment) bool {
	for name, want := range entry.MarkerValues {
		if env.Markers[name] != want {
			return false
		}
	}
	return env.Tags.SupportsAll(entry.WheelTags)
}

// selectByLockName picks the artifact of pkg that carries lockName, if any.
// Distinct packages sharing a lock name is the normal case (a lock name is an
// environment, and every package serving it carries it); ambiguity is only
// ever within one package.  Validation already guarantees at most one
// artifact per lock name per package, across all of its entries; the check
// here defends against Documents built by hand rather than parsed.
func selectByLockName(pkg *Package, lockName string, env Environment) (*Install, bool, error) {
	var fileMatches []*FileRecord
	for i := range pkg.Files {
		for _, name := range pkg.Files[i].Lock {
			if name == lockName {
				fileMatches = append(fileMatches, &pkg.Files[i])
				break
			}
		}
	}
	vcsMatch := false
	if pkg.VCS != nil {
		for _, name := range pkg.VCS.Lock {
			if name == lockName {
				vcsMatch = true
				break
			}
		}
	}

	total := len(fileMatches)
	if vcsMatch {
		total++
	}
	switch total {
	case 0:
		return nil, false, nil
	case 1:
		// ok
	default:
		candidates := make([]string, 0, total)
		for _, file := range fileMatches {
			candidates = append(candidates, file.Name)
		}
		if vcsMatch {
			candidates = append(candidates, pkg.VCS.Origin+"@"+pkg.VCS.Commit)
		}
		return nil, false, &AmbiguousFileSelectionError{
			Package:    pkg.Name,
			LockName:   lockName,
			Candidates: candidates,
		}
	}

	install := newInstall(pkg)
	if vcsMatch {
		install.VCS = pkg.VCS
		install.NeedsBuild = true
	} else {
		install.File = fileMatches[0]
		install.NeedsBuild = !bdist.IsWheelFilename(fileMatches[0].Name)
	}
	if err := resolveBuildDeps(&install, pkg, env); err != nil {
		return nil, false, err
	}
	return &install, true, nil
}

// Package locking: no finite environment table; each entry is filtered by
// its marker and Python constraint independently, and the best compatible
// file wins.

func (doc *Document) resolvePackageLocked(env Environment) ([]Install, error) {
	if !doc.PackageLock.RequiresPython.Match(env.Python) {
		return nil, &IncompatiblePythonError{
			Python:         env.Python,
			RequiresPython: doc.PackageLock.RequiresPython,
		}
	}

	var installs []Install
	for i := range doc.Packages {
		pkg := &doc.Packages[i]

		applies, err := packageApplies(pkg, env)
		if err != nil {
			return nil, err
		}
		if !applies {
			continue
		}

		install, err := selectBestArtifact(pkg, env)
		if err != nil {
			return nil, err
		}
		installs = append(installs, *install)
	}
	if len(installs) == 0 {
		// Every entry was filtered out by its marker or Python constraint.
		// An empty install set is never a valid answer; it would let a
		// broken environment/document pairing pass silently.
		return nil, &NoInstallableArtifactError{}
	}
	return installs, nil
}

func packageApplies(pkg *Package, env Environment) (bool, error) {
	if pkg.RequiresPython != nil && !pkg.RequiresPython.Match(env.Python) {
		return false, nil
	}
	if pkg.Marker != nil {
		val, err := pkg.Marker.Expr.Eval(env.Markers)
		if err != nil {
			return false, fmt.Errorf("package %q: marker %q: %w", pkg.Name, pkg.Marker.Raw, err)
		}
		if !val {
			return false, nil
		}
	}
	return true, nil
}

// selectBestArtifact picks the entry's best file for the environment, falling
// back to the VCS reference.  Ranking among compatible wheels is by the
// environment's own tag preference order, then by build tag (higher wins),
// then by file name; source files rank after every wheel.  The tie-break is
// deliberately total so that resolution stays deterministic.
func selectBestArtifact(pkg *Package, env Environment) (*Install, error) {
	var best *candidate
	for i := range pkg.Files {
		file := &pkg.Files[i]
		cand := candidate{file: file, preference: len(env.Tags) + 2}
		if data, err := bdist.ParseFilename(file.Name); err == nil {
			if !env.Tags.Supports(data.CompatibilityTag) {
				continue
			}
			cand.wheel = true
			cand.preference = env.Tags.Preference(data.CompatibilityTag)
			cand.buildTag = data.BuildTag
		}
		if best == nil || betterCandidate(&cand, best) {
			cand := cand
			best = &cand
		}
	}

	install := newInstall(pkg)
	switch {
	case best != nil:
		install.File = best.file
		install.NeedsBuild = !best.wheel
	case pkg.VCS != nil:
		install.VCS = pkg.VCS
		install.NeedsBuild = true
	default:
		return nil, &NoInstallableArtifactError{Package: pkg.Name, Version: pkg.Version}
	}
	if err := resolveBuildDeps(&install, pkg, env); err != nil {
		return nil, err
	}
	return &install, nil
}

type candidate struct {
	file       *FileRecord
	preference int // lower is better
	buildTag   *bdist.BuildTag
	wheel      bool
}

func betterCandidate(a, b *candidate) bool {
	if a.wheel != b.wheel {
		return a.wheel
	}
	if a.preference != b.preference {
		return a.preference < b.preference
	}
	if d := a.buildTag.Cmp(b.buildTag); d != 0 {
		return d > 0
	}
	return a.file.Name < b.file.Name
}

// resolveBuildDeps fills in install.BuildDeps when the selected artifact
// needs building.  The nested entries are plain package entries with no
// file-lock table of their own, so they resolve the package-locking way
// regardless of the outer document's mode; their scope is build-time only.
func resolveBuildDeps(install *Install, pkg *Package, env Environment) error {
	if !install.NeedsBuild {
		return nil
	}
	if len(pkg.BuildRequires) == 0 {
		if env.AllowAdHocBuild {
			return nil
		}
		artifact := ""
		switch {
		case install.File != nil:
			artifact = install.File.Name
		case install.VCS != nil:
			artifact = install.VCS.Origin + "@" + install.VCS.Commit
		}
		return &MissingBuildRequirementsError{
			Package:  pkg.Name,
			Version:  pkg.Version,
			Artifact: artifact,
		}
	}
	for i := range pkg.BuildRequires {
		dep := &pkg.BuildRequires[i]
		applies, err := packageApplies(dep, env)
		if err != nil {
			return err
		}
		if !applies {
			continue
		}
		depInstall, err := selectBestArtifact(dep, env)
		if err != nil {
			return err
		}
		install.BuildDeps = append(install.BuildDeps, *depInstall)
	}
	return nil
}
