// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package pylock

import (
	"context"
	"sort"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dlog"

	"github.com/datawire/pylock/pkg/python/pep503"
)

// A ContentFunc hands back the bytes of a resolved artifact, however the
// caller comes by them (a local directory, a download, a cache).
type ContentFunc func(ctx context.Context, install Install) ([]byte, error)

// Verify checks every file artifact in the install set against the digest
// the document records for it, using the document's hash algorithm.  The
// install set must already be finalized: selection is deterministic and
// I/O-free, verification is where the I/O happens.  Independent artifacts
// are verified concurrently.
//
// A VCS install has no file digest; its commit pin was already checked at
// parse time, and the checkout is the build collaborator's to make.
//
// Any single mismatch fails the whole pass; there is no partial install to
// salvage.
func (doc *Document) Verify(ctx context.Context, installs []Install, content ContentFunc) error {
	var targets []Install
	for _, install := range installs {
		if install.File != nil {
			targets = append(targets, install)
		}
		for _, dep := range install.BuildDeps {
			if dep.File != nil {
				targets = append(targets, dep)
			}
		}
	}

	errCh := make(chan error)
	for _, install := range targets {
		install := install
		go func() {
			errCh <- doc.verifyInstall(ctx, install, content)
		}()
	}
	var errs derror.MultiError
	for range targets {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		// Completion order is scheduling-dependent; report in a stable order.
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return errs
	}
}

func (doc *Document) verifyInstall(ctx context.Context, install Install, content ContentFunc) error {
	data, err := content(ctx, install)
	if err != nil {
		return err
	}
	actual := pep503.FragmentDigest(doc.HashAlgorithm, data)
	if install.File.Hash == "" || actual != install.File.Hash {
		return &HashVerificationError{
			Artifact:  install.File.Name,
			Algorithm: doc.HashAlgorithm,
			Expected:  install.File.Hash,
			Actual:    actual,
		}
	}
	dlog.Debugf(ctx, "verified %s (%s=%s)", install.File.Name, doc.HashAlgorithm, actual)
	return nil
}
