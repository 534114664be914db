// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/pylock/pkg/cliutil"
	"github.com/datawire/pylock/pkg/pylock"
	"github.com/datawire/pylock/pkg/python/pep503"
)

func init() {
	var env envFlags
	var dest string
	cmd := &cobra.Command{
		Use:   "fetch [flags] LOCKFILE",
		Short: "Download the artifacts a lock file resolves to",

		Long: "Resolve LOCKFILE the same way `pylock resolve` does, download each file " +
			"artifact in the install set (build dependencies included) from its " +
			"recorded origin, and write it to the --dest directory under its " +
			"artifact name.  Every download is checked against the lock file's " +
			"hash before anything is written; a single mismatch fails the whole " +
			"fetch and writes nothing." +
			"\n\n" +
			"VCS artifacts cannot be fetched this way and cause an error; check " +
			"them out with the relevant VCS tool instead.",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		RunE: func(flags *cobra.Command, args []string) error {
			ctx := flags.Context()
			environment, err := env.environment()
			if err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := pylock.Parse(content)
			if err != nil {
				return err
			}
			installs, err := doc.Resolve(environment)
			if err != nil {
				return err
			}
			for _, install := range installs {
				if install.VCS != nil {
					return fmt.Errorf("package %q is locked to a VCS reference, not a fetchable file",
						install.Package)
				}
			}

			// Download everything in to memory first, letting Verify check the
			// hashes; only a fully verified install set touches the disk.
			client := pep503.Client{}
			var mu sync.Mutex
			downloads := make(map[string][]byte)
			download := func(ctx context.Context, install pylock.Install) ([]byte, error) {
				if install.File.Origin == "" {
					return nil, fmt.Errorf("file %q records no origin to fetch it from",
						install.File.Name)
				}
				dlog.Infof(ctx, "fetching %s", install.File.Name)
				data, err := client.Get(ctx, install.File.Origin)
				if err != nil {
					return nil, err
				}
				mu.Lock()
				downloads[install.File.Name] = data
				mu.Unlock()
				return data, nil
			}
			if err := doc.Verify(ctx, installs, download); err != nil {
				return err
			}

			if err := os.MkdirAll(dest, 0o777); err != nil {
				return err
			}
			for name, data := range downloads {
				if err := os.WriteFile(filepath.Join(dest, name), data, 0o666); err != nil {
					return err
				}
			}
			fmt.Fprintf(flags.OutOrStdout(), "%s: fetched %d files to %s\n",
				args[0], len(downloads), dest)
			return nil
		},
	}
	env.register(cmd)
	cmd.Flags().StringVar(&dest, "dest", ".",
		"Directory to write the downloaded artifacts to")

	argparser.AddCommand(cmd)
}
