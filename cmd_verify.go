// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datawire/pylock/pkg/cliutil"
	"github.com/datawire/pylock/pkg/pylock"
)

func init() {
	var env envFlags
	var artifactDir string
	cmd := &cobra.Command{
		Use:   "verify [flags] LOCKFILE",
		Short: "Check downloaded artifacts against a lock file's hashes",

		Long: "Resolve LOCKFILE the same way `pylock resolve` does, then check each " +
			"file artifact in the install set (build dependencies included) against " +
			"its recorded hash, reading the files from the --artifact-dir directory " +
			"by their artifact names.  VCS artifacts have no hash and are skipped.",

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
			readArtifact := func(_ context.Context, install pylock.Install) ([]byte, error) {
				return os.ReadFile(filepath.Join(artifactDir, install.File.Name))
			}
			if err := doc.Verify(ctx, installs, readArtifact); err != nil {
				return err
			}
			fmt.Fprintf(flags.OutOrStdout(), "%s: ok: %d packages verified\n",
				args[0], len(installs))
			return nil
		},
	}
	env.register(cmd)
	cmd.Flags().StringVar(&artifactDir, "artifact-dir", ".",
		"Directory holding the downloaded artifacts, named by their artifact names")

	argparser.AddCommand(cmd)
}
