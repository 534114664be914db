// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datawire/pylock/pkg/cliutil"
	"github.com/datawire/pylock/pkg/pylock"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate [flags] LOCKFILE",
		Short: "Parse a lock file and report whether it is well-formed",

		Long: "Parse LOCKFILE and run the full schema validation over it, without " +
			"resolving anything.  The exit status is 0 for a well-formed document " +
			"and non-zero otherwise, so this is usable as a pre-commit or CI check.",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		RunE: func(flags *cobra.Command, args []string) error {
			filename := args[0]
			if base := filepath.Base(filename); !pylock.IsLockFileName(base) {
				fmt.Fprintf(flags.ErrOrStderr(),
					"warning: %q is not a name that installers discover lock files by\n",
					base)
			}
			content, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			doc, err := pylock.Parse(content)
			if err != nil {
				return err
			}
			fmt.Fprintf(flags.OutOrStdout(), "%s: ok: %s, %d packages\n",
				filename, doc.Mode(), len(doc.Packages))
			return nil
		},
	}

	argparser.AddCommand(cmd)
}
