// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/datawire/pylock/pkg/cliutil"
	"github.com/datawire/pylock/pkg/pylock"
)

func init() {
	var env envFlags
	var format string
	cmd := &cobra.Command{
		Use:   "resolve [flags] LOCKFILE",
		Short: "Resolve a lock file to the artifacts an environment would install",

		Long: "Run the resolver for LOCKFILE against the environment described by the " +
			"--python, --marker, and --tag flags, and print the resulting install " +
			"set as a report." +
			"\n\n" +
			"Resolution is deterministic; for the same lock file and the same flags, " +
			"the report is byte-for-byte identical from run to run.  Hashes are not " +
			"checked here, use `pylock verify` for that.",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		RunE: func(flags *cobra.Command, args []string) error {
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
			var out []byte
			switch format {
			case "json":
				out, err = json.MarshalIndent(installs, "", "  ")
				out = append(out, '\n')
			case "yaml":
				out, err = yaml.Marshal(installs)
			default:
				return fmt.Errorf("invalid --format: %q (must be one of \"json\" or \"yaml\")", format)
			}
			if err != nil {
				return err
			}
			_, err = flags.OutOrStdout().Write(out)
			return err
		},
	}
	env.register(cmd)
	cmd.Flags().StringVar(&format, "format", "yaml",
		`Report format; one of "json" or "yaml"`)

	argparser.AddCommand(cmd)
}
