package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datawire/pylock/pkg/pylock"
	"github.com/datawire/pylock/pkg/python/pep425"
	"github.com/datawire/pylock/pkg/python/pep440"
)

// envFlags are the flags that describe the target environment; shared by the
// subcommands that run a resolution pass.
type envFlags struct {
	python     string
	markers    map[string]string
	tags       []string
	allowBuild bool
}

func (f *envFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.python, "python", "",
		"Python version to resolve for (e.g. 3.12.1)")
	cmd.Flags().StringToStringVar(&f.markers, "marker", nil,
		"Environment marker value, as NAME=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&f.tags, "tag", nil,
		"Supported wheel tag, most-preferred first (repeatable)")
	cmd.Flags().BoolVar(&f.allowBuild, "allow-build", false,
		"Permit installing non-binary artifacts whose build requirements are not locked")
}

func (f *envFlags) environment() (pylock.Environment, error) {
	if f.python == "" {
		return pylock.Environment{}, fmt.Errorf("the --python flag is required")
	}
	python, err := pep440.ParseVersion(f.python)
	if err != nil {
		return pylock.Environment{}, err
	}
	tags := make(pep425.Installer, 0, len(f.tags))
	for _, tagStr := range f.tags {
		tag, err := pep425.ParseTag(tagStr)
		if err != nil {
			return pylock.Environment{}, err
		}
		tags = append(tags, tag)
	}
	env := pylock.NewEnvironment(*python, f.markers, tags)
	env.AllowAdHocBuild = f.allowBuild
	return env, nil
}
