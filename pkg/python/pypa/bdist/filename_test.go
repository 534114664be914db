// Copyright (C) 2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package bdist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pylock/pkg/python/pep425"
	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pypa/bdist"
)

func TestParseFilename(t *testing.T) {
	t.Parallel()
	mustVer := func(str string) pep440.Version {
		ver, err := pep440.ParseVersion(str)
		require.NoError(t, err)
		return *ver
	}
	testcases := map[string]struct {
		Input  string
		Output *bdist.FileNameData
	}{
		"pure": {"six-1.16.0-py2.py3-none-any.whl", &bdist.FileNameData{
			Distribution:     "six",
			Version:          mustVer("1.16.0"),
			CompatibilityTag: pep425.Tag{Python: "py2.py3", ABI: "none", Platform: "any"},
		}},
		"native": {"cryptography-41.0.3-cp37-abi3-manylinux_2_17_x86_64.whl", &bdist.FileNameData{
			Distribution:     "cryptography",
			Version:          mustVer("41.0.3"),
			CompatibilityTag: pep425.Tag{Python: "cp37", ABI: "abi3", Platform: "manylinux_2_17_x86_64"},
		}},
		"build-tag": {"example-1.0-2build1-py3-none-any.whl", &bdist.FileNameData{
			Distribution:     "example",
			Version:          mustVer("1.0"),
			BuildTag:         &bdist.BuildTag{Int: 2, Str: "build1"},
			CompatibilityTag: pep425.Tag{Python: "py3", ABI: "none", Platform: "any"},
		}},
		"sdist":       {"example-1.0.tar.gz", nil},
		"not-a-wheel": {"example.whl.txt", nil},
		"too-few":     {"example-py3-none-any.whl", nil},
		"bad-version": {"example-no.t.a.version-py3-none-any.whl", nil},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			data, err := bdist.ParseFilename(tc.Input)
			if tc.Output == nil {
				assert.Error(t, err)
				assert.False(t, bdist.IsWheelFilename(tc.Input) && err == nil)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.Output, data)
				assert.True(t, bdist.IsWheelFilename(tc.Input))
			}
		})
	}
}

func TestBuildTagCmp(t *testing.T) {
	t.Parallel()
	tag := func(n int, s string) *bdist.BuildTag { return &bdist.BuildTag{Int: n, Str: s} }

	assert.Equal(t, 0, (*bdist.BuildTag)(nil).Cmp(nil))
	assert.Negative(t, (*bdist.BuildTag)(nil).Cmp(tag(0, "")))
	assert.Positive(t, tag(0, "").Cmp(nil))
	assert.Negative(t, tag(1, "").Cmp(tag(2, "")))
	assert.Positive(t, tag(10, "").Cmp(tag(2, "")))
	assert.Negative(t, tag(2, "a").Cmp(tag(2, "b")))
	assert.Equal(t, 0, tag(2, "a").Cmp(tag(2, "a")))
	assert.Equal(t, "2a", tag(2, "a").String())
}
