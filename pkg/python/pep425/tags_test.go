package pep425_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pylock/pkg/python/pep425"
)

func TestParseTag(t *testing.T) {
	t.Parallel()
	testcases := map[string]struct {
		Input  string
		Output pep425.Tag
		Err    bool
	}{
		"simple":     {"cp312-cp312-manylinux_2_17_x86_64", pep425.Tag{"cp312", "cp312", "manylinux_2_17_x86_64"}, false},
		"pure":       {"py3-none-any", pep425.Tag{"py3", "none", "any"}, false},
		"compressed": {"py2.py3-none-any", pep425.Tag{"py2.py3", "none", "any"}, false},
		"two-parts":  {"py3-none", pep425.Tag{}, true},
		"four-parts": {"py3-none-any-any", pep425.Tag{}, true},
		"empty-part": {"py3--any", pep425.Tag{}, true},
		"empty":      {"", pep425.Tag{}, true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			tag, err := pep425.ParseTag(tc.Input)
			if tc.Err {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.Output, tag)
				assert.Equal(t, tc.Input, tag.String())
			}
		})
	}
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	compressed := pep425.Tag{"py2.py3", "none", "manylinux1_x86_64.manylinux_2_5_x86_64"}
	assert.True(t, compressed.IsCompressed())
	assert.Equal(t, []pep425.Tag{
		{"py2", "none", "manylinux1_x86_64"},
		{"py2", "none", "manylinux_2_5_x86_64"},
		{"py3", "none", "manylinux1_x86_64"},
		{"py3", "none", "manylinux_2_5_x86_64"},
	}, compressed.Decompress())

	simple := pep425.Tag{"py3", "none", "any"}
	assert.False(t, simple.IsCompressed())
	assert.Equal(t, []pep425.Tag{simple}, simple.Decompress())
}

func TestIntersect(t *testing.T) {
	t.Parallel()
	a := []pep425.Tag{
		{"cp312", "cp312", "manylinux_2_17_x86_64"},
		{"py3", "none", "any"},
	}
	assert.True(t, pep425.Intersect(a, []pep425.Tag{{"py2.py3", "none", "any"}}))
	assert.False(t, pep425.Intersect(a, []pep425.Tag{{"py2", "none", "any"}}))
	assert.False(t, pep425.Intersect(a, nil))
}

func TestInstaller(t *testing.T) {
	t.Parallel()
	inst := pep425.Installer{
		{"cp312", "cp312", "manylinux_2_17_x86_64"},
		{"cp312", "abi3", "manylinux_2_17_x86_64"},
		{"py3", "none", "any"},
	}

	assert.True(t, inst.Supports(pep425.Tag{"py3", "none", "any"}))
	assert.True(t, inst.Supports(pep425.Tag{"py2.py3", "none", "any"}))
	assert.False(t, inst.Supports(pep425.Tag{"cp311", "cp311", "manylinux_2_17_x86_64"}))

	assert.True(t, inst.SupportsAll([]pep425.Tag{
		{"cp312", "abi3", "manylinux_2_17_x86_64"},
		{"py3", "none", "any"},
	}))
	assert.False(t, inst.SupportsAll([]pep425.Tag{
		{"py3", "none", "any"},
		{"cp311", "cp311", "manylinux_2_17_x86_64"},
	}))
	assert.True(t, inst.SupportsAll(nil))

	// lower is more preferred
	native := inst.Preference(pep425.Tag{"cp312", "cp312", "manylinux_2_17_x86_64"})
	pure := inst.Preference(pep425.Tag{"py3", "none", "any"})
	unsupported := inst.Preference(pep425.Tag{"cp311", "cp311", "manylinux_2_17_x86_64"})
	assert.Less(t, native, pure)
	assert.Less(t, pure, unsupported)
	assert.Equal(t, len(inst)+1, unsupported)
}
