package pep503_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/pylock/pkg/python/pep440"
	"github.com/datawire/pylock/pkg/python/pep503"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()
	testcases := map[string]string{
		"friendly-bard":   "friendly-bard",
		"Friendly-Bard":   "friendly-bard",
		"FRIENDLY-BARD":   "friendly-bard",
		"friendly.bard":   "friendly-bard",
		"friendly_bard":   "friendly-bard",
		"friendly--bard":  "friendly-bard",
		"FrIeNdLy-._.-bArD": "friendly-bard",
	}
	for input, expected := range testcases {
		assert.Equal(t, expected, pep503.NormalizeName(input))
	}
}

func TestFragmentDigest(t *testing.T) {
	t.Parallel()
	content := []byte("hello\n")
	testcases := map[string]string{
		"md5":    "b1946ac92492d2347c6235b4d2611184",
		"sha1":   "f572d396fae9206628714fb2ce00f72e94f2258f",
		"sha256": "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03",
		"sha512": "e7c22b994c59d9cf2b48e549b1e24666636045930d3da7c1acb299d1c3b7f931f94aae41edda2c2b207a36e10f8bcb8d45223e54878f5b316e7ce3b6bc019629",
	}
	for algorithm, expected := range testcases {
		assert.Equal(t, expected, pep503.FragmentDigest(algorithm, content), algorithm)
	}
	assert.Equal(t, "", pep503.FragmentDigest("crc32", content))
	assert.Equal(t, "", pep503.FragmentDigest("", content))
}

func TestListPackageFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/simple/example-pkg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
  <body>
    <a href="../../files/example_pkg-1.0-py3-none-any.whl#sha256=abc">example_pkg-1.0-py3-none-any.whl</a>
    <a href="../../files/example_pkg-2.0-py3-none-any.whl" data-requires-python="&gt;=3.13">example_pkg-2.0-py3-none-any.whl</a>
  </body>
</html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	python, err := pep440.ParseVersion("3.12.1")
	require.NoError(t, err)
	client := pep503.Client{
		BaseURL: srv.URL + "/simple/",
		Python:  python,
	}

	links, err := client.ListPackageFiles(ctx, "Example.Pkg")
	require.NoError(t, err)
	// The 2.0 file requires Python >= 3.13 and is filtered out.
	require.Len(t, links, 1)
	assert.Equal(t, "example_pkg-1.0-py3-none-any.whl", links[0].Text)
	assert.Equal(t, srv.URL+"/files/example_pkg-1.0-py3-none-any.whl#sha256=abc", links[0].HRef)

	_, err = client.ListPackageFiles(ctx, "bogus/../../escape")
	assert.Error(t, err)
}

func TestGetChecksum(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/files/data.bin", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var client pep503.Client

	good := srv.URL + "/files/data.bin#sha256=5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"
	content, err := client.Get(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\n"), content)

	bad := srv.URL + "/files/data.bin#sha256=0000000000000000000000000000000000000000000000000000000000000000"
	_, err = client.Get(ctx, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	_, err = client.Get(ctx, srv.URL+"/files/missing.bin")
	var httpErr *pep503.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}
