// TEST TYPE: Unit Tests
// DEPENDENCIES: net/http/httptest
// PURPOSE: Test blacklist parsing and fetching from remote and local sources

package exclude_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/exclude"
	"github.com/arthur-debert/appdirbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlacklist = `# This file lists libraries that we will assume to be present on the host system

ld-linux.so.2
libc.so.6 # glibc
  libGL.so.1   
#libskipped.so
   # indented comment
libX11.so.6
`

func TestParseBlacklist(t *testing.T) {
	entries, err := exclude.ParseBlacklist(strings.NewReader(sampleBlacklist))
	require.NoError(t, err)

	assert.Equal(t, []string{"ld-linux.so.2", "libc.so.6", "libGL.so.1", "libX11.so.6"}, entries)
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBlacklist))
	}))
	defer srv.Close()

	entries, err := exclude.NewHTTPSource(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestHTTPSourceFailures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := exclude.NewHTTPSource(srv.URL).Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNetwork))
		assert.Equal(t, http.StatusNotFound, errors.GetErrorDetails(err)["status"])
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := exclude.NewHTTPSource(url).Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNetwork))
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(sampleBlacklist))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := exclude.NewHTTPSource(srv.URL).Fetch(ctx)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNetwork))
	})
}

func TestNewHTTPSourceDefaultURL(t *testing.T) {
	assert.Equal(t, exclude.DefaultBlacklistURL, exclude.NewHTTPSource("").URL)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "excludelist", sampleBlacklist)

	entries, err := exclude.FileSource{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ld-linux.so.2", "libc.so.6", "libGL.so.1", "libX11.so.6"}, entries)

	_, err = exclude.FileSource{Path: filepath.Join(dir, "missing")}.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestNewDefaultFilter(t *testing.T) {
	f, err := exclude.NewDefaultFilter(context.Background(), exclude.StaticSource{"libc.so.6"})
	require.NoError(t, err)

	assert.Len(t, f.Rules(), len(exclude.BuiltinRules())+1)
	assert.NotNil(t, f.Match("/lib/libc.so.6"))
}
