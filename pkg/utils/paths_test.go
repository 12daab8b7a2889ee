// Test Type: Unit Test
// Description: Tests for the utils package - component-aware path prefix helpers

package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithin(t *testing.T) {
	tests := []struct {
		name string
		path string
		root string
		want bool
	}{
		{"equal", "/x/AppDir", "/x/AppDir", true},
		{"descendant", "/x/AppDir/usr/lib/a.so", "/x/AppDir", true},
		{"sibling with shared prefix", "/x/AppDir2/a", "/x/AppDir", false},
		{"parent", "/x", "/x/AppDir", false},
		{"trailing separator", "/x/AppDir/a", "/x/AppDir/", true},
		{"root", "/anything", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.IsWithin(tt.path, tt.root))
		})
	}
}

func TestTrimRoot(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		root   string
		want   string
		within bool
	}{
		{"nested", "/w/assets/data.bin", "/w", "/assets/data.bin", true},
		{"equal", "/w", "/w", "/", true},
		{"outside", "/usr/lib/a.so", "/w", "/usr/lib/a.so", false},
		{"shared prefix", "/w2/a", "/w", "/w2/a", false},
		{"filesystem root", "/usr/lib/a.so", "/", "/usr/lib/a.so", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := utils.TrimRoot(tt.path, tt.root)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.within, ok)
		})
	}
}

func TestCanonical(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(dir, "real")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	got, err := utils.Canonical(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	_, err = utils.Canonical(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	assert.Equal(t, filepath.Join(dir, "missing"), utils.CanonicalOrAbs(filepath.Join(dir, "missing")))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("APPDIR_TEST_ROOT", "/opt/build")
	assert.Equal(t, "/opt/build/AppDir", utils.ExpandPath("$APPDIR_TEST_ROOT/AppDir"))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "src"), utils.ExpandPath("~/src"))
}
