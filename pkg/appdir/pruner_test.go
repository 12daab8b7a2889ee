// TEST TYPE: Unit Tests
// DEPENDENCIES: pkg/filesystem (in-memory afero)
// PURPOSE: Test reconciliation of the AppDir against the keep set

package appdir_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/appdir"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune(t *testing.T) {
	fsys := filesystem.NewMemory()
	root := "/out/AppDir"
	for _, p := range []string{
		"/app/data.bin",
		"/app/old-asset.txt",
		"/usr/lib/libfoo.so.1",
		"/usr/lib/libstale.so",
		"/usr/share/myapp/theme.css",
	} {
		writeFile(t, fsys, root+p, p, 0644)
	}
	require.NoError(t, fsys.MkdirAll(root+"/empty/dir", 0755))

	keep := appdir.NewKeepSet(nil, []string{"/app/data.bin", "/usr/lib/libfoo.so.1"})
	result, err := appdir.NewPruner(fsys, root).Prune(keep, []string{"share/myapp"})
	require.NoError(t, err)

	assert.Equal(t, []string{root + "/app/old-asset.txt", root + "/usr/lib/libstale.so"}, result.Deleted)
	assert.Equal(t, []string{root + "/app/data.bin", root + "/usr/lib/libfoo.so.1"}, result.Kept)
	assert.Equal(t, []string{root + "/usr/share/myapp/theme.css"}, result.IncludedByFragment)

	_, err = fsys.Stat(root + "/empty/dir")
	assert.NoError(t, err, "directories are never deleted")

	var survivors []string
	require.NoError(t, filesystem.Walk(fsys, root, func(path string, entry fs.DirEntry) error {
		if !entry.IsDir() {
			survivors = append(survivors, path)
		}
		return nil
	}))
	for _, s := range survivors {
		dest := strings.TrimPrefix(s, root)
		assert.True(t, keep.Contains(dest) || strings.Contains(s, "share/myapp"), "%s should not survive", s)
	}
}

func TestPruneExcludedFileIsDeleted(t *testing.T) {
	fsys := filesystem.NewMemory()
	root := "/AppDir"
	writeFile(t, fsys, root+"/usr/lib/libfoo.so.1", "lib", 0644)

	keep := appdir.NewKeepSet([]string{"libfoo.so.1"}, []string{"/usr/lib/libfoo.so.1"})
	result, err := appdir.NewPruner(fsys, root).Prune(keep, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{root + "/usr/lib/libfoo.so.1"}, result.Deleted)
}

func TestPruneEmptyAppDir(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/AppDir", 0755))

	result, err := appdir.NewPruner(fsys, "/AppDir").Prune(appdir.KeepSet{}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
}

func TestPruneMissingAppDir(t *testing.T) {
	_, err := appdir.NewPruner(filesystem.NewMemory(), "/nope").Prune(appdir.KeepSet{}, nil)
	require.Error(t, err)
}

func TestPruneSymlinks(t *testing.T) {
	testutil.SkipOnWindows(t)
	root := testutil.CanonicalTempDir(t)
	testutil.CreateFile(t, root, "usr/lib/python3.9/os.py", "os")
	testutil.CreateFile(t, root, "usr/bin/python3.9", "elf")
	testutil.CreateSymlink(t, "python3.9", filepath.Join(root, "usr/bin/python3"))
	testutil.CreateSymlink(t, "python3.9", filepath.Join(root, "usr/bin/python"))
	testutil.CreateSymlink(t, "python3.9", filepath.Join(root, "usr/lib/python3"))

	keep := appdir.NewKeepSet(nil, []string{"/usr/lib/python3.9/os.py", "/usr/bin/python3.9", "/usr/bin/python3"})
	result, err := appdir.NewPruner(filesystem.NewOS(), root).Prune(keep, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "usr/bin/python")}, result.Deleted, "unkept file links are pruned")
	assert.Contains(t, result.Kept, filepath.Join(root, "usr/bin/python3"))

	info, err := os.Lstat(filepath.Join(root, "usr/lib/python3"))
	require.NoError(t, err, "links to directories are never deleted")
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
	testutil.AssertFileContent(t, filepath.Join(root, "usr/lib/python3.9/os.py"), "os")
}
