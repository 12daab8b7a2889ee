package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateFile writes content to dir/name with mode 0644, creating parents.
func CreateFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	return CreateFileMode(t, dir, name, content, 0644)
}

// CreateFileMode is CreateFile with explicit permission bits. The mode is
// applied after the write so the umask does not mask it.
func CreateFileMode(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "parent of %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), mode), "write %s", path)
	require.NoError(t, os.Chmod(path, mode), "chmod %s", path)
	return path
}

// CreateScript writes an executable /bin/sh script.
func CreateScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	return CreateFileMode(t, dir, name, "#!/bin/sh\n"+body+"\n", 0755)
}

// CreateDir creates parent/name and any missing ancestors.
func CreateDir(t *testing.T, parent, name string) string {
	t.Helper()

	path := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(path, 0755), "mkdir %s", path)
	return path
}

// CreateSymlink creates link pointing at target, creating link's parent.
func CreateSymlink(t *testing.T, target, link string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755), "parent of %s", link)
	require.NoError(t, os.Symlink(target, link), "symlink %s -> %s", link, target)
}

// CanonicalTempDir returns t.TempDir() with symlinks resolved, so that
// paths compare equal to what a canonicalizing normalizer reports.
func CanonicalTempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// FileExists reports whether path exists and is not a directory.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DirExists reports whether path is a directory.
func DirExists(t *testing.T, path string) bool {
	t.Helper()
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func ReadFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "read %s", path)
	return string(content)
}

// AssertFileContent fails unless path is a regular file holding expected.
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()

	require.True(t, FileExists(t, path), "file %s does not exist", path)
	assert.Equal(t, expected, ReadFile(t, path), "content of %s", path)
}

// AssertMode checks the permission bits of path.
func AssertMode(t *testing.T, path string, expected os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "stat %s", path)
	assert.Equal(t, expected, info.Mode().Perm(), "mode of %s", path)
}

// AssertNoFile fails if anything exists at path.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), "%s exists but should not", path)
}

// TreeFiles lists every non-directory entry under root as a sorted list of
// slash-separated relative paths.
func TreeFiles(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err, "walk %s", root)

	sort.Strings(files)
	return files
}

// OpenatLine renders a strace line for an openat call on path.
func OpenatLine(pid int, path string) string {
	return fmt.Sprintf("[pid %d] openat(AT_FDCWD, %q, O_RDONLY|O_CLOEXEC) = 3", pid, path)
}

// TraceLog joins strace lines opening each path into a log.
func TraceLog(paths ...string) string {
	lines := make([]string, 0, len(paths))
	for i, p := range paths {
		lines = append(lines, OpenatLine(1000+i, p))
	}
	return strings.Join(lines, "\n") + "\n"
}

// SkipOnWindows skips tests that rely on POSIX paths or /bin/sh.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if os.PathSeparator == '\\' {
		t.Skip("Test not supported on Windows")
	}
}
