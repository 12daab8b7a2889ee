package filesystem

import (
	"io"
	"io/fs"
	"path/filepath"
)

// FS is the set of filesystem operations the materializer, pruner and
// emitters need. Paths are always absolute host paths.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	Open(name string) (io.ReadCloser, error)
	// Create truncates or creates name for writing with perm.
	Create(name string, perm fs.FileMode) (io.WriteCloser, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Chmod(name string, mode fs.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// WalkFunc is called for every entry below the walked root. The root
// itself is not reported.
type WalkFunc func(path string, entry fs.DirEntry) error

// Walk visits every entry under root depth-first in lexical order.
// Returning fs.SkipDir from fn for a directory skips its contents.
func Walk(fsys FS, root string, fn WalkFunc) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if err := fn(path, entry); err != nil {
			if err == fs.SkipDir && entry.IsDir() {
				continue
			}
			return err
		}
		if entry.IsDir() {
			if err := Walk(fsys, path, fn); err != nil {
				return err
			}
		}
	}

	return nil
}
