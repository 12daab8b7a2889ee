package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return os.ExpandEnv(path)
}

// IsWithin reports whether path equals root or lies below it.
// The check compares whole path components, so /x/AppDir2 is not within /x/AppDir.
func IsWithin(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)

	if path == root {
		return true
	}
	if root == string(filepath.Separator) {
		return filepath.IsAbs(path)
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// TrimRoot strips root from path, keeping the leading separator.
// TrimRoot("/w/a/b", "/w") is "/a/b". A path equal to root becomes "/".
// The second return is false when path is not within root.
func TrimRoot(path, root string) (string, bool) {
	if !IsWithin(path, root) {
		return path, false
	}

	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if root == string(filepath.Separator) {
		return path, true
	}

	rest := strings.TrimPrefix(path, root)
	if rest == "" {
		return string(filepath.Separator), true
	}
	return rest, true
}

// Canonical makes path absolute and resolves every symlink in it.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(ExpandPath(path))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// CanonicalOrAbs is Canonical for paths that may not exist yet.
func CanonicalOrAbs(path string) string {
	if canonical, err := Canonical(path); err == nil {
		return canonical
	}
	abs, err := filepath.Abs(ExpandPath(path))
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
