package emit

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/appdir"
	"github.com/arthur-debert/appdirbuilder/pkg/classify"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// AppDirVar is the launcher variable that expands to the AppDir root.
const AppDirVar = "$APPDIR"

// ResolveExecutable returns the absolute path of name. Absolute paths are
// used as they are, names containing a separator are taken relative to
// the current directory, and bare names are searched on pathEnv.
func ResolveExecutable(name, pathEnv string) (string, error) {
	if name == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty executable name")
	}

	if strings.ContainsRune(name, filepath.Separator) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", name)
		}
		if !isExecutable(abs) {
			return "", errors.Newf(errors.ErrInvalidInput, "%s is not an executable file", abs).
				WithDetail("executable", name)
		}
		return abs, nil
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", errors.Wrapf(err, errors.ErrInvalidInput, "cannot resolve %s", candidate)
			}
			return abs, nil
		}
	}

	return "", errors.Newf(errors.ErrInvalidInput, "executable %q not found on PATH", name).
		WithDetail("executable", name)
}

func isExecutable(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}

// ExecutableDest is the AppDir destination of a copied executable.
func ExecutableDest(executable string) string {
	return path.Join(classify.AppPrefix, filepath.Base(executable))
}

// CopyExecutable copies executable to /app/<basename>, replacing any
// existing copy, and returns its destination.
func CopyExecutable(m *appdir.Materializer, executable string) (string, error) {
	dest := ExecutableDest(executable)
	if _, err := m.Copy(executable, dest); err != nil {
		return "", err
	}
	logger := logging.GetLogger("emit")
	logger.Info().Str("executable", executable).Str("dest", dest).Msg("Copied executable")
	return dest, nil
}

// ExpandAppDir replaces every $APPDIR in s with appDir.
func ExpandAppDir(s, appDir string) string {
	return strings.ReplaceAll(s, AppDirVar, appDir)
}

var (
	usrPath     = []byte("/usr")
	usrReplaced = []byte("././")
)

// PatchBinary replaces every "/usr" in the file at path with "././", which
// has the same length, so the binary resolves those paths relative to its
// working directory. The file mode is preserved. It returns the number of
// replacements.
func PatchBinary(fsys filesystem.FS, path string) (int, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(err, errors.ErrInvalidInput, "binary to patch %s does not exist", path)
		}
		return 0, errors.Wrapf(err, errors.ErrFileSystem, "cannot stat %s", path)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", path)
	}

	count := bytes.Count(data, usrPath)
	if count == 0 {
		return 0, nil
	}

	mode := info.Mode().Perm()
	if err := fsys.WriteFile(path, bytes.ReplaceAll(data, usrPath, usrReplaced), mode); err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", path)
	}
	if err := fsys.Chmod(path, mode); err != nil {
		return 0, errors.Wrapf(err, errors.ErrFileSystem, "cannot set mode of %s", path)
	}

	logger := logging.GetLogger("emit")
	logger.Info().Str("path", path).Int("replacements", count).Msg("Patched hard-coded /usr paths")
	return count, nil
}
