package appdir

import (
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/appdirbuilder/pkg/classify"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// Materializer copies files into the AppDir at Root.
type Materializer struct {
	fs   filesystem.FS
	root string
}

// NewMaterializer returns a materializer writing below root.
func NewMaterializer(fsys filesystem.FS, root string) *Materializer {
	return &Materializer{fs: fsys, root: root}
}

// Root returns the AppDir root.
func (m *Materializer) Root() string {
	return m.root
}

// HostPath maps an AppDir-relative destination to a host path.
func (m *Materializer) HostPath(dest string) string {
	return filepath.Join(m.root, dest)
}

// Materialize copies every file to its destination and returns the
// destinations in input order. A later file with the same destination
// overwrites an earlier one. The first failure aborts the copy.
func (m *Materializer) Materialize(files []classify.File) ([]string, error) {
	logger := logging.GetLogger("appdir")

	dests := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := m.Copy(f.Source, f.Dest); err != nil {
			return dests, err
		}
		logger.Debug().Str("source", f.Source).Str("dest", f.Dest).Str("kind", f.Kind.String()).Msg("Copied")
		dests = append(dests, f.Dest)
	}

	return dests, nil
}

// Copy copies src to dest inside the AppDir, creating parent directories
// and preserving permission bits. An existing destination is replaced, so
// a read-only file or a symlink at dest is never written through. It
// returns the host path of the copy.
func (m *Materializer) Copy(src, dest string) (string, error) {
	target := m.HostPath(dest)

	info, err := m.fs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrSourceMissing, "source file %s vanished", src).
				WithDetail("source", src)
		}
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot stat %s", src)
	}
	mode := info.Mode().Perm()

	if err := m.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot create directory for %s", target)
	}

	if err := m.fs.Remove(target); err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot replace %s", target)
	}

	in, err := m.fs.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrSourceMissing, "source file %s vanished", src).
				WithDetail("source", src)
		}
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", src)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := m.fs.Create(target, mode|0200)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", target)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot copy %s to %s", src, target)
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", target)
	}

	// Create is subject to umask and needs write permission
	if err := m.fs.Chmod(target, mode); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot set mode of %s", target)
	}

	return target, nil
}
