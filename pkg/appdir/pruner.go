package appdir

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// PruneResult lists host paths by what happened to them.
type PruneResult struct {
	Deleted            []string
	Kept               []string
	IncludedByFragment []string
}

// Pruner removes files that are neither kept nor included.
type Pruner struct {
	fs   filesystem.FS
	root string
}

// NewPruner returns a pruner for the AppDir at root.
func NewPruner(fsys filesystem.FS, root string) *Pruner {
	return &Pruner{fs: fsys, root: root}
}

// Prune walks the AppDir and deletes every file that is not in keep and
// whose host path contains none of the include fragments. Directories,
// and symlinks resolving to directories, are never deleted.
func (p *Pruner) Prune(keep KeepSet, include []string) (PruneResult, error) {
	logger := logging.GetLogger("appdir")
	var result PruneResult

	err := filesystem.Walk(p.fs, p.root, func(path string, entry fs.DirEntry) error {
		if entry.IsDir() || p.linksToDir(path, entry) {
			return nil
		}

		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		dest := "/" + filepath.ToSlash(rel)

		if keep.Contains(dest) {
			result.Kept = append(result.Kept, path)
			return nil
		}
		if fragment, ok := containsAny(path, include); ok {
			logger.Debug().Str("path", path).Str("fragment", fragment).Msg("Kept by include fragment")
			result.IncludedByFragment = append(result.IncludedByFragment, path)
			return nil
		}

		if err := p.fs.Remove(path); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot delete %s", path).
				WithDetail("path", path)
		}
		logger.Info().Str("path", path).Msg("Deleted file not used by the application")
		result.Deleted = append(result.Deleted, path)
		return nil
	})
	if err != nil {
		if errors.GetErrorCode(err) != errors.ErrUnknown {
			return result, err
		}
		return result, errors.Wrapf(err, errors.ErrFileSystem, "cannot walk %s", p.root)
	}

	logger.Info().
		Int("kept", len(result.Kept)).
		Int("included", len(result.IncludedByFragment)).
		Int("deleted", len(result.Deleted)).
		Msg("AppDir pruned")
	return result, nil
}

func (p *Pruner) linksToDir(path string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := p.fs.Stat(path)
	return err == nil && info.IsDir()
}

func containsAny(s string, fragments []string) (string, bool) {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, f) {
			return f, true
		}
	}
	return "", false
}
