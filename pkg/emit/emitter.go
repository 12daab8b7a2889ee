package emit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/rs/zerolog"
)

// Emitter writes the desktop entry, icons and metainfo of an AppDir as a
// single batch of filesystem operations.
type Emitter struct {
	logger     zerolog.Logger
	filesystem filesystem.FullFileSystem
	appDir     string
	workDir    string
}

// NewEmitter returns an emitter for the AppDir at appDir. Relative icon
// paths are resolved against workDir.
func NewEmitter(appDir, workDir string) *Emitter {
	// Use PathAwareFileSystem to handle absolute paths directly
	osfs := filesystem.NewOSFileSystem("/")
	pathAwareFS := synthfs.NewPathAwareFileSystem(osfs, "/").WithAbsolutePaths()

	return &Emitter{
		logger:     logging.GetLogger("emit"),
		filesystem: pathAwareFS,
		appDir:     appDir,
		workDir:    workDir,
	}
}

// Emit writes the artifacts described by p and returns their host paths.
func (e *Emitter) Emit(ctx context.Context, p config.Policy) ([]string, error) {
	sfs := synthfs.New()
	var ops []synthfs.Operation
	var written []string

	// Desktop entry
	if p.Runtime.ReverseDNS == "" {
		e.logger.Warn().Msg("Runtime.reverseDNS is empty, the desktop entry will be named .desktop")
	}
	desktopPath := filepath.Join(e.appDir, DesktopFileName(p.Runtime.ReverseDNS))
	ops = append(ops, sfs.CustomOperationWithID("desktop_entry",
		writeFileOperation(desktopPath, []byte(RenderDesktopEntry(p.DesktopEntry)), 0644)))
	written = append(written, desktopPath)

	// Icons
	if p.Icon.SourcePath == "" {
		e.logger.Warn().Msg("Icon.sourcePath is empty, no icon will be installed")
	} else {
		source := p.Icon.SourcePath
		if !filepath.IsAbs(source) {
			source = filepath.Join(e.workDir, source)
		}
		if info, err := os.Stat(source); err != nil || info.IsDir() {
			return nil, errors.Newf(errors.ErrInvalidInput, "icon %s is not a readable file", source).
				WithDetail("icon", source)
		}

		name := IconName(p)
		for i, dest := range IconDests(name) {
			target := filepath.Join(e.appDir, dest)
			ops = append(ops, sfs.CustomOperationWithID(fmt.Sprintf("icon_%d", i), copyFileOperation(source, target)))
			written = append(written, target)
		}
	}

	// AppStream metainfo
	if p.Runtime.ReverseDNS != "" {
		metainfo, err := RenderMetainfo(p)
		if err != nil {
			return nil, err
		}
		target := filepath.Join(e.appDir, MetainfoDest(p.Runtime.ReverseDNS))
		ops = append(ops, sfs.CustomOperationWithID("metainfo", writeFileOperation(target, metainfo, 0644)))
		written = append(written, target)
	}

	e.logger.Info().Int("operationCount", len(ops)).Msg("Writing AppDir artifacts")

	options := synthfs.DefaultPipelineOptions()
	if _, err := synthfs.RunWithOptions(ctx, e.filesystem, options, ops...); err != nil {
		return nil, errors.Wrap(err, errors.ErrFileSystem, "failed to write AppDir artifacts")
	}

	for _, path := range written {
		e.logger.Debug().Str("path", path).Msg("Wrote artifact")
	}
	return written, nil
}

func writeFileOperation(target string, content []byte, mode os.FileMode) func(ctx context.Context, fs filesystem.FileSystem) error {
	return func(ctx context.Context, fs filesystem.FileSystem) error {
		if err := fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", target, err)
		}
		if err := fs.Remove(target); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to replace %s: %w", target, err)
		}
		return fs.WriteFile(target, content, mode)
	}
}

func copyFileOperation(source, target string) func(ctx context.Context, fs filesystem.FileSystem) error {
	return func(ctx context.Context, fs filesystem.FileSystem) error {
		srcFile, err := fs.Open(source)
		if err != nil {
			return fmt.Errorf("failed to open source file %s: %w", source, err)
		}
		defer func() { _ = srcFile.Close() }()

		content, err := io.ReadAll(srcFile)
		if err != nil {
			return fmt.Errorf("failed to read source file %s: %w", source, err)
		}

		return writeFileOperation(target, content, 0644)(ctx, fs)
	}
}
