package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

const (
	// DefaultPythonImage is the image holding relocatable CPython builds,
	// tagged v<version>.
	DefaultPythonImage = "giacomofurlan/python-precompiled"

	containerOut = "/opt/out"
	containerApp = "/tmpapp"
)

// Python installs a prebuilt interpreter into <AppDir>/usr with docker and
// optionally installs the project requirements into it. It is disabled
// while [Python] version is empty.
type Python struct {
	Runner  Runner
	FS      filesystem.FS
	AppDir  string
	WorkDir string
	Image   string
	UID     int
	GID     int
}

// NewPython returns an installer running docker as the current user.
func NewPython(fsys filesystem.FS, appDir, workDir string) *Python {
	return &Python{
		Runner:  ExecRunner{},
		FS:      fsys,
		AppDir:  appDir,
		WorkDir: workDir,
		Image:   DefaultPythonImage,
		UID:     os.Geteuid(),
		GID:     os.Getegid(),
	}
}

func (p *Python) Resolve(ctx context.Context, policy config.Policy) (Override, error) {
	cfg := policy.Python
	if cfg.Version == "" {
		return NoOverride{}, nil
	}

	logger := logging.GetLogger("runtime")
	done := logging.LogOperationStart(logger, "python install")
	defer done()

	usr := filepath.Join(p.AppDir, "usr")
	if err := p.FS.MkdirAll(usr, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", usr)
	}

	image := fmt.Sprintf("%s:v%s", p.Image, cfg.Version)
	user := fmt.Sprintf("%d:%d", p.UID, p.GID)

	// Unpack the interpreter
	if err := p.Runner.Run(ctx, "docker", []string{
		"run", "--rm", "--volume", usr + ":" + containerOut, "--user", user, image, containerOut + "/",
	}, nil); err != nil {
		return nil, err
	}

	python := func(stdout io.Writer, args ...string) error {
		dockerArgs := []string{
			"run", "--rm",
			"--volume", usr + ":" + containerOut,
			"--volume", p.WorkDir + ":" + containerApp,
			"--user", user,
			"--env", "LD_LIBRARY_PATH=" + containerOut + "/lib",
			"--env", "HOME=/tmp",
			"--workdir", containerApp,
			"--entrypoint", containerOut + "/bin/python3",
			image,
		}
		return p.Runner.Run(ctx, "docker", append(dockerArgs, args...), stdout)
	}

	if cfg.PipenvInstall {
		for _, step := range [][]string{
			{"-m", "ensurepip", "--upgrade"},
			{"-m", "pip", "install", "--upgrade", "pip"},
			{"-m", "pip", "install", "pipenv"},
		} {
			if err := python(nil, step...); err != nil {
				return nil, err
			}
		}

		var requirements bytes.Buffer
		if err := python(&requirements, "-m", "pipenv", "--python", containerOut+"/bin/python3", "lock", "-r"); err != nil {
			return nil, err
		}
		target := filepath.Join(p.WorkDir, "requirements.txt")
		if err := p.FS.WriteFile(target, requirements.Bytes(), 0644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", target)
		}
		logger.Info().Str("path", target).Msg("Locked requirements")
	}

	if cfg.PipInstall {
		if err := python(nil, "-m", "pip", "install", "-r", "requirements.txt"); err != nil {
			return nil, err
		}
	}

	if err := p.removePycache(); err != nil {
		return nil, err
	}

	extras, err := p.installedFiles(usr)
	if err != nil {
		return nil, err
	}

	sitePackages := filepath.Join("lib", "python"+majorMinor(cfg.Version), "site-packages")
	override := CommandOverride{
		Executable: filepath.Join(usr, "bin", "python3"),
		Env: map[string]string{
			"LD_LIBRARY_PATH": filepath.Join(usr, "lib"),
			"PYTHONPATH":      filepath.Join(usr, sitePackages),
		},
		CopyExecutable: false,
		ExtraEnvVars: map[string]string{
			"PYTHONPATH": "$APPDIR/usr/" + filepath.ToSlash(sitePackages),
		},
		ExtraFiles: extras,
	}
	if cfg.Entryfile != "" {
		override.Args = []string{cfg.Entryfile}
	}

	logger.Info().
		Str("version", cfg.Version).
		Int("files", len(extras)).
		Msg("Python runtime installed")
	return override, nil
}

// removePycache deletes every __pycache__ directory under the working
// directory so stale bytecode is not traced into the AppDir.
func (p *Python) removePycache() error {
	var dirs []string
	err := filesystem.Walk(p.FS, p.WorkDir, func(path string, entry fs.DirEntry) error {
		if entry.IsDir() && entry.Name() == "__pycache__" {
			dirs = append(dirs, path)
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot walk %s", p.WorkDir)
	}

	for _, dir := range dirs {
		if err := p.FS.RemoveAll(dir); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot remove %s", dir)
		}
	}
	return nil
}

// installedFiles lists every entry under root that is not a directory.
// Symlinks are listed by their own path.
func (p *Python) installedFiles(root string) ([]string, error) {
	var files []string
	err := filesystem.Walk(p.FS, root, func(path string, entry fs.DirEntry) error {
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot walk %s", root)
	}
	return files, nil
}

// majorMinor turns "3.9.7" into "3.9".
func majorMinor(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
