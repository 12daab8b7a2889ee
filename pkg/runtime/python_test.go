// TEST TYPE: Unit Tests
// DEPENDENCIES: in-memory filesystem, testify/mock runner
// PURPOSE: Test the docker driven Python runtime installer

package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string, stdout io.Writer) error {
	ret := m.Called(name, args, stdout)
	return ret.Error(0)
}

func lastArgs(n int) interface{} {
	return mock.MatchedBy(func(args []string) bool {
		return len(args) >= n
	})
}

func hasTail(tail ...string) interface{} {
	return mock.MatchedBy(func(args []string) bool {
		if len(args) < len(tail) {
			return false
		}
		got := args[len(args)-len(tail):]
		for i := range tail {
			if got[i] != tail[i] {
				return false
			}
		}
		return true
	})
}

func newPython(t *testing.T, runner Runner) (*Python, filesystem.FS) {
	t.Helper()
	fsys := filesystem.NewMemory()
	require.NoError(t, fsys.MkdirAll("/work", 0755))
	require.NoError(t, fsys.MkdirAll("/work/AppDir", 0755))
	return &Python{
		Runner:  runner,
		FS:      fsys,
		AppDir:  "/work/AppDir",
		WorkDir: "/work",
		Image:   DefaultPythonImage,
		UID:     1000,
		GID:     1000,
	}, fsys
}

func pythonPolicy(t *testing.T) config.Policy {
	t.Helper()
	p, err := config.Defaults()
	require.NoError(t, err)
	p.Python.Version = "3.9.7"
	p.Python.Entryfile = "main.py"
	return p
}

func TestPythonDisabledWithoutVersion(t *testing.T) {
	runner := &mockRunner{}
	installer, _ := newPython(t, runner)

	p, err := config.Defaults()
	require.NoError(t, err)

	override, err := installer.Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, NoOverride{}, override)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestPythonInstallsInterpreter(t *testing.T) {
	runner := &mockRunner{}
	installer, fsys := newPython(t, runner)

	unpack := []string{
		"run", "--rm", "--volume", "/work/AppDir/usr:/opt/out", "--user", "1000:1000",
		"giacomofurlan/python-precompiled:v3.9.7", "/opt/out/",
	}
	runner.On("Run", "docker", unpack, nil).
		Run(func(mock.Arguments) {
			require.NoError(t, fsys.MkdirAll("/work/AppDir/usr/bin", 0755))
			require.NoError(t, fsys.MkdirAll("/work/AppDir/usr/lib", 0755))
			require.NoError(t, fsys.WriteFile("/work/AppDir/usr/bin/python3", []byte("elf"), 0755))
			require.NoError(t, fsys.WriteFile("/work/AppDir/usr/lib/libpython3.9.so", []byte("elf"), 0644))
		}).
		Return(nil).Once()

	override, err := installer.Resolve(context.Background(), pythonPolicy(t))
	require.NoError(t, err)
	runner.AssertExpectations(t)

	cmd, ok := override.(CommandOverride)
	require.True(t, ok)
	assert.Equal(t, "/work/AppDir/usr/bin/python3", cmd.Executable)
	assert.Equal(t, []string{"/work/AppDir/usr/bin/python3", "main.py"}, cmd.Command())
	assert.False(t, cmd.CopyExecutable)
	assert.Equal(t, "/work/AppDir/usr/lib", cmd.Env["LD_LIBRARY_PATH"])
	assert.Equal(t, "/work/AppDir/usr/lib/python3.9/site-packages", cmd.Env["PYTHONPATH"])
	assert.Equal(t, "$APPDIR/usr/lib/python3.9/site-packages", cmd.ExtraEnvVars["PYTHONPATH"])
	assert.Equal(t, []string{
		"/work/AppDir/usr/bin/python3",
		"/work/AppDir/usr/lib/libpython3.9.so",
	}, cmd.ExtraFiles)
}

func TestPythonPipenvAndPipInstall(t *testing.T) {
	runner := &mockRunner{}
	installer, fsys := newPython(t, runner)
	require.NoError(t, fsys.MkdirAll("/work/src/__pycache__", 0755))
	require.NoError(t, fsys.WriteFile("/work/src/__pycache__/main.cpython-39.pyc", []byte("pyc"), 0644))
	require.NoError(t, fsys.WriteFile("/work/src/main.py", []byte("print()"), 0644))

	runner.On("Run", "docker", hasTail("giacomofurlan/python-precompiled:v3.9.7", "/opt/out/"), nil).Return(nil).Once()
	runner.On("Run", "docker", hasTail("-m", "ensurepip", "--upgrade"), nil).Return(nil).Once()
	runner.On("Run", "docker", hasTail("-m", "pip", "install", "--upgrade", "pip"), nil).Return(nil).Once()
	runner.On("Run", "docker", hasTail("-m", "pip", "install", "pipenv"), nil).Return(nil).Once()
	runner.On("Run", "docker", hasTail("lock", "-r"), mock.Anything).
		Run(func(args mock.Arguments) {
			w := args.Get(2).(io.Writer)
			_, _ = fmt.Fprint(w, "requests==2.26.0\n")
		}).
		Return(nil).Once()
	runner.On("Run", "docker", hasTail("-m", "pip", "install", "-r", "requirements.txt"), nil).
		Return(nil).Once()

	p := pythonPolicy(t)
	p.Python.PipenvInstall = true
	p.Python.PipInstall = true

	_, err := installer.Resolve(context.Background(), p)
	require.NoError(t, err)
	runner.AssertExpectations(t)

	requirements, err := fsys.ReadFile("/work/requirements.txt")
	require.NoError(t, err)
	assert.Equal(t, "requests==2.26.0\n", string(requirements))

	_, err = fsys.Stat("/work/src/__pycache__")
	assert.Error(t, err)
	_, err = fsys.Stat("/work/src/main.py")
	assert.NoError(t, err)
}

func TestPythonPipInstallUsesContainerEnvironment(t *testing.T) {
	runner := &mockRunner{}
	installer, _ := newPython(t, runner)

	var captured []string
	runner.On("Run", "docker", hasTail("/opt/out/"), nil).Return(nil).Once()
	runner.On("Run", "docker", hasTail("requirements.txt"), nil).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]string)
		}).
		Return(nil).Once()

	p := pythonPolicy(t)
	p.Python.PipInstall = true

	_, err := installer.Resolve(context.Background(), p)
	require.NoError(t, err)

	joined := fmt.Sprint(captured)
	assert.Contains(t, joined, "/work/AppDir/usr:/opt/out")
	assert.Contains(t, joined, "/work:/tmpapp")
	assert.Contains(t, joined, "LD_LIBRARY_PATH=/opt/out/lib")
	assert.Contains(t, joined, "HOME=/tmp")
	assert.Contains(t, joined, "/opt/out/bin/python3")
}

func TestPythonRunnerFailure(t *testing.T) {
	runner := &mockRunner{}
	installer, _ := newPython(t, runner)

	runner.On("Run", "docker", lastArgs(1), nil).
		Return(errors.New(errors.ErrSubprocess, "docker failed")).Once()

	_, err := installer.Resolve(context.Background(), pythonPolicy(t))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSubprocess))
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	var stderr bytes.Buffer
	err := ExecRunner{Stderr: &stderr}.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, io.Discard)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSubprocess))
}

func TestMajorMinor(t *testing.T) {
	assert.Equal(t, "3.9", majorMinor("3.9.7"))
	assert.Equal(t, "3.10", majorMinor("3.10"))
	assert.Equal(t, "3", majorMinor("3"))
}
