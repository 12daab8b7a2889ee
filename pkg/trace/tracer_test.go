// TEST TYPE: Integration Tests
// DEPENDENCIES: /bin/sh, pkg/testutil
// PURPOSE: Test running programs under a tracer with an explicit environment

package trace_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/testutil"
	"github.com/arthur-debert/appdirbuilder/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracer drops tracer flags, reports the executable and
// $FAKE_TRACE_OPEN as opened, then runs the program.
const fakeTracer = `while [ $# -gt 0 ]; do
  case "$1" in
    -e) shift 2 ;;
    -*) shift ;;
    *) break ;;
  esac
done
echo "openat(AT_FDCWD, \"$1\", O_RDONLY|O_CLOEXEC) = 3" >&2
if [ -n "$FAKE_TRACE_OPEN" ]; then
  echo "[pid 42] openat(AT_FDCWD, \"$FAKE_TRACE_OPEN\", O_RDONLY) = 4" >&2
fi
exec "$@"`

func TestTraceCollectsStderr(t *testing.T) {
	testutil.SkipOnWindows(t)
	dir := testutil.CanonicalTempDir(t)
	tracer := testutil.CreateScript(t, dir, "fake-strace", fakeTracer)
	program := testutil.CreateScript(t, dir, "bin/myapp", `echo "args:$*" > "$OUT"`)
	out := filepath.Join(dir, "out.txt")

	tr := trace.NewTracer(tracer)
	log, err := tr.Trace(context.Background(), trace.Command{
		Path: program,
		Args: []string{"one", "two"},
		Env:  []string{"PATH=/usr/bin:/bin", "OUT=" + out, "FAKE_TRACE_OPEN=/etc/hosts"},
	})
	require.NoError(t, err)

	assert.Contains(t, string(log), `openat(AT_FDCWD, "`+program+`"`)
	assert.Contains(t, string(log), `"/etc/hosts"`)
	testutil.AssertFileContent(t, out, "args:one two\n")
}

func TestTraceNonZeroExitIsNotAnError(t *testing.T) {
	testutil.SkipOnWindows(t)
	dir := testutil.CanonicalTempDir(t)
	tracer := testutil.CreateScript(t, dir, "fake-strace", fakeTracer)
	program := testutil.CreateScript(t, dir, "fail", "exit 3")

	log, err := trace.NewTracer(tracer).Trace(context.Background(), trace.Command{
		Path: program,
		Env:  []string{"PATH=/usr/bin:/bin"},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(log), program))
}

func TestTraceMissingTracer(t *testing.T) {
	_, err := trace.NewTracer(filepath.Join(t.TempDir(), "no-such-tracer")).Trace(context.Background(), trace.Command{
		Path: "/bin/true",
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSubprocess))
}

func TestNewTracerDefaults(t *testing.T) {
	tr := trace.NewTracer("")
	assert.Equal(t, trace.DefaultBinary, tr.Binary)
	assert.Equal(t, []string{"-f", "-e", "trace=open,openat,openat2,creat"}, tr.Flags)
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "LANG=C"}

	got := trace.MergeEnv(base,
		map[string]string{"LD_LIBRARY_PATH": "/app/usr/lib", "HOME": "/tmp"},
		map[string]string{"LANG": "en_US.UTF-8", "A": "1"},
	)

	assert.Equal(t, []string{
		"PATH=/bin", "HOME=/tmp", "LANG=en_US.UTF-8", "LD_LIBRARY_PATH=/app/usr/lib", "A=1",
	}, got)
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "LANG=C"}, base, "base is not modified")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "trace.env", "# comment\nQT_DEBUG_PLUGINS=1\nGREETING=\"hello world\"\n")

	values, err := trace.LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"QT_DEBUG_PLUGINS": "1", "GREETING": "hello world"}, values)
	_, set := os.LookupEnv("QT_DEBUG_PLUGINS")
	assert.False(t, set, "the process environment is untouched")

	_, err = trace.LoadEnvFile(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfig))
}
