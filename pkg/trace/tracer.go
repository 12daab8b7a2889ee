package trace

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os/exec"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// DefaultBinary is the tracer used when none is configured.
const DefaultBinary = "strace"

// DefaultFlags follow forks and only report file-open syscalls.
func DefaultFlags() []string {
	return []string{"-f", "-e", "trace=open,openat,openat2,creat"}
}

// Command is a program to run under the tracer.
type Command struct {
	Path string
	Args []string
	// Env is the complete environment of the traced program.
	Env []string
}

// Tracer runs commands under a syscall tracer. The tracer's stderr is the
// raw log; the traced program's stdin and stdout are wired to Stdin and
// Stdout so it can be used interactively.
type Tracer struct {
	Binary string
	Flags  []string
	Stdin  io.Reader
	Stdout io.Writer
}

// NewTracer returns a tracer running binary with the default flags.
func NewTracer(binary string) *Tracer {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Tracer{Binary: binary, Flags: DefaultFlags()}
}

// Trace runs cmd to completion and returns the raw trace log. A tracer that
// cannot be started is a SUBPROCESS error; a non-zero exit of the traced
// program is only logged, since its file accesses are still valid.
func (t *Tracer) Trace(ctx context.Context, cmd Command) ([]byte, error) {
	logger := logging.GetLogger("trace")

	binary, err := exec.LookPath(t.Binary)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSubprocess, "tracer %q not found", t.Binary).
			WithDetail("tracer", t.Binary)
	}

	args := append(append([]string{}, t.Flags...), cmd.Path)
	args = append(args, cmd.Args...)

	c := exec.CommandContext(ctx, binary, args...)
	c.Env = cmd.Env
	c.Stdin = t.Stdin
	c.Stdout = t.Stdout

	var stderr bytes.Buffer
	c.Stderr = &stderr

	logging.LogCommand(logger, binary, args)
	done := logging.LogOperationStart(logger, "trace")
	defer done()

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && ctx.Err() == nil {
			logger.Warn().
				Int("exit_code", exitErr.ExitCode()).
				Str("executable", cmd.Path).
				Msg("Traced program exited with an error")
			return stderr.Bytes(), nil
		}
		return nil, errors.Wrapf(err, errors.ErrSubprocess, "failed to run %s under %s", cmd.Path, t.Binary).
			WithDetail("tracer", binary).
			WithDetail("executable", cmd.Path)
	}

	logger.Debug().Int("bytes", stderr.Len()).Msg("Trace collected")
	return stderr.Bytes(), nil
}
