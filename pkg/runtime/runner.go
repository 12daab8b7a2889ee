package runtime

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// Runner runs installer commands. stdout may be nil to inherit the
// process output.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdout io.Writer) error
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct {
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string, stdout io.Writer) error {
	logger := logging.GetLogger("runtime")
	logging.LogCommand(logger, name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, errors.ErrSubprocess, "%s failed", name).
			WithDetail("command", name).
			WithDetail("args", args)
	}
	return nil
}
