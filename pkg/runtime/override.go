package runtime

import (
	"context"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
)

// Override is the result of an Installer: either NoOverride or a
// CommandOverride.
type Override interface {
	isOverride()
}

// NoOverride leaves the command line executable in charge.
type NoOverride struct{}

func (NoOverride) isOverride() {}

// CommandOverride replaces the traced command.
type CommandOverride struct {
	Executable string
	Args       []string
	// Env is added to the trace environment.
	Env map[string]string
	// CopyExecutable is false when Executable already lives in the AppDir.
	CopyExecutable bool
	// ExtraEnvVars are exported by the AppRun launcher.
	ExtraEnvVars map[string]string
	// ExtraFiles are host paths under the AppDir that must survive pruning.
	ExtraFiles []string
}

func (CommandOverride) isOverride() {}

// Command returns the executable followed by its arguments.
func (c CommandOverride) Command() []string {
	return append([]string{c.Executable}, c.Args...)
}

// Installer prepares a runtime and decides what to trace.
type Installer interface {
	Resolve(ctx context.Context, policy config.Policy) (Override, error)
}

// Noop never overrides the command.
type Noop struct{}

func (Noop) Resolve(context.Context, config.Policy) (Override, error) {
	return NoOverride{}, nil
}

// Chain asks each installer in turn and returns the first override.
type Chain []Installer

func (c Chain) Resolve(ctx context.Context, policy config.Policy) (Override, error) {
	for _, installer := range c {
		o, err := installer.Resolve(ctx, policy)
		if err != nil {
			return nil, err
		}
		if _, none := o.(NoOverride); !none {
			return o, nil
		}
	}
	return NoOverride{}, nil
}
