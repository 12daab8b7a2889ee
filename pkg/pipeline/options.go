package pipeline

import (
	"context"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/exclude"
	"github.com/arthur-debert/appdirbuilder/pkg/runtime"
	"github.com/arthur-debert/appdirbuilder/pkg/trace"
)

// Tracer produces the raw trace log of a command.
type Tracer interface {
	Trace(ctx context.Context, cmd trace.Command) ([]byte, error)
}

// Options parameterize a build.
type Options struct {
	// AppDir is created when missing.
	AppDir string
	// WorkDir decides which traced files are application-local.
	WorkDir string

	Executable string
	Args       []string

	// Clean removes the AppDir before building.
	Clean bool

	// TraceLog replays a recorded log instead of running the tracer.
	TraceLog string
	// SaveTrace archives the raw log, zstd compressed for a .zst name.
	SaveTrace string
	// EnvFile is a dotenv file applied on top of the tracer environment.
	EnvFile string
	// Env is the base environment of the traced program. Nil means the
	// environment of this process.
	Env []string

	Policy    config.Policy
	Tracer    Tracer
	Source    exclude.Source
	Installer runtime.Installer

	// OnStage is called with the file counts of each stage as it finishes.
	OnStage StageFunc
}

// StageFunc receives the name and file counts of a finished stage.
type StageFunc func(stage string, counts map[string]int)

func (o Options) withDefaults() Options {
	if o.Tracer == nil {
		o.Tracer = trace.NewTracer(trace.DefaultBinary)
	}
	if o.Source == nil {
		o.Source = exclude.NewHTTPSource("")
	}
	if o.Installer == nil {
		o.Installer = runtime.Noop{}
	}
	if o.WorkDir == "" {
		o.WorkDir = "."
	}
	return o
}
