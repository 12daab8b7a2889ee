package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/appdir"
	"github.com/arthur-debert/appdirbuilder/pkg/classify"
	"github.com/arthur-debert/appdirbuilder/pkg/digest"
	"github.com/arthur-debert/appdirbuilder/pkg/emit"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/exclude"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
	"github.com/arthur-debert/appdirbuilder/pkg/runtime"
	"github.com/arthur-debert/appdirbuilder/pkg/trace"
	"github.com/arthur-debert/appdirbuilder/pkg/utils"
	"github.com/rs/zerolog"
)

// Builder runs builds against the host filesystem.
type Builder struct {
	logger zerolog.Logger
	fs     filesystem.FS
}

// New returns a builder.
func New() *Builder {
	return &Builder{
		logger: logging.GetLogger("pipeline"),
		fs:     filesystem.NewOS(),
	}
}

// build carries the state shared between stages.
type build struct {
	opts     Options
	appDir   string
	workDir  string
	override runtime.Override
	command  trace.Command
	env      []string
	appLocal []string
	external []string
	execDest string
	report   *Report
}

// Run builds the AppDir described by opts.
func (b *Builder) Run(ctx context.Context, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	done := logging.LogOperationStart(b.logger, "build")
	defer done()

	st := &build{opts: opts, report: &Report{}}

	if err := b.prepare(st); err != nil {
		return nil, err
	}
	if err := b.resolveCommand(ctx, st); err != nil {
		return nil, err
	}

	log, err := b.obtainTrace(ctx, st)
	if err != nil {
		return nil, err
	}

	existing, err := b.collect(ctx, st, log)
	if err != nil {
		return nil, err
	}

	if err := b.reconcile(st, existing); err != nil {
		return nil, err
	}
	if err := b.finish(ctx, st); err != nil {
		return nil, err
	}

	d, err := digest.Tree(b.fs, st.appDir)
	if err != nil {
		return nil, err
	}
	st.report.Digest = d.String()

	b.logger.Info().Str("appDir", st.appDir).Str("digest", st.report.Digest).Msg("AppDir built")
	return st.report, nil
}

// prepare creates the AppDir and canonicalizes the directories.
func (b *Builder) prepare(st *build) error {
	workDir, err := utils.Canonical(st.opts.WorkDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "working directory %s is not accessible", st.opts.WorkDir)
	}
	if info, err := os.Stat(workDir); err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "working directory %s is not a directory", workDir)
	}

	if st.opts.AppDir == "" {
		return errors.New(errors.ErrInvalidInput, "no AppDir given")
	}
	appDir := utils.CanonicalOrAbs(st.opts.AppDir)
	if appDir == string(filepath.Separator) || utils.IsWithin(workDir, appDir) {
		return errors.Newf(errors.ErrInvalidInput, "refusing to use %s as AppDir", appDir).
			WithDetail("workDir", workDir)
	}

	if st.opts.Clean {
		b.logger.Info().Str("appDir", appDir).Msg("Removing AppDir")
		if err := b.fs.RemoveAll(appDir); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot remove %s", appDir)
		}
	}
	if err := b.fs.MkdirAll(appDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", appDir)
	}
	if appDir, err = utils.Canonical(appDir); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot resolve %s", st.opts.AppDir)
	}

	st.appDir = appDir
	st.workDir = workDir
	st.report.AppDir = appDir
	st.report.WorkDir = workDir
	return nil
}

// resolveCommand asks the runtime installer for an override and settles
// what is traced and with which environment.
func (b *Builder) resolveCommand(ctx context.Context, st *build) error {
	override, err := st.opts.Installer.Resolve(ctx, st.opts.Policy)
	if err != nil {
		return err
	}
	st.override = override

	base := st.opts.Env
	if base == nil {
		base = os.Environ()
	}
	var overlays []map[string]string
	if o, ok := override.(runtime.CommandOverride); ok {
		overlays = append(overlays, o.Env)
	}
	if st.opts.EnvFile != "" {
		fileEnv, err := trace.LoadEnvFile(st.opts.EnvFile)
		if err != nil {
			return err
		}
		overlays = append(overlays, fileEnv)
	}
	st.env = trace.MergeEnv(base, overlays...)

	switch o := override.(type) {
	case runtime.CommandOverride:
		if st.opts.Executable != "" {
			b.logger.Warn().Str("executable", st.opts.Executable).Msg("Runtime override replaces the command line executable")
		}
		args := append(append([]string(nil), o.Args...), st.opts.Args...)
		st.command = trace.Command{Path: o.Executable, Args: args, Env: st.env}
	default:
		if st.opts.Executable == "" {
			return errors.New(errors.ErrNoExecutable, "no executable to trace")
		}
		executable, err := emit.ResolveExecutable(st.opts.Executable, lookupEnv(st.env, "PATH"))
		if err != nil {
			return err
		}
		st.command = trace.Command{Path: executable, Args: append([]string(nil), st.opts.Args...), Env: st.env}
	}

	st.report.Executable = st.command.Path
	st.report.Command = append([]string{st.command.Path}, st.command.Args...)
	return nil
}

func (b *Builder) obtainTrace(ctx context.Context, st *build) ([]byte, error) {
	var log []byte
	var err error
	if st.opts.TraceLog != "" {
		b.logger.Info().Str("log", st.opts.TraceLog).Msg("Replaying trace log")
		log, err = trace.LoadLog(st.opts.TraceLog)
		st.report.Replayed = true
	} else {
		log, err = st.opts.Tracer.Trace(ctx, st.command)
	}
	if err != nil {
		return nil, err
	}

	if st.opts.SaveTrace != "" {
		if err := trace.SaveLog(st.opts.SaveTrace, log); err != nil {
			return nil, err
		}
		b.logger.Info().Str("path", st.opts.SaveTrace).Msg("Saved trace log")
	}
	return log, nil
}

// collect normalizes, filters, classifies and copies the traced files. It
// returns the AppDir destinations of files the trace found already inside
// the AppDir.
func (b *Builder) collect(ctx context.Context, st *build, log []byte) ([]string, error) {
	normalizer, err := trace.NewNormalizer(st.appDir)
	if err != nil {
		return nil, err
	}
	result, err := normalizer.Normalize(bytes.NewReader(log))
	if err != nil {
		return nil, err
	}
	st.report.Existing = len(result.Existing)
	st.report.Candidates = len(result.Candidates)
	b.stage(st, "normalize", map[string]int{
		"existing":   len(result.Existing),
		"candidates": len(result.Candidates),
	})

	filter, err := exclude.NewDefaultFilter(ctx, st.opts.Source)
	if err != nil {
		return nil, err
	}
	kept, excluded := filter.Apply(result.Candidates)
	for _, e := range excluded {
		st.report.Excluded = append(st.report.Excluded, Exclusion{Path: e.Path, Rule: e.Rule.String()})
	}
	b.stage(st, "filter", map[string]int{"kept": len(kept), "excluded": len(excluded)})

	files := classify.New(st.workDir).Classify(kept)
	appLocal, external := classify.Partition(files)
	st.report.AppLocal = len(appLocal)
	st.report.External = len(external)
	b.stage(st, "classify", map[string]int{"appLocal": len(appLocal), "external": len(external)})

	m := appdir.NewMaterializer(b.fs, st.appDir)
	for _, group := range [][]classify.File{appLocal, external} {
		copied, err := m.Materialize(group)
		if err != nil {
			return nil, err
		}
		for _, dest := range copied {
			st.report.Copied = append(st.report.Copied, m.HostPath(dest))
		}
	}
	b.stage(st, "materialize", map[string]int{"copied": len(st.report.Copied)})

	st.appLocal = classify.Dests(appLocal)
	st.external = classify.Dests(external)
	return b.toDests(st, result.Existing), nil
}

// reconcile prunes everything that is neither kept nor included.
func (b *Builder) reconcile(st *build, existing []string) error {
	var extras []string
	if o, ok := st.override.(runtime.CommandOverride); ok {
		extras = b.toDests(st, o.ExtraFiles)
	}

	keep := appdir.NewKeepSet(st.opts.Policy.ExcludeFragments(), existing, st.appLocal, st.external, extras)
	b.logger.Info().Int("keep", keep.Len()).Msg("Built keep set")

	result, err := appdir.NewPruner(b.fs, st.appDir).Prune(keep, st.opts.Policy.IncludeFragments())
	if err != nil {
		return err
	}
	st.report.Kept = len(result.Kept)
	st.report.Deleted = result.Deleted
	st.report.IncludedByFragment = result.IncludedByFragment
	b.stage(st, "prune", map[string]int{
		"kept":     len(result.Kept),
		"deleted":  len(result.Deleted),
		"included": len(result.IncludedByFragment),
	})
	return nil
}

// finish copies and patches the executable and writes the launcher
// artifacts.
func (b *Builder) finish(ctx context.Context, st *build) error {
	policy := st.opts.Policy
	m := appdir.NewMaterializer(b.fs, st.appDir)

	copyExecutable := true
	var extraEnv map[string]string
	if o, ok := st.override.(runtime.CommandOverride); ok {
		copyExecutable = o.CopyExecutable
		extraEnv = o.ExtraEnvVars
	}
	if copyExecutable {
		dest, err := emit.CopyExecutable(m, st.command.Path)
		if err != nil {
			return err
		}
		st.execDest = dest
		st.report.CopiedExecutable = m.HostPath(dest)
	}

	execPath := b.launcherExec(st)

	if policy.Files.PatchHardCodedBinaryPaths {
		target := emit.ExpandAppDir(execPath, st.appDir)
		n, err := emit.PatchBinary(b.fs, target)
		if err != nil {
			return err
		}
		st.report.Patched = target
		st.report.Replacements = n
	}

	artifacts, err := emit.NewEmitter(st.appDir, st.workDir).Emit(ctx, policy)
	if err != nil {
		return err
	}
	st.report.Artifacts = artifacts

	written, err := emit.WriteAppRun(b.fs, st.appDir, emit.AppRun{
		LibraryPath: policy.Runtime.LibraryPath,
		Exec:        execPath,
		ExecArgs:    policy.Runtime.ExecArgs,
		ExtraEnv:    emit.EnvVars(extraEnv),
		Chdir:       policy.Files.PatchHardCodedBinaryPaths,
	})
	if err != nil {
		return err
	}
	st.report.AppRunWritten = written
	return nil
}

// launcherExec is the program AppRun starts: the configured execPath, or
// the traced executable expressed relative to $APPDIR.
func (b *Builder) launcherExec(st *build) string {
	if execPath := st.opts.Policy.Runtime.ExecPath; execPath != "" {
		return execPath
	}
	if st.execDest != "" {
		return emit.AppDirVar + st.execDest
	}
	if rel, ok := trimAny(st.command.Path, appDirRoots(st)); ok {
		return emit.AppDirVar + filepath.ToSlash(rel)
	}
	b.logger.Warn().
		Str("executable", st.command.Path).
		Msg("Executable is outside the AppDir, set Runtime.execPath")
	return st.command.Path
}

// stage reports the file counts of a finished stage.
func (b *Builder) stage(st *build, name string, counts map[string]int) {
	logging.LogStage(b.logger, name, counts)
	if st.opts.OnStage != nil {
		st.opts.OnStage(name, counts)
	}
}

// toDests turns host paths inside the AppDir into AppDir destinations.
// The mapping is lexical so a symlink keeps its own destination instead of
// its target's. Paths may be given below the AppDir as configured or as
// canonicalized.
func (b *Builder) toDests(st *build, paths []string) []string {
	roots := appDirRoots(st)
	dests := make([]string, 0, len(paths))
	for _, p := range paths {
		dest, ok := trimAny(p, roots)
		if !ok {
			b.logger.Warn().Str("path", p).Msg("Ignoring path outside the AppDir")
			continue
		}
		dests = append(dests, filepath.ToSlash(dest))
	}
	return dests
}

// appDirRoots returns the canonical AppDir and, when it differs, the
// AppDir as it was given.
func appDirRoots(st *build) []string {
	roots := []string{st.appDir}
	if given, err := filepath.Abs(st.opts.AppDir); err == nil && given != st.appDir {
		roots = append(roots, given)
	}
	return roots
}

func trimAny(path string, roots []string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for _, root := range roots {
		if dest, ok := utils.TrimRoot(abs, root); ok {
			return dest, true
		}
	}
	return "", false
}

func lookupEnv(env []string, key string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
			return v
		}
	}
	return ""
}
