package appdirbuilder

import (
	"fmt"
	"os"

	"github.com/arthur-debert/appdirbuilder/internal/version"
	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/exclude"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
	"github.com/arthur-debert/appdirbuilder/pkg/pipeline"
	"github.com/arthur-debert/appdirbuilder/pkg/runtime"
	"github.com/arthur-debert/appdirbuilder/pkg/trace"
	"github.com/arthur-debert/appdirbuilder/pkg/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// buildFlags holds the flags of the root command.
type buildFlags struct {
	verbosity     int
	configPath    string
	appDir        string
	workDir       string
	tracer        string
	blacklistURL  string
	blacklistFile string
	traceLog      string
	saveTrace     string
	envFile       string
	report        string
	clean         bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	var flags buildFlags

	rootCmd := &cobra.Command{
		Use:     "appdir-builder [flags] <executable> [args...]",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgRootExample,
		Version: version.Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, flags, args)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Everything after the executable belongs to the traced program
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultFileName, MsgFlagConfig)

	rootCmd.Flags().StringVar(&flags.appDir, "appdir", "AppDir", MsgFlagAppDir)
	rootCmd.Flags().StringVar(&flags.workDir, "workdir", "", MsgFlagWorkDir)
	rootCmd.Flags().StringVar(&flags.tracer, "tracer", trace.DefaultBinary, MsgFlagTracer)
	rootCmd.Flags().StringVar(&flags.blacklistURL, "blacklist-url", exclude.DefaultBlacklistURL, MsgFlagBlacklistURL)
	rootCmd.Flags().StringVar(&flags.blacklistFile, "blacklist-file", "", MsgFlagBlacklistFile)
	rootCmd.Flags().StringVar(&flags.traceLog, "trace-log", "", MsgFlagTraceLog)
	rootCmd.Flags().StringVar(&flags.saveTrace, "save-trace", "", MsgFlagSaveTrace)
	rootCmd.Flags().StringVar(&flags.envFile, "env-file", "", MsgFlagEnvFile)
	rootCmd.Flags().StringVar(&flags.report, "report", "", MsgFlagReport)
	rootCmd.Flags().BoolVar(&flags.clean, "clean", false, MsgFlagClean)

	rootCmd.MarkFlagsMutuallyExclusive("blacklist-url", "blacklist-file")
	_ = rootCmd.MarkFlagFilename("config", "ini")
	_ = rootCmd.MarkFlagFilename("env-file")
	_ = rootCmd.MarkFlagFilename("trace-log")
	_ = rootCmd.MarkFlagDirname("appdir")
	_ = rootCmd.MarkFlagDirname("workdir")

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newDigestCmd())
	rootCmd.AddCommand(newPolicyCmd(&flags))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func runBuild(cmd *cobra.Command, flags buildFlags, args []string) error {
	logger := logging.GetLogger("cmd.build")

	policy, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf(MsgErrLoadPolicy, err)
	}

	if len(args) == 0 && policy.Python.Version == "" {
		return cmd.Usage()
	}

	workDir := flags.workDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return errors.Wrap(err, errors.ErrFileSystem, "cannot determine working directory")
		}
	}
	appDir := utils.CanonicalOrAbs(flags.appDir)
	workDir = utils.CanonicalOrAbs(workDir)

	var source exclude.Source = exclude.NewHTTPSource(flags.blacklistURL)
	if flags.blacklistFile != "" {
		source = exclude.FileSource{Path: flags.blacklistFile}
	}

	tracer := trace.NewTracer(flags.tracer)
	tracer.Stdin = cmd.InOrStdin()
	tracer.Stdout = cmd.OutOrStdout()

	opts := pipeline.Options{
		AppDir:    appDir,
		WorkDir:   workDir,
		Clean:     flags.clean,
		TraceLog:  flags.traceLog,
		SaveTrace: flags.saveTrace,
		EnvFile:   flags.envFile,
		Policy:    policy,
		Tracer:    tracer,
		Source:    source,
		Installer: runtime.Chain{runtime.NewPython(filesystem.NewOS(), appDir, workDir)},
		OnStage:   stagePrinter(cmd.ErrOrStderr()),
	}
	if len(args) > 0 {
		opts.Executable = args[0]
		opts.Args = args[1:]
	}

	logger.Info().
		Str("appDir", appDir).
		Str("workDir", workDir).
		Strs("command", args).
		Msg("Starting build")

	report, err := pipeline.New().Run(cmd.Context(), opts)
	if errors.IsErrorCode(err, errors.ErrNoExecutable) {
		// Nothing to run is not a failure
		return cmd.Usage()
	}
	if err != nil {
		return err
	}

	if err := printSummary(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if flags.report != "" {
		if err := pipeline.WriteReport(flags.report, report); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), MsgReportWritten, flags.report)
	}
	return nil
}
