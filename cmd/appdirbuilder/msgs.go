package appdirbuilder

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Build a relocatable AppDir from a traced executable"
	MsgVersionShort    = "Print version information"
	MsgDigestShort     = "Print the BLAKE3 tree digest of a directory"
	MsgPolicyShort     = "Print the effective build policy"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgBuildDone     = "AppDir ready: %s\n"
	MsgReportWritten = "Report written to %s\n"
	MsgDigestLine    = "%s  %s\n"
	MsgStageLine     = "%-12s %s"
	MsgVersionFormat = "appdir-builder version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrLoadPolicy  = "failed to load policy: %w"
	MsgErrRenderTable = "failed to render summary: %w"

	// Flag descriptions
	MsgFlagVerbose       = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig        = "Policy file"
	MsgFlagAppDir        = "AppDir to build"
	MsgFlagWorkDir       = "Working directory, files below it are application files (default: current directory)"
	MsgFlagTracer        = "Syscall tracer to run"
	MsgFlagBlacklistURL  = "URL of the library blacklist"
	MsgFlagBlacklistFile = "Read the library blacklist from a file instead of the network"
	MsgFlagTraceLog      = "Replay a recorded trace log (plain or .zst) instead of tracing"
	MsgFlagSaveTrace     = "Archive the raw trace log, zstd compressed for a .zst name"
	MsgFlagEnvFile       = "dotenv file with variables for the traced program"
	MsgFlagReport        = "Write a YAML build report"
	MsgFlagClean         = "Remove the AppDir before building"
	MsgFlagTemplate      = "Print a commented policy file template"
	MsgFlagINI           = "Print the policy in the policy file format"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/root-example.txt
	msgRootExampleRaw string
	MsgRootExample    = strings.TrimRight(msgRootExampleRaw, "\n")

	//go:embed msgs/policy-long.txt
	msgPolicyLongRaw string
	MsgPolicyLong    = strings.TrimSpace(msgPolicyLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw) + "\n"
)
