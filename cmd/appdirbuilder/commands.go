package appdirbuilder

import (
	"fmt"

	"github.com/arthur-debert/appdirbuilder/internal/version"
	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/digest"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/utils"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest <dir>",
		Short: MsgDigestShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := utils.CanonicalOrAbs(args[0])
			d, err := digest.Tree(filesystem.NewOS(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), MsgDigestLine, d, dir)
			return nil
		},
	}
}

func newPolicyCmd(flags *buildFlags) *cobra.Command {
	var template, ini bool

	cmd := &cobra.Command{
		Use:   "policy",
		Short: MsgPolicyShort,
		Long:  MsgPolicyLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if template {
				content, err := config.GenerateTemplate()
				if err != nil {
					return err
				}
				fmt.Fprint(out, content)
				return nil
			}

			policy, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf(MsgErrLoadPolicy, err)
			}
			if ini {
				fmt.Fprint(out, config.RenderINI(policy))
				return nil
			}

			data, err := config.MarshalTOML(policy)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&template, "template", false, MsgFlagTemplate)
	cmd.Flags().BoolVar(&ini, "ini", false, MsgFlagINI)
	cmd.MarkFlagsMutuallyExclusive("template", "ini")
	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
