package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/adapt"
	"github.com/matzehuels/orrery/pkg/reintegrate"
	"github.com/matzehuels/orrery/pkg/render"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for orrery.

Bash:
  $ source <(orrery completion bash)

Zsh:
  $ orrery completion zsh > "${fpath[1]}/_orrery"

Fish:
  $ orrery completion fish | source

PowerShell:
  PS> orrery completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// registerValueCompletions completes the values of the strategy and format
// flags that cmd defines.
func registerValueCompletions(cmd *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	completions := map[string][]string{
		"adaptation":    adapt.Names(),
		"reintegration": {reintegrate.NameFairShare, reintegrate.NameCone},
		"format":        {string(render.FormatSVG), string(render.FormatPNG), string(render.FormatDOT)},
	}
	for flag, values := range completions {
		if cmd.Flags().Lookup(flag) != nil {
			_ = cmd.RegisterFlagCompletionFunc(flag, fixed(values...))
		}
	}
}
