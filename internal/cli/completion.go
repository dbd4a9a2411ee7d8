package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
// Group arguments of other commands complete from the manifest through
// [CLI.completeGroups].
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for groupsync.

To load completions:

Bash:
  $ source <(groupsync completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ groupsync completion bash > /etc/bash_completion.d/groupsync
  # macOS:
  $ groupsync completion bash > $(brew --prefix)/etc/bash_completion.d/groupsync

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ groupsync completion zsh > "${fpath[1]}/_groupsync"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ groupsync completion fish | source

  # To load completions for each session, execute once:
  $ groupsync completion fish > ~/.config/fish/completions/groupsync.fish

PowerShell:
  PS> groupsync completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> groupsync completion powershell > groupsync.ps1
  # and source this file from your PowerShell profile.
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

	return cmd
}

// completeGroups completes group names declared in the project manifest.
func (c *CLI) completeGroups(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	_, m, err := c.loadManifest(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range m.GroupNames() {
		if !slices.Contains(args, name) && strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
