package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// detectShell guesses the shell from $SHELL, falling back to bash.
func detectShell() string {
	name := strings.ToLower(filepath.Base(os.Getenv("SHELL")))
	switch {
	case strings.Contains(name, "fish"):
		return "fish"
	case strings.Contains(name, "zsh"):
		return "zsh"
	case strings.Contains(name, "pwsh"), strings.Contains(name, "powershell"):
		return "powershell"
	}
	return "bash"
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for ldmx-batch.

If no shell is given it is taken from $SHELL.

Bash:
  $ source <(ldmx-batch completion bash)

Zsh:
  $ ldmx-batch completion zsh > "${fpath[1]}/_ldmx-batch"

Fish:
  $ ldmx-batch completion fish > ~/.config/fish/completions/ldmx-batch.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) > 0 {
			shell = args[0]
		}

		out := cmd.OutOrStdout()
		switch shell {
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		default:
			return cmd.Root().GenBashCompletionV2(out, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
