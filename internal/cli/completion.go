package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for nmcanvas.

Refs ("model", "snapshot:<hash>" and JSON files) complete dynamically, so
snapshot hashes come from the configured backend.`,
		Example: `  source <(nmcanvas completion bash)
  nmcanvas completion zsh > "${fpath[1]}/_nmcanvas"
  nmcanvas completion fish > ~/.config/fish/completions/nmcanvas.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeRefs offers "model", the stored snapshots and JSON files for ref
// arguments. maxArgs bounds how many refs the command accepts.
func (c *CLI) completeRefs(maxArgs int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= maxArgs {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		refs := []string{canvas.RefModel + "\tthe configured model file"}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if c.Config != nil || c.loadConfig(cmd, args) == nil {
			if contract, err := c.newContract(ctx); err == nil {
				entries, _ := contract.Snapshots.List(ctx)
				contract.Snapshots.Close()
				for _, e := range entries {
					refs = append(refs, snapshot.RefPrefix+e.Short()+"\t"+e.CreatedAt.Format(time.DateTime))
				}
			}
		}

		// Default lets the shell fall back to file names for path refs.
		return refs, cobra.ShellCompDirectiveDefault
	}
}
