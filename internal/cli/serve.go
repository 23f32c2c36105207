package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model over HTTP",
		Long: `Expose load, save and diff over a JSON HTTP API.

  GET  /healthz
  GET  /graph
  GET  /graph/dot
  POST /graph/operations   (?dry_run=true to preview)
  POST /graph/diff         {"base": "snapshot:<hash>", "head": "model"}
  GET  /snapshots
  GET  /snapshots/{hash}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return server.New(contract, c.Logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (overrides config)")
	return cmd
}
