package cli

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/graph"
)

type diffFlags struct {
	details     bool
	asJSON      bool
	interactive bool
	only        []string
}

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	var f diffFlags

	cmd := &cobra.Command{
		Use:   "diff <base> [head]",
		Short: "Show the structural changes between two documents",
		Long: `Compare two canonical graph documents by entity ID.

Each ref is "model", a snapshot ("snapshot:<hash>", abbreviations allowed) or a
path to a JSON file. The head defaults to the model. Changes are listed nodes
first, then edges: additions and updates in head order, then removals in base
order.`,
		Example: `  nmcanvas diff snapshot:3f2a
  nmcanvas diff before.json after.json --details
  nmcanvas diff snapshot:3f2a model --only node-added,node-removed --json`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeRefs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			baseRef, headRef := args[0], canvas.RefModel
			if len(args) == 2 {
				headRef = args[1]
			}

			base, head, err := loadPair(ctx, contract, baseRef, headRef)
			if err != nil {
				return err
			}

			changes := contract.GetDiffWithOptions(ctx, base, head, diff.Options{Details: f.details || f.interactive})
			if len(f.only) > 0 {
				types := make([]diff.Type, len(f.only))
				for i, t := range f.only {
					types[i] = diff.Type(t)
				}
				changes = diff.Filter(changes, types...)
			}

			switch {
			case f.asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(changes)
			case f.interactive:
				_, err := tea.NewProgram(newDiffModel(baseRef, headRef, changes), tea.WithContext(ctx)).Run()
				return err
			default:
				printInfo("%s %s %s", baseRef, iconArrow, headRef)
				printChanges(changes)
				printSummary(changes)
				return nil
			}
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.details, "details", "d", false, "show field-level changes for updates")
	flags.BoolVar(&f.asJSON, "json", false, "print changes as JSON")
	flags.BoolVarP(&f.interactive, "interactive", "i", false, "browse changes interactively")
	flags.StringSliceVar(&f.only, "only", nil, "only show these change types (e.g. node-added,edge-removed)")
	return cmd
}

// loadPair loads and validates two refs concurrently.
func loadPair(ctx context.Context, contract *canvas.Contract, baseRef, headRef string) (base, head *graph.Graph, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, err = contract.LoadRef(ctx, baseRef)
		return err
	})
	g.Go(func() error {
		var err error
		head, err = contract.LoadRef(ctx, headRef)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return base, head, nil
}
