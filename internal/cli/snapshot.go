package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snapshots"},
		Short:   "Inspect the snapshot history",
		Long: `Every save records the document before and after the batch as a
content-addressed snapshot. Snapshots can be used wherever a ref is accepted
as "snapshot:<hash>"; any unambiguous prefix of at least 4 characters works.`,
	}

	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotPathCommand())
	cmd.AddCommand(c.snapshotClearCommand())

	return cmd
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			entries, err := contract.Snapshots.List(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			if asJSON {
				if entries == nil {
					entries = []snapshot.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				printInfo("No snapshots (%s backend)", canvas.Backend(contract.Snapshots))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					StyleValue.Render(e.Short()),
					StyleDim.Render(fmt.Sprintf("%8s", formatSize(e.Size))),
					StyleDim.Render(formatRelativeTime(e.CreatedAt, time.Now())))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show at most this many snapshots")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func (c *CLI) snapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <hash>",
		Short: "Print a snapshot document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			ref := args[0]
			if _, ok := snapshot.ParseRef(ref); !ok {
				ref = snapshot.RefPrefix + ref
			}
			g, err := contract.LoadRef(ctx, ref)
			if err != nil {
				return err
			}
			return graph.WriteGraph(g, out)
		},
	}
}

func (c *CLI) snapshotPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the snapshot directory of the file backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.Config.SnapshotDir()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve snapshot directory")
			}
			fmt.Fprintln(out, dir)
			return nil
		},
	}
}

func (c *CLI) snapshotClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			entries, err := contract.Snapshots.List(ctx)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No snapshots to clear")
				return nil
			}

			count := 0
			for _, e := range entries {
				if err := contract.Snapshots.Delete(ctx, e.Hash); err != nil {
					return err
				}
				count++
			}
			printSuccess("Cleared %d snapshots", count)
			printDetail("Backend: %s", canvas.Backend(contract.Snapshots))
			return nil
		},
	}
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
