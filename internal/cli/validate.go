package cli

import (
	"encoding/json"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/ops"
	"github.com/matzehuels/nmcanvas/pkg/schema"
)

type validateReport struct {
	Ref      string        `json:"ref"`
	Valid    bool          `json:"valid"`
	Nodes    int           `json:"nodes,omitempty"`
	Edges    int           `json:"edges,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
	Warnings []ops.Warning `json:"warnings,omitempty"`
}

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [ref]",
		Short: "Validate the model or another document against the canonical schema",
		Long: `Validate a canonical graph document against the JSON Schema.

The ref is "model" (the default), a snapshot ("snapshot:<hash>") or a path to
a JSON file. With check_refs enabled, edges whose endpoints name no node are
reported as warnings.`,
		Example: `  nmcanvas validate
  nmcanvas validate proposed.json --json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			report := validateReport{Ref: canvas.RefModel}
			if len(args) == 1 {
				report.Ref = args[0]
			}

			g, loadErr := contract.LoadRef(ctx, report.Ref)
			if loadErr == nil {
				report.Valid = true
				report.Nodes, report.Edges = g.NodeCount(), g.EdgeCount()
				if contract.Options.CheckReferences {
					report.Warnings = ops.CheckReferences(g)
				}
			} else {
				var vf *schema.ValidationFailedError
				if stderrors.As(loadErr, &vf) {
					report.Errors = vf.Details()
				}
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				return loadErr
			}

			if loadErr != nil {
				printError("%s is not a valid canonical graph", report.Ref)
				for _, line := range report.Errors {
					printDetail("%s", line)
				}
				return loadErr
			}
			printSuccess("%s is valid", report.Ref)
			printStats(report.Nodes, report.Edges)
			printWarnings(report.Warnings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
