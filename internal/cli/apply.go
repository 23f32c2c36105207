package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/ops"
	"github.com/matzehuels/nmcanvas/pkg/snapshot"
)

type applyFlags struct {
	dryRun    bool
	strict    bool
	checkRefs bool
	details   bool
	format    string
	asJSON    bool
}

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var f applyFlags

	cmd := &cobra.Command{
		Use:   "apply <batch-file|->",
		Short: "Apply an operation batch to the model",
		Long: `Apply a batch of operations to the canonical model and save the result.

The batch is a JSON or YAML array of {type, payload} entries, where type is one
of addNode, removeNode, updateNode, addEdge, removeEdge or updateEdge. Use "-"
to read the batch from stdin.

Operations run in order. Unknown operation types are skipped with a warning.
If any operation fails, nothing is written.`,
		Example: `  nmcanvas apply changes.yaml
  nmcanvas apply changes.json --dry-run --details
  cat changes.json | nmcanvas apply - --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			batch, err := readBatch(cmd, args[0], f.format)
			if err != nil {
				return err
			}

			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			if cmd.Flags().Changed("strict") {
				contract.Options.Strict = f.strict
			}
			if cmd.Flags().Changed("check-refs") {
				contract.Options.CheckReferences = f.checkRefs
			}
			contract.Options.Details = f.details

			prog := newProgress(loggerFromContext(ctx))
			var res *canvas.SaveResult
			if f.dryRun {
				res, err = contract.Preview(ctx, batch)
			} else {
				res, err = contract.SaveModel(ctx, batch)
			}
			if err != nil {
				if res != nil {
					printError("Batch failed at operation %d of %d, model not written", res.Report.Processed+1, len(batch))
				}
				return err
			}
			prog.done("batch applied", "operations", res.Report.Total(), "changes", len(res.Changes))

			if f.asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printApplyResult(res, contract.Store.Location(), f.dryRun)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "show the changes without writing the model")
	flags.BoolVar(&f.strict, "strict", false, "reject additions whose ID already exists")
	flags.BoolVar(&f.checkRefs, "check-refs", false, "warn about edges that reference missing nodes")
	flags.BoolVar(&f.details, "details", false, "show field-level changes")
	flags.StringVarP(&f.format, "format", "f", "", "batch format for stdin: json or yaml (default: from extension)")
	flags.BoolVar(&f.asJSON, "json", false, "print the save result as JSON")
	return cmd
}

// readBatch reads a batch from path, or from stdin when path is "-".
func readBatch(cmd *cobra.Command, path, format string) ([]ops.Operation, error) {
	if path != "-" {
		if format == "" {
			return ops.ReadBatchFile(path)
		}
		return readBatchFile(path, ops.Format(format))
	}
	switch f := ops.Format(format); f {
	case "", ops.FormatJSON:
		return ops.DecodeBatch(cmd.InOrStdin(), ops.FormatJSON)
	case ops.FormatYAML:
		return ops.DecodeBatch(cmd.InOrStdin(), ops.FormatYAML)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown batch format %q (want json or yaml)", format)
	}
}

func readBatchFile(path string, format ops.Format) ([]ops.Operation, error) {
	if format != ops.FormatJSON && format != ops.FormatYAML {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown batch format %q (want json or yaml)", format)
	}
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ops.DecodeBatch(f, format)
}

func printApplyResult(res *canvas.SaveResult, location string, dryRun bool) {
	if dryRun {
		printInfo("Dry run: %d operations, %s not written", res.Report.Total(), location)
	} else {
		printSuccess("Applied %d operations to %s", res.Report.Total(), location)
	}
	printStats(res.Graph.NodeCount(), res.Graph.EdgeCount())
	printWarnings(res.Report.Warnings)
	if n := len(res.Report.Misses); n > 0 {
		printDetail("%d updates or removals matched nothing (operations %v)", n, res.Report.Misses)
	}

	printNewline()
	printChanges(res.Changes)
	printSummary(res.Changes)

	if res.Base.Hash != "" {
		printNewline()
		printKeyValue("snapshot", res.Head.Short())
		printNextStep("Compare with the previous version", "nmcanvas diff "+snapshot.RefPrefix+res.Base.Short())
	}
}
