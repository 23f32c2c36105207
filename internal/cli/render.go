package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nmcanvas/pkg/canvas"
	"github.com/matzehuels/nmcanvas/pkg/errors"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/render/nodelink"
)

// Output formats for the render command.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

type renderFlags struct {
	output    string
	format    string
	detailed  bool
	diffBase  string
	direction string
	scale     float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [ref]",
		Short: "Draw a document as a node-link diagram",
		Long: `Render a canonical graph (the model by default) with Graphviz.

With --diff-base, the diagram highlights what changed since the base document:
additions in green, updates in orange and removals dashed in red.

PDF and PNG output requires librsvg (rsvg-convert).`,
		Example: `  nmcanvas render -o topology.svg
  nmcanvas render --diff-base snapshot:3f2a -o changes.png --scale 2
  nmcanvas render proposed.json --format dot | dot -Tsvg > out.svg`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeRefs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := resolveRenderFormat(f.format, f.output)
			if err != nil {
				return err
			}

			contract, err := c.newContract(ctx)
			if err != nil {
				return err
			}
			defer contract.Snapshots.Close()

			ref := canvas.RefModel
			if len(args) == 1 {
				ref = args[0]
			}

			var base, head *graph.Graph
			if f.diffBase != "" {
				base, head, err = loadPair(ctx, contract, f.diffBase, ref)
			} else {
				head, err = contract.LoadRef(ctx, ref)
			}
			if err != nil {
				return err
			}

			opts := nodelink.Options{Detailed: f.detailed, Direction: f.direction}
			if base != nil {
				opts.Base = base
				opts.Changes = contract.GetDiff(ctx, base, head)
			}

			dot := nodelink.ToDOT(head, opts)
			data, err := renderDOT(dot, format, f.scale)
			if err != nil {
				return err
			}
			if err := writeOutput(f.output, data); err != nil {
				return err
			}
			if f.output != "" && f.output != "-" {
				printSuccess("Rendered %s", ref)
				printFile(f.output)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	flags.StringVar(&f.format, "format", "", "output format: dot, svg, pdf or png (default: from extension, else svg)")
	flags.BoolVar(&f.detailed, "detailed", false, "include kind and metadata in node labels")
	flags.StringVar(&f.diffBase, "diff-base", "", "highlight changes since this ref")
	flags.StringVar(&f.direction, "direction", "LR", "layout direction: LR, TB, RL or BT")
	flags.Float64Var(&f.scale, "scale", 2, "PNG scale factor")

	_ = cmd.RegisterFlagCompletionFunc("diff-base", c.completeRefs(1))
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{formatDOT, formatSVG, formatPDF, formatPNG}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// resolveRenderFormat picks the output format from the flag or the output
// file extension.
func resolveRenderFormat(format, output string) (string, error) {
	if format == "" {
		switch ext := strings.ToLower(filepath.Ext(output)); ext {
		case "":
			format = formatSVG
		case ".gv":
			format = formatDOT
		default:
			format = strings.TrimPrefix(ext, ".")
		}
	}
	switch format {
	case formatDOT, formatSVG, formatPDF, formatPNG:
		return format, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported render format %q (want dot, svg, pdf or png)", format)
	}
}

func renderDOT(dot, format string, scale float64) ([]byte, error) {
	if format == formatDOT {
		return []byte(dot), nil
	}

	spinner := newSpinner("Rendering " + format)
	spinner.Start()
	defer spinner.Stop()

	switch format {
	case formatPDF:
		return nodelink.RenderPDF(dot)
	case formatPNG:
		return nodelink.RenderPNG(dot, scale)
	default:
		return nodelink.RenderSVG(dot)
	}
}
