package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nmcanvas/pkg/diff"
	"github.com/matzehuels/nmcanvas/pkg/graph"
	"github.com/matzehuels/nmcanvas/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds kind and metadata to node labels.
	// When false, nodes show their label (or ID when the label is empty).
	Detailed bool

	// Changes highlights a diff on top of the diagram.
	Changes []diff.Result

	// Base supplies removed entities for the overlay. Without it, removals
	// in Changes are not drawn.
	Base *graph.Graph

	// Direction is the Graphviz rankdir. Defaults to "LR".
	Direction string
}

var kindColors = map[graph.NodeKind]string{
	graph.NodeKindRoute:     "#dbeafe",
	graph.NodeKindService:   "#dcfce7",
	graph.NodeKindBackend:   "#fef9c3",
	graph.NodeKindPolicy:    "#fce7f3",
	graph.NodeKindTransform: "#ede9fe",
}

const (
	colorAdded   = "#16a34a"
	colorUpdated = "#ea580c"
	colorRemoved = "#dc2626"
)

type mark int

const (
	unchanged mark = iota
	added
	updated
	removed
)

// overlay indexes a change set by entity kind and ID.
type overlay struct {
	nodes map[string]mark
	edges map[string]mark
}

func newOverlay(changes []diff.Result) overlay {
	o := overlay{nodes: map[string]mark{}, edges: map[string]mark{}}
	for _, c := range changes {
		switch c.Type {
		case diff.NodeAdded:
			o.nodes[c.ID] = added
		case diff.NodeUpdated:
			o.nodes[c.ID] = updated
		case diff.NodeRemoved:
			o.nodes[c.ID] = removed
		case diff.EdgeAdded:
			o.edges[c.ID] = added
		case diff.EdgeUpdated:
			o.edges[c.ID] = updated
		case diff.EdgeRemoved:
			o.edges[c.ID] = removed
		}
	}
	return o
}

// ToDOT converts a graph to Graphviz DOT source.
// The result can be rendered with [RenderSVG], [RenderPDF] or [RenderPNG].
func ToDOT(g *graph.Graph, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = "LR"
	}
	o := newOverlay(opts.Changes)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10, color=\"#475569\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	if g != nil {
		for _, n := range g.Nodes {
			writeNode(&buf, n, o.nodes[n.ID], opts.Detailed)
		}
	}
	for _, n := range removedNodes(opts.Base, o) {
		writeNode(&buf, n, removed, opts.Detailed)
	}

	buf.WriteString("\n")
	if g != nil {
		for _, e := range g.Edges {
			writeEdge(&buf, e, o.edges[e.ID])
		}
	}
	for _, e := range removedEdges(opts.Base, o) {
		writeEdge(&buf, e, removed)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, n graph.Node, m mark, detailed bool) {
	fmt.Fprintf(buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, m, detailed), ", "))
}

func writeEdge(buf *bytes.Buffer, e graph.Edge, m mark) {
	attrs := []string{fmt.Sprintf("label=%q", string(e.Kind))}
	attrs = append(attrs, markAttrs(m, false)...)
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
}

func nodeAttrs(n graph.Node, m mark, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if fill, ok := kindColors[n.Kind]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	return append(attrs, markAttrs(m, true)...)
}

func markAttrs(m mark, node bool) []string {
	var color string
	switch m {
	case added:
		color = colorAdded
	case updated:
		color = colorUpdated
	case removed:
		color = colorRemoved
	default:
		return nil
	}
	attrs := []string{fmt.Sprintf("color=%q", color), "penwidth=2"}
	if m == removed {
		if node {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fontcolor=\"#991b1b\"")
		} else {
			attrs = append(attrs, "style=dashed")
		}
	}
	return attrs
}

func fmtLabel(n graph.Node, detailed bool) string {
	title := n.Label
	if title == "" {
		title = n.ID
	}
	if !detailed {
		return title
	}

	parts := []string{fmt.Sprintf("%s (%s)", n.ID, n.Kind)}
	for _, k := range slices.Sorted(maps.Keys(n.Metadata)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Metadata[k]))
	}
	return title + "\n" + strings.Join(parts, "\n")
}

func removedNodes(base *graph.Graph, o overlay) []graph.Node {
	if base == nil {
		return nil
	}
	ix := graph.NodeIndex(base)
	var out []graph.Node
	for _, id := range ix.IDs() {
		if o.nodes[id] == removed {
			n, _ := ix.Get(id)
			out = append(out, n)
		}
	}
	return out
}

func removedEdges(base *graph.Graph, o overlay) []graph.Edge {
	if base == nil {
		return nil
	}
	ix := graph.EdgeIndex(base)
	var out []graph.Edge
	for _, id := range ix.IDs() {
		if o.edges[id] == removed {
			e, _ := ix.Get(id)
			out = append(out, e)
		}
	}
	return out
}

// RenderSVG renders DOT source to SVG using Graphviz.
// Returns the SVG bytes ready for display or conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales from
// the origin with explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF via SVG.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders DOT source as PNG via SVG at the given scale.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
