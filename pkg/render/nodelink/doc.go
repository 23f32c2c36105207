// Package nodelink renders canonical graphs as node-link diagrams.
//
// # Overview
//
// Nodes appear as boxes colored by kind (route, service, backend, policy,
// transform) and edges as labeled arrows. Rendering happens in-process via
// Graphviz.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Diff Overlay
//
// Passing the result of diff.Diff in [Options].Changes highlights the change
// set: added entities are drawn green, updated ones orange. Entities removed
// since [Options].Base are drawn dashed and red, so a single picture shows
// both sides of the diff:
//
//	changes := diff.Diff(base, head)
//	dot := nodelink.ToDOT(head, nodelink.Options{Changes: changes, Base: base})
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for SVG rendering. PDF and
// PNG conversion requires librsvg (rsvg-convert).
package nodelink
