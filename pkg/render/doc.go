// Package render turns canonical graphs into pictures.
//
// The [nodelink] subpackage draws the topology as a Graphviz node-link
// diagram, optionally overlaid with a diff. This package holds the format
// conversion shared by renderers: [ToPDF] and [ToPNG] shell out to
// rsvg-convert (from librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//
// [nodelink]: github.com/matzehuels/nmcanvas/pkg/render/nodelink
package render
