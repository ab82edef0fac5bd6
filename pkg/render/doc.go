// Package render converts positioned graphs into image formats.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage writes a graph with its computed positions as
// Graphviz DOT, pinning every node so Graphviz only draws what the force
// layout placed.
//
// [nodelink]: github.com/matzehuels/forcelayout/pkg/render/nodelink
package render
