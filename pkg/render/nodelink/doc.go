// Package nodelink renders laid-out graphs as node-link diagrams.
//
// # Overview
//
// Positions come from the force layout, not from Graphviz. [ToDOT] writes
// each node with a pinned pos attribute ("x,y!") and [RenderSVG] runs the
// neato engine, which honours pinned nodes and only routes edges.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0) // 2x scale
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
