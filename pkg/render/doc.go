// Package render turns a group graph into Graphviz DOT, SVG, PDF or PNG.
//
// # Usage
//
// Convert a DAG to DOT, then render it with the embedded Graphviz:
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// PDF and PNG go through SVG and the external rsvg-convert tool (librsvg):
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// Groups are drawn as rounded boxes, extras as dashed boxes and packages as
// plain ellipses. Rows assigned by [dag.DAG.AssignLayers] become DOT ranks so
// that groups sit above the packages they require.
package render
