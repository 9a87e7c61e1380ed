// Package export renders workflow trees outside the interactive canvas.
//
// [ToDOT] produces Graphviz DOT with one cluster per workflow, which
// [RenderSVG] lays out in-process through go-graphviz:
//
//	dot := export.ToDOT(t, export.Options{Detailed: true})
//	svg, err := export.RenderSVG(ctx, dot)
//
// [CanvasSVG] instead draws the editor's own layout, boxes at their
// computed positions and wires routed exactly like the canvas routes them.
// [ToPDF] and [ToPNG] convert either SVG through rsvg-convert.
package export
