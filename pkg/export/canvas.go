package export

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/route"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

const canvasCSS = `
    .frame { fill: none; stroke: #bbb; stroke-dasharray: 6 4; }
    .frame-label { font: 12px sans-serif; fill: #888; }
    .node { fill: #fff; stroke: #333; stroke-width: 1.5; rx: 6; }
    .node.orphan { stroke-dasharray: 5 3; fill: #f4f4f4; }
    .node-label { font: bold 13px sans-serif; fill: #222; }
    .field { font: 11px monospace; fill: #555; }
    .wire { fill: none; stroke: #4a7bd0; stroke-width: 2; }
    .wire.branch { stroke: #d08a4a; }`

// CanvasOptions configures [CanvasSVG].
type CanvasOptions struct {
	// Padding surrounds the drawing on every side.
	Padding float64
	// Fields prints each visible input row below the node label.
	Fields bool
}

// CanvasSVG draws a computed layout as SVG: workflow frames, node boxes and
// the routed wires of every connection in t. The drawing uses the layout's
// own coordinates, so it matches what the canvas shows at zoom 1.
func CanvasSVG(t *tree.Tree, l *layout.Layout, opts CanvasOptions) []byte {
	bounds := l.Bounds()
	pad := opts.Padding
	w, h := bounds.W+2*pad, bounds.H+2*pad

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		bounds.X-pad, bounds.Y-pad, w, h, w, h)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", canvasCSS)

	for _, f := range l.Frames {
		if f.Rect.Empty() {
			continue
		}
		fmt.Fprintf(&buf, `  <rect class="frame" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			f.Rect.X, f.Rect.Y, f.Rect.W, f.Rect.H)
		fmt.Fprintf(&buf, `  <text class="frame-label" x="%.1f" y="%.1f">%s</text>`+"\n",
			f.Rect.X, f.Rect.Y-4, escapeXML(f.Workflow))
	}

	if t != nil {
		reg := slots.NewRegistry()
		layout.Populate(reg, l, layout.Identity())
		for _, c := range t.Connections() {
			from := route.Slot(c.From, slots.Output)
			class := "wire"
			if c.Branch != "" {
				from = route.Slot(c.From, slots.BranchPort(c.Branch))
				class = "wire branch"
			}
			curve, ok := route.Wire(reg, from, route.Slot(c.To, slots.Input))
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, `  <path class="%s" data-from="%s" data-to="%s" d="%s"/>`+"\n",
				class, escapeXML(c.From), escapeXML(c.To), curve.Path())
		}
	}

	for _, b := range l.Boxes {
		class := "node"
		if b.Orphan {
			class = "node orphan"
		}
		r := b.Rect
		fmt.Fprintf(&buf, `  <rect id="node-%s" class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>`+"\n",
			escapeXML(b.NodeID), class, r.X, r.Y, r.W, r.H)
		fmt.Fprintf(&buf, `  <text class="node-label" x="%.1f" y="%.1f">%s</text>`+"\n",
			r.X+10, r.Y+20, escapeXML(b.Opcode))
		if !opts.Fields {
			continue
		}
		for i, key := range b.Fields {
			y := r.Y + l.Options.BaseHeight + l.Options.RowHeight*(float64(i)+0.5) + 4
			fmt.Fprintf(&buf, `  <text class="field" x="%.1f" y="%.1f">%s</text>`+"\n",
				r.X+10, y, escapeXML(key))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
