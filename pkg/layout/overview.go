package layout

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Overview is a scaled-down projection of the canvas fitted into a frame.
//
//	frame = canvas*Scale + Offset
type Overview struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	FrameW  float64 `json:"frame_w"`
	FrameH  float64 `json:"frame_h"`

	// Bounds is the canvas bounding box at 1:1.
	Bounds Rect `json:"bounds"`

	// Layout is the tree laid out with the scaled options, in frame-local
	// coordinates before the offset is applied.
	Layout *Layout `json:"layout"`
}

// NewOverview lays t out at 1:1, computes the scale fitting its bounds into
// a frameW x frameH frame with padding on every side, and lays the tree out
// again with [Options.Scaled]. The scale never exceeds 1; the projection is
// centered in the frame.
func NewOverview(t *tree.Tree, opts Options, frameW, frameH, padding float64) *Overview {
	opts = opts.withDefaults()
	full := Compute(t, opts)
	bounds := full.Bounds()

	scale := 1.0
	availW, availH := frameW-2*padding, frameH-2*padding
	if bounds.W > 0 && availW > 0 {
		scale = math.Min(scale, availW/bounds.W)
	}
	if bounds.H > 0 && availH > 0 {
		scale = math.Min(scale, availH/bounds.H)
	}

	return &Overview{
		Scale:   scale,
		OffsetX: (frameW-bounds.W*scale)/2 - bounds.X*scale,
		OffsetY: (frameH-bounds.H*scale)/2 - bounds.Y*scale,
		FrameW:  frameW,
		FrameH:  frameH,
		Bounds:  bounds,
		Layout:  Compute(t, opts.Scaled(scale)),
	}
}

// ToFrame maps a canvas point into the frame.
func (o *Overview) ToFrame(p slots.Point) slots.Point {
	return slots.Point{X: p.X*o.Scale + o.OffsetX, Y: p.Y*o.Scale + o.OffsetY}
}

// ToCanvas maps a frame point (a minimap click) back to canvas space. It
// inverts [Overview.ToFrame].
func (o *Overview) ToCanvas(p slots.Point) slots.Point {
	return slots.Point{X: (p.X - o.OffsetX) / o.Scale, Y: (p.Y - o.OffsetY) / o.Scale}
}

// FrameRect returns a scaled box rectangle in frame coordinates.
func (o *Overview) FrameRect(r Rect) Rect {
	return Rect{X: r.X + o.OffsetX, Y: r.Y + o.OffsetY, W: r.W, H: r.H}
}

// Navigate centres v on the canvas point under a minimap click.
func (o *Overview) Navigate(v Viewport, click slots.Point, screenW, screenH float64) Viewport {
	return v.CenterOn(o.ToCanvas(click), screenW, screenH)
}
