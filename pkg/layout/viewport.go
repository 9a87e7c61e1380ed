package layout

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// Zoom bounds.
const (
	MinZoom = 0.25
	MaxZoom = 2.0
)

// Viewport maps canvas coordinates to screen coordinates:
//
//	screen = canvas*Zoom + Pan
//
// A zero Zoom is treated as 1, so the zero Viewport is the identity.
type Viewport struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

// Identity returns the viewport with no pan and zoom 1.
func Identity() Viewport { return Viewport{Zoom: 1} }

// ClampZoom limits z to [MinZoom, MaxZoom]. Non-finite and non-positive
// values become 1.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return 1
	}
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

func (v Viewport) zoom() float64 {
	if v.Zoom == 0 {
		return 1
	}
	return v.Zoom
}

// ToScreen maps a canvas point to screen space.
func (v Viewport) ToScreen(p slots.Point) slots.Point {
	z := v.zoom()
	return slots.Point{X: p.X*z + v.PanX, Y: p.Y*z + v.PanY}
}

// ToCanvas maps a screen point to canvas space. It inverts [Viewport.ToScreen].
func (v Viewport) ToCanvas(p slots.Point) slots.Point {
	z := v.zoom()
	return slots.Point{X: (p.X - v.PanX) / z, Y: (p.Y - v.PanY) / z}
}

// ZoomAt returns the viewport zoomed by factor around the screen point
// anchor, which keeps the canvas point under the anchor fixed. The resulting
// zoom is clamped.
func (v Viewport) ZoomAt(anchor slots.Point, factor float64) Viewport {
	c := v.ToCanvas(anchor)
	z := ClampZoom(v.zoom() * factor)
	return Viewport{
		PanX: anchor.X - c.X*z,
		PanY: anchor.Y - c.Y*z,
		Zoom: z,
	}
}

// CenterOn returns the viewport panned so the canvas point c sits in the
// middle of a screen of the given size. Zoom is unchanged.
func (v Viewport) CenterOn(c slots.Point, screenW, screenH float64) Viewport {
	z := v.zoom()
	return Viewport{
		PanX: screenW/2 - c.X*z,
		PanY: screenH/2 - c.Y*z,
		Zoom: z,
	}
}
