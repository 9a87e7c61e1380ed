// Package route computes the bezier curves drawn for wires between ports.
//
// [Route] is a pure function of the two endpoints. The curve policy depends
// on where the target sits relative to the source:
//
//   - Target below and vertical separation dominant: a vertical S-curve,
//     used for branch exits dropping into their children.
//   - Target to the right or level: a horizontal S-curve.
//   - Target behind the source: a two-segment loop that leaves rightward,
//     drops (or rises) clear of the row, crosses at the horizontal midpoint
//     and enters the target from its left, instead of doubling back through
//     the nodes in between.
//
// Degenerate input (non-finite coordinates, coincident endpoints, both
// endpoints at the unregistered-slot origin) yields no curve.
package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// Curve shaping constants.
const (
	// MaxVerticalOffset caps the control-point offset of vertical S-curves.
	MaxVerticalOffset = 60.0

	// MaxHorizontalOffset caps the control-point offset of horizontal S-curves.
	MaxHorizontalOffset = 80.0

	// LoopMinDepart is the minimum rightward departure of a loop.
	LoopMinDepart = 50.0

	// LoopMinDrop is the minimum vertical clearance of a loop.
	LoopMinDrop = 40.0

	// loopDropExtra is added to half the vertical separation of a loop.
	loopDropExtra = 20.0
)

// Shape identifies the routing policy that produced a curve.
type Shape int

const (
	ShapeHorizontal Shape = iota
	ShapeVertical
	ShapeLoop
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeHorizontal:
		return "horizontal"
	case ShapeVertical:
		return "vertical"
	case ShapeLoop:
		return "loop"
	default:
		return "unknown"
	}
}

// Cubic is one cubic bezier segment starting where the previous one ended.
type Cubic struct {
	C1, C2, End slots.Point
}

// Curve is a path of cubic segments starting at From.
type Curve struct {
	Shape    Shape
	From     slots.Point
	Segments []Cubic
}

// Start returns the first point of the curve.
func (c Curve) Start() slots.Point { return c.From }

// End returns the last point of the curve.
func (c Curve) End() slots.Point {
	if len(c.Segments) == 0 {
		return c.From
	}
	return c.Segments[len(c.Segments)-1].End
}

// Path renders the curve as SVG path data ("M x y C ...").
func (c Curve) Path() string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, c.From)
	for _, s := range c.Segments {
		b.WriteString(" C ")
		writePoint(&b, s.C1)
		b.WriteString(", ")
		writePoint(&b, s.C2)
		b.WriteString(", ")
		writePoint(&b, s.End)
	}
	return b.String()
}

func writePoint(b *strings.Builder, p slots.Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}

// Route computes the curve from (x1, y1) to (x2, y2). It returns false when
// there is no renderable path.
func Route(x1, y1, x2, y2 float64) (Curve, bool) {
	from, to := slots.Point{X: x1, Y: y1}, slots.Point{X: x2, Y: y2}
	if !from.Finite() || !to.Finite() || from == to || (from.IsOrigin() && to.IsOrigin()) {
		return Curve{}, false
	}

	dx, dy := x2-x1, y2-y1
	adx, ady := math.Abs(dx), math.Abs(dy)

	switch {
	case ady > 0.5*adx && dy > 0:
		off := math.Min(ady/2, MaxVerticalOffset)
		return Curve{
			Shape: ShapeVertical,
			From:  from,
			Segments: []Cubic{{
				C1:  slots.Point{X: x1, Y: y1 + off},
				C2:  slots.Point{X: x2, Y: y2 - off},
				End: to,
			}},
		}, true

	case dx >= 0:
		off := math.Min(adx/2, MaxHorizontalOffset)
		return Curve{
			Shape: ShapeHorizontal,
			From:  from,
			Segments: []Cubic{{
				C1:  slots.Point{X: x1 + off, Y: y1},
				C2:  slots.Point{X: x2 - off, Y: y2},
				End: to,
			}},
		}, true

	default:
		depart := math.Max(LoopMinDepart, adx/2)
		drop := math.Max(LoopMinDrop, ady/2+loopDropExtra)
		if dy < 0 {
			drop = -drop
		}
		mid := slots.Point{X: (x1 + x2) / 2, Y: y1 + drop}
		return Curve{
			Shape: ShapeLoop,
			From:  from,
			Segments: []Cubic{
				{
					C1:  slots.Point{X: x1 + depart, Y: y1},
					C2:  slots.Point{X: x1 + depart, Y: mid.Y},
					End: mid,
				},
				{
					C1:  slots.Point{X: x2 - depart, Y: mid.Y},
					C2:  slots.Point{X: x2 - depart, Y: y2},
					End: to,
				},
			},
		}, true
	}
}

// Between routes a curve between two points.
func Between(from, to slots.Point) (Curve, bool) {
	return Route(from.X, from.Y, to.X, to.Y)
}
