package route

import "github.com/matzehuels/flowcanvas/pkg/slots"

// Endpoint is one end of a wire: either a node port resolved through the
// slot registry, or a fixed point (a wire end following the live pointer).
type Endpoint struct {
	NodeID string
	Port   slots.Port
	Point  slots.Point
	fixed  bool
}

// At returns an endpoint fixed at (x, y).
func At(x, y float64) Endpoint {
	return Endpoint{Point: slots.Point{X: x, Y: y}, fixed: true}
}

// Slot returns an endpoint anchored at a node's port.
func Slot(nodeID string, port slots.Port) Endpoint {
	return Endpoint{NodeID: nodeID, Port: port}
}

// Fixed reports whether the endpoint is an explicit coordinate.
func (e Endpoint) Fixed() bool { return e.fixed }

// Resolve returns the endpoint's coordinates. A port whose node or anchor is
// not registered yet resolves to false.
func (e Endpoint) Resolve(r slots.Reader) (slots.Point, bool) {
	if e.fixed {
		return e.Point, true
	}
	if r == nil {
		return slots.Point{}, false
	}
	s, ok := r.Get(e.NodeID)
	if !ok {
		return slots.Point{}, false
	}
	return s.At(e.Port)
}

// Wire routes a curve between two endpoints. Registry misses and degenerate
// geometry both yield false; callers skip the wire for this frame.
func Wire(r slots.Reader, from, to Endpoint) (Curve, bool) {
	p1, ok := from.Resolve(r)
	if !ok {
		return Curve{}, false
	}
	p2, ok := to.Resolve(r)
	if !ok {
		return Curve{}, false
	}
	return Between(p1, p2)
}
