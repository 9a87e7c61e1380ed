// Package match implements the port matcher consumed during drag gestures:
// classifying whether a dragged value fits an input, and finding the port a
// dragged wire end should snap to.
package match

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// SnapDistance is the maximum distance between the pointer and a port for
// the port to be considered a snap target.
const SnapDistance = 25.0

// Compatibility classifies a value/input type pairing.
type Compatibility int

const (
	// Unknown is neutral: a type is undeclared or the dragged item is untyped.
	Unknown Compatibility = iota
	// Compatible means the value's type is accepted by the input.
	Compatible
	// Incompatible means the types are declared and do not match.
	Incompatible
)

// String returns the classification name.
func (c Compatibility) String() string {
	switch c {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// CompatibleTypes classifies a source's declared return type against a target's
// declared parameter type.
func CompatibleTypes(returnType, paramType string) Compatibility {
	switch {
	case returnType == "" || paramType == "":
		return Unknown
	case returnType == opcodes.TypeAny || paramType == opcodes.TypeAny:
		return Compatible
	case returnType == paramType:
		return Compatible
	case returnType == opcodes.TypeInteger && paramType == opcodes.TypeNumber:
		return Compatible
	default:
		return Incompatible
	}
}

// ItemKind is what is being dragged onto an input.
type ItemKind int

const (
	// ItemReporter is a value-producing node (an orphan or detached reporter).
	ItemReporter ItemKind = iota
	// ItemVariable is a variable reference; variables are untyped.
	ItemVariable
)

// DragItem is a dragged value with its declared return type.
type DragItem struct {
	Kind       ItemKind
	ReturnType string
}

// Classify returns the compatibility of a dragged item with an input.
// Variable references always classify as [Unknown].
func Classify(item DragItem, paramType string) Compatibility {
	if item.Kind == ItemVariable {
		return Unknown
	}
	return CompatibleTypes(item.ReturnType, paramType)
}

// Query describes a wire drag in progress.
type Query struct {
	Pointer slots.Point
	Node    string     // node the wire is dragged from
	Port    slots.Port // port the wire is dragged from
}

// Target is a snap candidate.
type Target struct {
	NodeID   string
	Port     slots.Port
	Point    slots.Point
	Distance float64
}

// Nearest returns the closest opposite-facing control port within
// [SnapDistance] of the pointer. Ports of the source node are excluded; an
// outgoing port (output or branch exit) seeks inputs and an input seeks
// outputs and branch exits. Ties keep the first candidate in registry order,
// then input, output, branch exits sorted by label.
func Nearest(r slots.Reader, q Query) (Target, bool) {
	if r == nil || !q.Pointer.Finite() {
		return Target{}, false
	}
	seekIncoming := !q.Port.Incoming()

	best := Target{Distance: math.Inf(1)}
	found := false
	for _, e := range r.Snapshot() {
		if e.NodeID == q.Node {
			continue
		}
		for _, p := range e.Slots.ControlPorts() {
			if p.Incoming() != seekIncoming {
				continue
			}
			pt, ok := e.Slots.At(p)
			if !ok || !pt.Finite() {
				continue
			}
			d := pt.Dist(q.Pointer)
			if d <= SnapDistance && d < best.Distance {
				best = Target{NodeID: e.NodeID, Port: p, Point: pt, Distance: d}
				found = true
			}
		}
	}
	return best, found
}

// NearestField returns the closest input row within [SnapDistance] of the
// pointer, skipping the nodes in exclude (the dragged node and its subtree).
// Ties follow registry order, then input key order.
func NearestField(r slots.Reader, pointer slots.Point, exclude map[string]bool) (Target, bool) {
	if r == nil || !pointer.Finite() {
		return Target{}, false
	}
	best := Target{Distance: math.Inf(1)}
	found := false
	for _, e := range r.Snapshot() {
		if exclude[e.NodeID] {
			continue
		}
		for _, p := range e.Slots.FieldPorts() {
			pt, _ := e.Slots.At(p)
			if !pt.Finite() {
				continue
			}
			d := pt.Dist(pointer)
			if d <= SnapDistance && d < best.Distance {
				best = Target{NodeID: e.NodeID, Port: p, Point: pt, Distance: d}
				found = true
			}
		}
	}
	return best, found
}
