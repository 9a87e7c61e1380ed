package layout

import "github.com/matzehuels/flowcanvas/pkg/slots"

// NodeSlots returns the canvas-space anchors of a box: input at the middle
// of the left edge, output at the middle of the right edge, branch exits
// spread evenly along the bottom edge, and one field anchor at the centre of
// each visible input row.
func (l *Layout) NodeSlots(b Box) slots.NodeSlots {
	r := b.Rect
	s := slots.NodeSlots{
		Input:  slots.Point{X: r.X, Y: r.Y + r.H/2},
		Output: slots.Point{X: r.MaxX(), Y: r.Y + r.H/2},
	}
	if n := len(b.Branches); n > 0 {
		s.Branches = make(map[string]slots.Point, n)
		for i, label := range b.Branches {
			s.Branches[label] = slots.Point{
				X: r.X + r.W*float64(i+1)/float64(n+1),
				Y: r.MaxY(),
			}
		}
	}
	if len(b.Fields) > 0 {
		o := l.Options
		s.Fields = make(map[string]slots.Point, len(b.Fields))
		for i, key := range b.Fields {
			s.Fields[key] = slots.Point{
				X: r.X + r.W/2,
				Y: r.Y + o.BaseHeight + o.RowHeight*(float64(i)+0.5),
			}
		}
	}
	return s
}

// Slots returns the screen-space anchors of every box under v.
func Slots(l *Layout, v Viewport) map[string]slots.NodeSlots {
	out := make(map[string]slots.NodeSlots, len(l.Boxes))
	for _, b := range l.Boxes {
		out[b.NodeID] = project(l.NodeSlots(b), v)
	}
	return out
}

// Populate registers the screen-space anchors of every box in placement
// order and unregisters nodes that are no longer laid out.
func Populate(r *slots.Registry, l *Layout, v Viewport) {
	live := make(map[string]bool, len(l.Boxes))
	for _, b := range l.Boxes {
		r.Register(b.NodeID, project(l.NodeSlots(b), v))
		live[b.NodeID] = true
	}
	r.Retain(live)
}

func project(s slots.NodeSlots, v Viewport) slots.NodeSlots {
	out := slots.NodeSlots{
		Input:  v.ToScreen(s.Input),
		Output: v.ToScreen(s.Output),
	}
	if s.Branches != nil {
		out.Branches = make(map[string]slots.Point, len(s.Branches))
		for k, p := range s.Branches {
			out.Branches[k] = v.ToScreen(p)
		}
	}
	if s.Fields != nil {
		out.Fields = make(map[string]slots.Point, len(s.Fields))
		for k, p := range s.Fields {
			out.Fields[k] = v.ToScreen(p)
		}
	}
	return out
}
