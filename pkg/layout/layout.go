package layout

import (
	"math"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Rect is an axis-aligned rectangle in canvas units. Y grows downwards.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the smallest rectangle containing r and s. An empty
// rectangle contributes nothing.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	x, y := math.Min(r.X, s.X), math.Min(r.Y, s.Y)
	return Rect{X: x, Y: y, W: math.Max(r.MaxX(), s.MaxX()) - x, H: math.Max(r.MaxY(), s.MaxY()) - y}
}

// Box is the placed rectangle of one node.
type Box struct {
	NodeID   string   `json:"node_id"`
	Workflow string   `json:"workflow"`
	Opcode   string   `json:"opcode"`
	Rect     Rect     `json:"rect"`
	Fields   []string `json:"fields,omitempty"`   // input keys with a visible row
	Branches []string `json:"branches,omitempty"` // branch labels in order
	Orphan   bool     `json:"orphan,omitempty"`
}

// Frame is the area occupied by one workflow.
type Frame struct {
	Workflow string `json:"workflow"`
	Rect     Rect   `json:"rect"`
}

// Layout is the result of [Compute].
type Layout struct {
	Options Options `json:"options"`
	Boxes   []Box   `json:"boxes"`
	Frames  []Frame `json:"frames"`

	index map[string]int
}

// Box returns the box of the node with the given ID.
func (l *Layout) Box(id string) (Box, bool) {
	if l.index == nil {
		l.reindex()
	}
	i, ok := l.index[id]
	if !ok {
		return Box{}, false
	}
	return l.Boxes[i], true
}

func (l *Layout) reindex() {
	l.index = make(map[string]int, len(l.Boxes))
	for i, b := range l.Boxes {
		l.index[b.NodeID] = i
	}
}

// Bounds returns the bounding box of every placed node.
func (l *Layout) Bounds() Rect {
	var r Rect
	for _, b := range l.Boxes {
		r = r.Union(b.Rect)
	}
	return r
}

// NodeIDs returns the IDs of every placed node in placement order.
func (l *Layout) NodeIDs() []string {
	ids := make([]string, len(l.Boxes))
	for i, b := range l.Boxes {
		ids[i] = b.NodeID
	}
	return ids
}

// Compute places every non-reporter node of t. A nil tree yields an empty
// layout.
func Compute(t *tree.Tree, opts Options) *Layout {
	opts = opts.withDefaults()
	l := &Layout{Options: opts}
	if t == nil {
		l.reindex()
		return l
	}

	p := placer{opts: opts, out: l}
	y := 0.0
	for _, wf := range t.Workflows {
		p.workflow = wf.Name
		x, tallest := 0.0, 0.0
		for i, root := range wf.Roots {
			p.orphan = i > 0
			w, h := p.chain(root, x, y)
			x += w
			tallest = math.Max(tallest, h)
		}
		l.Frames = append(l.Frames, Frame{Workflow: wf.Name, Rect: Rect{X: 0, Y: y, W: x, H: tallest}})
		y += tallest + opts.WorkflowGap
	}
	l.reindex()
	return l
}

type placer struct {
	opts     Options
	out      *Layout
	workflow string
	orphan   bool
}

// chain places the chain starting at head with its first node at (x, y) and
// returns the width and height it consumed. The width includes the trailing
// advance gap.
func (p *placer) chain(head *tree.Node, x, y float64) (width, height float64) {
	o := p.opts
	cx := x
	for n := head; n != nil; n = n.Next {
		keys := n.InputKeys()
		h := o.nodeHeight(len(keys))

		box := Box{
			NodeID:   n.ID,
			Workflow: p.workflow,
			Opcode:   n.Opcode,
			Rect:     Rect{X: cx, Y: y, W: o.NodeWidth, H: h},
			Fields:   keys[:o.rows(len(keys))],
			Orphan:   p.orphan,
		}
		p.out.Boxes = append(p.out.Boxes, box)
		idx := len(p.out.Boxes) - 1

		depth := h
		branchWidth := 0.0
		if len(n.Branches) > 0 {
			by := y + h + o.NodeGap
			bx := cx
			deepest := 0.0
			labels := make([]string, 0, len(n.Branches))
			for _, b := range n.Branches {
				labels = append(labels, b.Label)
				bw, bh := o.NodeWidth, 0.0
				if b.Head != nil {
					bw, bh = p.chain(b.Head, bx, by)
				}
				bx += bw + o.BranchGap
				branchWidth += bw + o.BranchGap
				deepest = math.Max(deepest, bh)
			}
			p.out.Boxes[idx].Branches = labels
			depth = h + o.NodeGap + deepest
		}

		height = math.Max(height, depth)
		cx += math.Max(o.NodeWidth+o.NodeGap, branchWidth)
	}
	return cx - x, height
}
