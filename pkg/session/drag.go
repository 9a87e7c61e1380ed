package session

import (
	"github.com/matzehuels/flowcanvas/pkg/match"
	"github.com/matzehuels/flowcanvas/pkg/route"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// DragKind is the kind of pointer gesture in progress.
type DragKind int

const (
	DragNone DragKind = iota
	DragWire
	DragOrphan
	DragVariable
	DragPanel
)

func (k DragKind) String() string {
	switch k {
	case DragWire:
		return "wire"
	case DragOrphan:
		return "orphan"
	case DragVariable:
		return "variable"
	case DragPanel:
		return "panel"
	default:
		return "none"
	}
}

// MinPanelSize is the smallest size a panel can be resized to.
const MinPanelSize = 120.0

// Drag is the transient state of the active gesture.
type Drag struct {
	Kind DragKind

	// Node is the wire's source node or the dragged orphan.
	Node string
	// Port is the wire's source port.
	Port slots.Port
	// Variable is the dragged variable name.
	Variable string
	// Panel is the panel being resized and Size its size when the drag began.
	Panel string
	Size  float64

	Origin  slots.Point
	Pointer slots.Point

	// Target is the current snap target, if any.
	Target *match.Target
}

// Active reports whether a gesture is in progress.
func (d Drag) Active() bool { return d.Kind != DragNone }

// Outcome describes what [Session.Release] did.
type Outcome int

const (
	// Discarded means the gesture ended without a mutation.
	Discarded Outcome = iota
	// Committed means the gesture's mutation was applied.
	Committed
	// Declined means the user refused an incompatible drop.
	Declined
	// Rejected means the mutation engine refused the edit.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Declined:
		return "declined"
	case Rejected:
		return "rejected"
	default:
		return "discarded"
	}
}

// Mismatch describes an orphan drop whose declared types disagree.
type Mismatch struct {
	Orphan     string
	Target     string
	Key        string
	ReturnType string
	ParamType  string
}

// ConfirmFunc asks whether an incompatible drop should go ahead.
type ConfirmFunc func(Mismatch) bool

// Drag returns the active gesture.
func (s *Session) Drag() Drag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag
}

// BeginWire starts dragging a wire out of a node's port.
func (s *Session) BeginWire(nodeID string, port slots.Port, pointer slots.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || !s.tree.Has(nodeID) || port.Kind == slots.PortField {
		return false
	}
	s.begin(Drag{Kind: DragWire, Node: nodeID, Port: port, Origin: pointer, Pointer: pointer})
	return true
}

// BeginOrphan starts dragging an orphan root towards an input field.
func (s *Session) BeginOrphan(nodeID string, pointer slots.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return false
	}
	loc, ok := s.tree.Find(nodeID)
	if !ok || !loc.IsRootHead() || !loc.IsOrphan() {
		return false
	}
	s.begin(Drag{Kind: DragOrphan, Node: nodeID, Origin: pointer, Pointer: pointer})
	return true
}

// BeginVariable starts dragging a variable reference from the variables
// panel.
func (s *Session) BeginVariable(name string, pointer slots.Point) bool {
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin(Drag{Kind: DragVariable, Variable: name, Origin: pointer, Pointer: pointer})
	return true
}

// BeginPanel starts resizing a panel.
func (s *Session) BeginPanel(panel string, pointer slots.Point) bool {
	if panel == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin(Drag{Kind: DragPanel, Panel: panel, Size: s.panelSize(panel), Origin: pointer, Pointer: pointer})
	return true
}

// begin replaces any gesture in progress and closes the context menu.
func (s *Session) begin(d Drag) {
	s.drag = d
	s.menu = nil
}

// MovePointer updates the active gesture and returns its snap target.
func (s *Session) MovePointer(p slots.Point) (match.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &s.drag
	d.Pointer = p
	d.Target = nil

	var (
		t  match.Target
		ok bool
	)
	switch d.Kind {
	case DragWire:
		t, ok = match.Nearest(s.registry, match.Query{Pointer: p, Node: d.Node, Port: d.Port})
	case DragOrphan:
		exclude := map[string]bool{d.Node: true}
		if loc, found := s.tree.Find(d.Node); found {
			for _, id := range tree.Subtree(loc.Node) {
				exclude[id] = true
			}
		}
		t, ok = match.NearestField(s.registry, p, exclude)
	case DragVariable:
		t, ok = match.NearestField(s.registry, p, nil)
	case DragPanel:
		s.panels[d.Panel] = max(MinPanelSize, d.Size+p.X-d.Origin.X)
	}
	if ok {
		d.Target = &t
	}
	return t, ok
}

// WirePreview returns the curve of the wire being dragged, from its source
// port to the snap target or the pointer.
func (s *Session) WirePreview() (route.Curve, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.drag
	if d.Kind != DragWire {
		return route.Curve{}, false
	}
	loose := route.At(d.Pointer.X, d.Pointer.Y)
	if d.Target != nil {
		loose = route.Slot(d.Target.NodeID, d.Target.Port)
	}
	if d.Port.Incoming() {
		return route.Wire(s.registry, loose, route.Slot(d.Node, d.Port))
	}
	return route.Wire(s.registry, route.Slot(d.Node, d.Port), loose)
}

// Release ends the active gesture. A snapped wire connects its endpoints, an
// orphan dropped on a field becomes that input's reporter and a variable
// dropped on a field is bound to it. For an orphan whose return type is
// incompatible with the field, confirm is asked first; a nil confirm
// declines.
func (s *Session) Release(confirm ConfirmFunc) (Outcome, error) {
	s.mu.Lock()
	d := s.drag
	s.drag = Drag{}
	var mismatch *Mismatch
	if d.Kind == DragOrphan && d.Target != nil {
		mismatch = s.mismatch(d)
	}
	s.mu.Unlock()

	if d.Target == nil {
		return Discarded, nil
	}
	target := *d.Target

	var err error
	switch d.Kind {
	case DragWire:
		err = s.connect(d, target)
	case DragOrphan:
		if mismatch != nil && (confirm == nil || !confirm(*mismatch)) {
			s.logger.Debug("incompatible drop declined", "orphan", d.Node, "target", target.NodeID, "key", target.Port.Name)
			return Declined, nil
		}
		err = s.engine.ConvertOrphanToReporter(d.Node, target.NodeID, target.Port.Name)
	case DragVariable:
		err = s.engine.UpdateNodeInput(target.NodeID, target.Port.Name, "$"+d.Variable)
	default:
		return Discarded, nil
	}
	if err != nil {
		return Rejected, err
	}
	return Committed, nil
}

// CancelDrag discards the active gesture.
func (s *Session) CancelDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = Drag{}
}

// connect maps a snapped wire onto a connect operation. Wires dragged
// backwards from an input connect the target to the source.
func (s *Session) connect(d Drag, target match.Target) error {
	from, fromPort, to := d.Node, d.Port, target.NodeID
	if d.Port.Incoming() {
		from, fromPort, to = target.NodeID, target.Port, d.Node
	}
	if fromPort.Kind == slots.PortBranch {
		return s.engine.ConnectBranch(from, to, fromPort.Name)
	}
	return s.engine.ConnectNodes(from, to)
}

// mismatch returns the type mismatch of an orphan drop, or nil when the drop
// is compatible or untyped. The caller holds the lock.
func (s *Session) mismatch(d Drag) *Mismatch {
	if s.tree == nil {
		return nil
	}
	orphan, ok := s.tree.Find(d.Node)
	if !ok {
		return nil
	}
	dst, ok := s.tree.Find(d.Target.NodeID)
	if !ok {
		return nil
	}
	m := Mismatch{
		Orphan:     d.Node,
		Target:     d.Target.NodeID,
		Key:        d.Target.Port.Name,
		ReturnType: s.catalog.ReturnType(orphan.Node.Opcode),
		ParamType:  s.catalog.ParamType(dst.Node.Opcode, d.Target.Port.Name),
	}
	item := match.DragItem{Kind: match.ItemReporter, ReturnType: m.ReturnType}
	if match.Classify(item, m.ParamType) != match.Incompatible {
		return nil
	}
	return &m
}

// pruneDrag cancels a gesture whose node is gone. The caller holds the lock.
func (s *Session) pruneDrag() {
	d := s.drag
	switch d.Kind {
	case DragWire, DragOrphan:
		if !s.tree.Has(d.Node) {
			s.drag = Drag{}
			return
		}
	}
	if d.Target != nil && !s.tree.Has(d.Target.NodeID) {
		s.drag.Target = nil
	}
}

// PanelSize returns a panel's size, or 0 if it was never resized.
func (s *Session) PanelSize(panel string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelSize(panel)
}

// SetPanelSize sets a panel's size, bounded below by [MinPanelSize].
func (s *Session) SetPanelSize(panel string, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels[panel] = max(MinPanelSize, size)
}

func (s *Session) panelSize(panel string) float64 {
	return s.panels[panel]
}
