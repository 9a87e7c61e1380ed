package session

import (
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

var overCondition = slots.Point{X: 341, Y: 61}

func TestIncompatibleOrphanDropAsksFirst(t *testing.T) {
	s, _ := newSession(t)
	var asked []Mismatch
	decline := func(m Mismatch) bool {
		asked = append(asked, m)
		return false
	}

	if !s.BeginOrphan("num", slots.Point{X: 788, Y: 48}) {
		t.Fatal("BeginOrphan(num) = false")
	}
	target, ok := s.MovePointer(overCondition)
	if !ok || target.NodeID != "check" || target.Port != slots.FieldPort("CONDITION") {
		t.Fatalf("MovePointer target = %+v, %v", target, ok)
	}
	out, err := s.Release(decline)
	if err != nil || out != Declined {
		t.Fatalf("Release = %v, %v, want declined", out, err)
	}
	want := Mismatch{
		Orphan:     "num",
		Target:     "check",
		Key:        "CONDITION",
		ReturnType: opcodes.TypeNumber,
		ParamType:  opcodes.TypeBoolean,
	}
	if len(asked) != 1 || asked[0] != want {
		t.Errorf("confirm calls = %+v, want [%+v]", asked, want)
	}
	loc, _ := s.Current().Find("num")
	if !loc.IsRootHead() || !loc.IsOrphan() {
		t.Error("declined drop reparented the orphan")
	}
	if s.CanUndo() {
		t.Error("declined drop was recorded in history")
	}
	if s.Drag().Active() {
		t.Error("drag still active after Release")
	}

	s.BeginOrphan("num", slots.Point{X: 788, Y: 48})
	s.MovePointer(overCondition)
	out, err = s.Release(func(Mismatch) bool { return true })
	if err != nil || out != Committed {
		t.Fatalf("confirmed Release = %v, %v", out, err)
	}
	loc, _ = s.Current().Find("num")
	if !loc.IsReporter() || loc.Host.ID != "check" {
		t.Errorf("num location = %+v, want reporter of check", loc)
	}
}

func TestNilConfirmDeclines(t *testing.T) {
	s, _ := newSession(t)
	s.BeginOrphan("num", slots.Point{})
	s.MovePointer(overCondition)
	if out, _ := s.Release(nil); out != Declined {
		t.Errorf("Release(nil) = %v, want declined", out)
	}
}

func TestCompatibleOrphanDropSkipsConfirm(t *testing.T) {
	s, _ := newSession(t)
	s.BeginOrphan("flag", slots.Point{X: 1028, Y: 36})
	s.MovePointer(overCondition)
	out, err := s.Release(func(Mismatch) bool {
		t.Error("confirm called for a compatible drop")
		return false
	})
	if err != nil || out != Committed {
		t.Fatalf("Release = %v, %v", out, err)
	}
	v := s.Current().Main().Roots[0].Next.Input("CONDITION")
	if rep, ok := v.(tree.Reporter); !ok || rep.Node.ID != "flag" {
		t.Errorf("CONDITION = %#v, want reporter flag", v)
	}
}

func TestOrphanDoesNotSnapToItself(t *testing.T) {
	s, _ := newSession(t)
	s.BeginOrphan("num", slots.Point{})
	if target, ok := s.MovePointer(slots.Point{X: 788, Y: 60}); ok {
		t.Errorf("snapped to %+v on the dragged node", target)
	}
}

func TestBeginOrphanRequiresOrphan(t *testing.T) {
	s, _ := newSession(t)
	for _, id := range []string{"start", "check", "ghost"} {
		if s.BeginOrphan(id, slots.Point{}) {
			t.Errorf("BeginOrphan(%s) = true", id)
		}
	}
}

func TestWireDrag(t *testing.T) {
	tests := []struct {
		name    string
		node    string
		port    slots.Port
		pointer slots.Point
		next    string // expected successor of start
	}{
		{"output to input", "start", slots.Output, slots.Point{X: 690, Y: 50}, "num"},
		{"input back to output", "flag", slots.Input, slots.Point{X: 198, Y: 25}, "flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t)
			if !s.BeginWire(tt.node, tt.port, slots.Point{}) {
				t.Fatal("BeginWire = false")
			}
			if _, ok := s.MovePointer(tt.pointer); !ok {
				t.Fatal("no snap target")
			}
			if c, ok := s.WirePreview(); !ok || c.Start() == c.End() {
				t.Errorf("WirePreview = %+v, %v", c, ok)
			}
			out, err := s.Release(nil)
			if err != nil || out != Committed {
				t.Fatalf("Release = %v, %v", out, err)
			}
			if got := s.Current().Main().Roots[0].Next.ID; got != tt.next {
				t.Errorf("start.Next = %s, want %s", got, tt.next)
			}
		})
	}
}

func TestWireDragBranch(t *testing.T) {
	s, _ := newSession(t)
	s.BeginWire("check", slots.BranchPort("THEN"), slots.Point{})
	s.MovePointer(slots.Point{X: 689, Y: 47})
	if out, err := s.Release(nil); err != nil || out != Committed {
		t.Fatalf("Release = %v, %v", out, err)
	}
	loc, _ := s.Current().Find("num")
	if loc.Owner == nil || loc.Owner.ID != "check" || loc.Branch != "THEN" {
		t.Errorf("num location = %+v, want head of check.THEN", loc)
	}
}

func TestWireDragCycleRejected(t *testing.T) {
	s, _ := newSession(t)
	// check's output back onto start's input would close a loop.
	s.BeginWire("check", slots.Output, slots.Point{})
	s.MovePointer(slots.Point{X: 1, Y: 24})
	before := s.Source()
	out, err := s.Release(nil)
	if out != Rejected || err == nil {
		t.Fatalf("Release = %v, %v, want rejected", out, err)
	}
	if s.Source() != before {
		t.Error("rejected connection changed the source")
	}
}

func TestWireDragDiscardedWithoutTarget(t *testing.T) {
	s, _ := newSession(t)
	s.BeginWire("start", slots.Output, slots.Point{})
	if _, ok := s.MovePointer(slots.Point{X: 5000, Y: 5000}); ok {
		t.Fatal("snapped far away from every port")
	}
	if c, ok := s.WirePreview(); !ok || c.End() != (slots.Point{X: 5000, Y: 5000}) {
		t.Errorf("preview end = %v, want pointer", c.End())
	}
	before := s.Source()
	if out, _ := s.Release(nil); out != Discarded {
		t.Errorf("Release = %v, want discarded", out)
	}
	if s.Source() != before {
		t.Error("discarded drag changed the source")
	}
}

func TestVariableDrop(t *testing.T) {
	s, _ := newSession(t)
	s.BeginVariable("x", slots.Point{})
	s.MovePointer(slots.Point{X: 790, Y: 59})
	if out, err := s.Release(nil); err != nil || out != Committed {
		t.Fatalf("Release = %v, %v", out, err)
	}
	loc, _ := s.Current().Find("num")
	if v := loc.Node.Input("LEFT"); v != (tree.Variable{Name: "x"}) {
		t.Errorf("LEFT = %#v, want $x", v)
	}
}

func TestBeginCancelsOtherDrag(t *testing.T) {
	s, _ := newSession(t)
	s.BeginWire("start", slots.Output, slots.Point{})
	s.BeginVariable("x", slots.Point{})
	if d := s.Drag(); d.Kind != DragVariable || d.Node != "" {
		t.Errorf("drag = %+v, want a fresh variable drag", d)
	}
}

func TestPanelResize(t *testing.T) {
	s, _ := newSession(t)
	s.SetPanelSize("vars", 200)
	s.BeginPanel("vars", slots.Point{X: 100})
	s.MovePointer(slots.Point{X: 160})
	if got := s.PanelSize("vars"); got != 260 {
		t.Errorf("PanelSize = %v, want 260", got)
	}
	s.MovePointer(slots.Point{X: -500})
	if got := s.PanelSize("vars"); got != MinPanelSize {
		t.Errorf("PanelSize = %v, want %v", got, MinPanelSize)
	}
	if out, _ := s.Release(nil); out != Discarded {
		t.Errorf("Release = %v, want discarded", out)
	}
}

func TestDragPrunedWhenNodeDeleted(t *testing.T) {
	s, _ := newSession(t)
	s.BeginWire("flag", slots.Output, slots.Point{})
	if err := s.Engine().DeleteNode("flag"); err != nil {
		t.Fatal(err)
	}
	if s.Drag().Active() {
		t.Error("drag survived deletion of its node")
	}
}
