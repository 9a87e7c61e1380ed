package history

import (
	"fmt"
	"testing"
)

func TestUndoReturnsToBaseline(t *testing.T) {
	for _, n := range []int{1, 2, 10, 49, 50} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			h := New(0)
			h.Reset("v0")
			for i := 1; i <= n; i++ {
				h.Push(fmt.Sprintf("v%d", i))
			}
			for i := 0; i < n; i++ {
				if _, ok := h.Undo(); !ok {
					t.Fatalf("Undo() #%d failed", i+1)
				}
			}
			cur, _ := h.Current()
			if cur.Source != "v0" {
				t.Errorf("after %d undos Current() = %q, want v0", n, cur.Source)
			}
			if h.CanUndo() {
				t.Error("CanUndo() = true at baseline")
			}
		})
	}
}

func TestPushDiscardsRedo(t *testing.T) {
	h := New(0)
	h.Reset("a")
	h.Push("b")
	h.Push("c")

	h.Undo()
	if !h.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}
	h.Push("d")
	if h.CanRedo() {
		t.Error("CanRedo() = true after push")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() after push-undo-push should fail")
	}

	h.Undo()
	h.Push("e")
	if _, ok := h.Redo(); ok {
		t.Error("Redo() after second push should fail")
	}
	if got := h.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3 (a b e)", got)
	}
}

func TestRedo(t *testing.T) {
	h := New(0)
	h.Reset("a")
	h.Push("b")
	h.Undo()
	s, ok := h.Redo()
	if !ok || s.Source != "b" {
		t.Errorf("Redo() = %q, %v; want b, true", s.Source, ok)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	h := New(3)
	h.Reset("v0")
	for i := 1; i <= 5; i++ {
		h.Push(fmt.Sprintf("v%d", i))
	}
	if got := h.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
	var undone []string
	for h.CanUndo() {
		s, _ := h.Undo()
		undone = append(undone, s.Source)
	}
	if got := fmt.Sprint(undone); got != "[v4 v3 v2]" {
		t.Errorf("undo trail = %s, want [v4 v3 v2]", got)
	}
}

func TestDuplicatePushIsNoop(t *testing.T) {
	h := New(0)
	h.Reset("a")
	if h.Push("a") {
		t.Error("Push(current) = true, want false")
	}
	if h.Len() != 1 || h.CanUndo() {
		t.Errorf("duplicate push changed history: Len=%d CanUndo=%v", h.Len(), h.CanUndo())
	}
}

func TestDuplicatePushKeepsRedo(t *testing.T) {
	h := New(0)
	h.Reset("a")
	h.Push("b")
	h.Undo()
	if h.Push("a") {
		t.Error("Push(current) = true, want false")
	}
	if !h.CanRedo() {
		t.Fatal("identical push discarded the redo entry")
	}
	if snap, ok := h.Redo(); !ok || snap.Source != "b" {
		t.Errorf("Redo() = %q, %v, want b", snap.Source, ok)
	}

	h.Undo()
	h.Push("c")
	if h.CanRedo() {
		t.Error("a new snapshot kept the redo entry")
	}
}

func TestEmptyHistory(t *testing.T) {
	h := New(0)
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history should not undo or redo")
	}
	if _, ok := h.Current(); ok {
		t.Error("Current() on empty history should be absent")
	}
	h.Push("first")
	if cur, _ := h.Current(); cur.Source != "first" || h.CanUndo() {
		t.Errorf("first push should become the baseline, got %q", cur.Source)
	}
	if pos, total := h.Position(); pos != 1 || total != 1 {
		t.Errorf("Position() = %d/%d, want 1/1", pos, total)
	}
}
