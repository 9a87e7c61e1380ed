package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/mutate"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/source/tomlsrc"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// manual is a Scheduler whose jobs run only when the test says so.
type manual struct {
	mu   sync.Mutex
	jobs []*job
}

type job struct {
	f       func()
	stopped bool
	ran     bool
}

func (m *manual) schedule(_ time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := &job{f: f}
	m.jobs = append(m.jobs, j)
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if j.stopped || j.ran {
			return false
		}
		j.stopped = true
		return true
	}
}

// fire runs job i even if it was stopped, like a parse already in flight.
func (m *manual) fire(i int) {
	m.mu.Lock()
	j := m.jobs[i]
	j.ran = true
	m.mu.Unlock()
	j.f()
}

func (m *manual) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// fixture builds:
//
//	main(who, count): start -> check(if: THEN [], ELSE [])
//	                  num(add)    orphan
//	                  flag(not)   orphan
//
// With default layout options the canvas anchors are:
//
//	start  input (0,24)    output (200,24)
//	check  input (240,36)  CONDITION field (340,60)
//	num    input (688,48)  LEFT (788,60) RIGHT (788,84)
//	flag   input (928,36)  VALUE (1028,60)
func fixture(extra ...string) *tree.Tree {
	cat := opcodes.Builtin()
	start := cat.NewNode("start", "start")
	start.Next = cat.NewNode("if", "check")
	main := tree.NewWorkflow(tree.MainWorkflow)
	main.Interface.Inputs = []string{"who", "count"}
	main.Roots = []*tree.Node{start, cat.NewNode("add", "num"), cat.NewNode("not", "flag")}
	for _, id := range extra {
		main.Roots = append(main.Roots, cat.NewNode("print", id))
	}
	return &tree.Tree{Workflows: []*tree.Workflow{main}}
}

func text(t *testing.T, tr *tree.Tree) string {
	t.Helper()
	s, err := tomlsrc.Codec{}.Serialize(tr)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return s
}

func newSession(t *testing.T) (*Session, *manual) {
	t.Helper()
	m := &manual{}
	n := 0
	s := New(tomlsrc.Codec{},
		WithScheduler(m.schedule),
		WithLogger(log.New(io.Discard)),
		WithEngineOptions(mutate.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen%d", n)
		})),
	)
	if err := s.Load(text(t, fixture())); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, m
}

type staleRecorder struct {
	observability.NoopEditorHooks
	mu    sync.Mutex
	stale [][2]uint64
}

func (r *staleRecorder) OnStaleParse(_ context.Context, gen, latest uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = append(r.stale, [2]uint64{gen, latest})
}

func TestLoad(t *testing.T) {
	s, _ := newSession(t)
	if s.Current() == nil || !s.Current().Has("check") {
		t.Fatal("Load did not install the tree")
	}
	if _, ok := s.Layout().Box("num"); !ok {
		t.Error("layout has no box for num")
	}
	if _, ok := s.Registry().Get("start"); !ok {
		t.Error("registry has no slots for start")
	}
	if s.CanUndo() {
		t.Error("CanUndo after Load = true, want false")
	}
}

func TestLoadFailureKeepsTree(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Load("[[workflow"); err == nil {
		t.Fatal("Load succeeded, want parse error")
	}
	if !s.Current().Has("check") {
		t.Error("tree lost after failed Load")
	}
	if s.ParseError() == nil {
		t.Error("ParseError = nil, want error")
	}
}

func TestSetSourceDebounced(t *testing.T) {
	s, m := newSession(t)
	s.SetSource(text(t, fixture("hello")))
	if s.Current().Has("hello") {
		t.Fatal("tree changed before the reparse ran")
	}
	if !s.Flush() {
		t.Fatal("Flush found nothing pending")
	}
	if !s.Current().Has("hello") {
		t.Error("reparse did not apply")
	}
	if !s.CanUndo() {
		t.Error("text edit was not pushed to history")
	}
	if s.Flush() {
		t.Error("second Flush found a pending reparse")
	}
	if m.len() != 1 {
		t.Errorf("scheduled %d jobs, want 1", m.len())
	}
}

func TestStaleParseDiscarded(t *testing.T) {
	rec := &staleRecorder{}
	observability.SetEditorHooks(rec)
	t.Cleanup(observability.Reset)

	s, m := newSession(t)
	s.SetSource(text(t, fixture("first")))
	s.SetSource(text(t, fixture("second")))

	// Newest first, then the superseded parse completes late.
	m.fire(1)
	m.fire(0)

	cur := s.Current()
	if !cur.Has("second") || cur.Has("first") {
		t.Errorf("applied wrong generation: has second=%v first=%v", cur.Has("second"), cur.Has("first"))
	}
	if len(rec.stale) != 1 || rec.stale[0][0] >= rec.stale[0][1] {
		t.Errorf("stale reports = %v, want one older generation", rec.stale)
	}
}

func TestParseFailureKeepsLastTree(t *testing.T) {
	s, _ := newSession(t)
	before := s.History().Len()

	s.SetSource("[[workflow]]\nname = ")
	s.Flush()
	if s.ParseError() == nil {
		t.Fatal("ParseError = nil, want error")
	}
	if !s.Current().Has("check") {
		t.Error("last good tree was dropped")
	}
	if s.History().Len() != before {
		t.Errorf("history length = %d, want %d", s.History().Len(), before)
	}
	if _, err := s.ExecutionRequest(); err == nil {
		t.Error("ExecutionRequest succeeded with a parse error")
	}

	s.SetSource(text(t, fixture()))
	s.Flush()
	if err := s.ParseError(); err != nil {
		t.Errorf("ParseError after fix = %v", err)
	}
}

func TestCommitAppliesImmediately(t *testing.T) {
	s, _ := newSession(t)
	gen := s.Generation()
	id, err := s.Engine().AddNode("print", "")
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if !s.Current().Has(id) {
		t.Error("committed tree not applied before reparse")
	}
	if !strings.Contains(s.Source(), id) {
		t.Error("source text does not mention the new node")
	}
	if _, ok := s.Layout().Box(id); !ok {
		t.Error("new node not laid out")
	}
	if s.Generation() != gen+1 {
		t.Errorf("Generation = %d, want %d", s.Generation(), gen+1)
	}
	if !s.Flush() {
		t.Fatal("no canonicalizing reparse pending")
	}
	if !s.Current().Has(id) {
		t.Error("canonicalizing reparse lost the node")
	}
	if s.History().Len() != 2 {
		t.Errorf("history length = %d, want 2", s.History().Len())
	}
}

func TestUndoRedo(t *testing.T) {
	s, _ := newSession(t)
	id, err := s.Engine().AddNode("print", "")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Undo() {
		t.Fatal("Undo = false")
	}
	if s.Current().Has(id) {
		t.Error("Undo kept the added node")
	}
	if !s.Redo() {
		t.Fatal("Redo = false")
	}
	if !s.Current().Has(id) {
		t.Error("Redo did not restore the node")
	}
	if s.Redo() {
		t.Error("Redo past the newest snapshot succeeded")
	}
}

func TestUndoCancelsPendingReparse(t *testing.T) {
	s, m := newSession(t)
	if _, err := s.Engine().AddNode("print", ""); err != nil {
		t.Fatal(err)
	}
	s.Undo()
	m.fire(0)
	if n := len(s.Current().Main().Roots); n != 3 {
		t.Errorf("late reparse overwrote undo: %d roots, want 3", n)
	}
}

func TestSelectionPruned(t *testing.T) {
	s, _ := newSession(t)
	if !s.SelectNode("num") {
		t.Fatal("SelectNode(num) = false")
	}
	if err := s.Engine().DeleteNode("num"); err != nil {
		t.Fatal(err)
	}
	if got := s.Selection(); !got.Empty() {
		t.Errorf("selection = %+v, want empty", got)
	}

	c := tree.Connection{From: "start", To: "check"}
	if !s.SelectConnection(c) {
		t.Fatal("SelectConnection = false")
	}
	if err := s.Engine().DisconnectNode("check"); err != nil {
		t.Fatal(err)
	}
	if got := s.Selection(); got.Connection != nil {
		t.Errorf("connection still selected: %+v", got.Connection)
	}

	if s.SelectNode("ghost") {
		t.Error("SelectNode(ghost) = true")
	}
	if !s.SelectStart(tree.MainWorkflow) {
		t.Error("SelectStart(main) = false")
	}
}

func TestDeleteSelection(t *testing.T) {
	s, _ := newSession(t)
	s.SelectNode("flag")
	ok, err := s.DeleteSelection()
	if err != nil || !ok {
		t.Fatalf("DeleteSelection = %v, %v", ok, err)
	}
	if s.Current().Has("flag") {
		t.Error("flag not deleted")
	}
	if ok, _ := s.DeleteSelection(); ok {
		t.Error("DeleteSelection with empty selection = true")
	}
}

func TestViewportMovesSlots(t *testing.T) {
	s, _ := newSession(t)
	s.SetViewport(layout.Viewport{PanX: 10, PanY: 20, Zoom: 2})
	got, ok := s.Registry().Get("start")
	if !ok {
		t.Fatal("start not registered")
	}
	want := slots.Point{X: 10, Y: 68}
	if got.Input != want {
		t.Errorf("start input = %v, want %v", got.Input, want)
	}

	s.SetViewport(layout.Viewport{Zoom: 10})
	if z := s.Viewport().Zoom; z != layout.MaxZoom {
		t.Errorf("zoom = %v, want %v", z, layout.MaxZoom)
	}
}

func TestNavigateOverview(t *testing.T) {
	s, _ := newSession(t)
	o := s.Overview(200, 100, 0)
	click := o.ToFrame(slots.Point{X: 340, Y: 60})
	s.NavigateOverview(o, click, 800, 600)
	v := s.Viewport()
	centre := v.ToCanvas(slots.Point{X: 400, Y: 300})
	if d := centre.Dist(slots.Point{X: 340, Y: 60}); d > 1e-9 {
		t.Errorf("screen centre maps to %v, want (340,60)", centre)
	}
}

func TestExecutionRequest(t *testing.T) {
	s, _ := newSession(t)
	s.SetInputValue("count", "3")
	s.SetInputValue("ignored", "x")
	req, err := s.ExecutionRequest()
	if err != nil {
		t.Fatal(err)
	}
	if req.Source != s.Source() {
		t.Error("request source differs from session source")
	}
	if len(req.Inputs) != 2 || req.Inputs["count"] != 3.0 || req.Inputs["who"] != nil {
		t.Errorf("Inputs = %v, want map[count:3 who:<nil>]", req.Inputs)
	}

	s.SetRunState(RunState{Running: true, Progress: 0.5, Alerts: []string{"slow"}})
	if rs := s.RunState(); !rs.Running || rs.Progress != 0.5 || len(rs.Alerts) != 1 {
		t.Errorf("RunState = %+v", rs)
	}
}

func TestActiveWorkflow(t *testing.T) {
	s, _ := newSession(t)
	if err := s.SetActiveWorkflow("nope"); err == nil {
		t.Error("SetActiveWorkflow(nope) succeeded")
	}
	if err := s.Engine().AddWorkflow("helper"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveWorkflow("helper"); err != nil {
		t.Fatal(err)
	}
	id, err := s.Engine().AddNode("print", "")
	if err != nil {
		t.Fatal(err)
	}
	if loc, _ := s.Current().Find(id); loc.Workflow.Name != "helper" {
		t.Errorf("node added to %s, want helper", loc.Workflow.Name)
	}
	if err := s.Engine().DeleteWorkflow("helper"); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveWorkflow(); got != tree.MainWorkflow {
		t.Errorf("ActiveWorkflow after delete = %s, want main", got)
	}
}
