package cli

import (
	"io"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/session"
)

func newTestEditor(t *testing.T) (EditorModel, string) {
	t.Helper()
	path := sampleCopy(t, t.TempDir())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := session.New(codec, session.WithLogger(log.New(io.Discard)))
	if err := s.Load(string(data)); err != nil {
		t.Fatal(err)
	}
	return NewEditorModel(s, path), path
}

func press(m EditorModel, keys ...string) EditorModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(EditorModel)
	}
	return m
}

func rowIDs(m EditorModel) []string {
	ids := make([]string, len(m.rows))
	for i, r := range m.rows {
		ids[i] = r.ID
	}
	return ids
}

func TestEditorRows(t *testing.T) {
	m, _ := newTestEditor(t)
	if len(m.rows) != 4 {
		t.Fatalf("rows = %v, want 4 nodes", rowIDs(m))
	}
	kinds := map[string]string{}
	for _, r := range m.rows {
		kinds[r.ID] = r.Kind
		if !r.placed {
			t.Errorf("%s has no canvas box", r.ID)
		}
	}
	want := map[string]string{"start": "start", "check": "chain", "say": "branch", "spare": "orphan"}
	for id, kind := range want {
		if kinds[id] != kind {
			t.Errorf("kind of %s = %q, want %q", id, kinds[id], kind)
		}
	}
}

func TestEditorDeleteAndUndo(t *testing.T) {
	m, _ := newTestEditor(t)
	m.focus("spare")
	m = press(m, "x")
	if m.Session.Current().Has("spare") {
		t.Fatal("x did not delete spare")
	}
	if !m.Dirty() {
		t.Error("editor not dirty after delete")
	}
	m = press(m, "u")
	if !m.Session.Current().Has("spare") {
		t.Error("u did not restore spare")
	}
	m = press(m, "U")
	if m.Session.Current().Has("spare") {
		t.Error("U did not redo the delete")
	}
}

func TestEditorAddNode(t *testing.T) {
	m, _ := newTestEditor(t)
	m = press(m, "a")
	if m.mode != modePickOpcode {
		t.Fatal("a did not open the opcode picker")
	}
	m = press(m, "down", "enter")
	if m.mode != modeBrowse {
		t.Error("picker still open after enter")
	}
	if len(m.rows) != 5 {
		t.Fatalf("rows = %v, want 5", rowIDs(m))
	}
	row, _ := m.current()
	if row.Opcode != m.opcodes[1] || row.Kind != "orphan" {
		t.Errorf("focused row = %+v, want new orphan %s", row, m.opcodes[1])
	}
}

func TestEditorConnect(t *testing.T) {
	m, _ := newTestEditor(t)
	m.focus("say")
	m = press(m, "c")
	if m.mode != modeConnect || m.source != "say" {
		t.Fatalf("mode = %v source = %q", m.mode, m.source)
	}
	m.focus("spare")
	m = press(m, "enter")
	if m.failed {
		t.Fatalf("connect failed: %s", m.status)
	}
	loc, _ := m.Session.Current().Find("spare")
	if loc.Prev == nil || loc.Prev.ID != "say" {
		t.Errorf("spare location = %+v, want successor of say", loc)
	}

	m = press(m, "c", "esc")
	if m.mode != modeBrowse {
		t.Error("esc did not cancel connect")
	}
}

func TestEditorSave(t *testing.T) {
	m, path := newTestEditor(t)
	m.focus("spare")
	m = press(m, "x", "s")
	if m.Dirty() {
		t.Error("dirty after save")
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), `"spare"`) {
		t.Error("saved file still has spare")
	}
}

func TestEditorView(t *testing.T) {
	m, path := newTestEditor(t)
	view := m.View()
	for _, want := range []string{"Edit " + path, "start", "check", "say", "spare", "workflow main"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	m = press(m, "a")
	if !strings.Contains(m.View(), "choose opcode") {
		t.Error("picker view missing")
	}
}
