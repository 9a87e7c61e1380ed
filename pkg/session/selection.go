package session

import (
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// ReporterRef names a reporter by the node consuming it and the input path
// leading to it.
type ReporterRef struct {
	Parent string
	Path   []string
}

// Selection is what the user has selected. At most one item is selected at a
// time; a selected item that disappears from the tree is dropped.
type Selection struct {
	Node       string
	Reporter   *ReporterRef
	Connection *tree.Connection
	Start      string // workflow whose start marker is selected
}

// Empty reports whether nothing is selected.
func (sel Selection) Empty() bool {
	return sel.Node == "" && sel.Reporter == nil && sel.Connection == nil && sel.Start == ""
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection
	if sel.Reporter != nil {
		r := *sel.Reporter
		r.Path = slices.Clone(r.Path)
		sel.Reporter = &r
	}
	if sel.Connection != nil {
		c := *sel.Connection
		sel.Connection = &c
	}
	return sel
}

// SelectNode selects a layout node. It reports false for unknown IDs.
func (s *Session) SelectNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || !s.tree.Has(id) {
		return false
	}
	s.selection = Selection{Node: id}
	return true
}

// SelectReporter selects the reporter at path under parent.
func (s *Session) SelectReporter(parent string, path []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := &ReporterRef{Parent: parent, Path: slices.Clone(path)}
	if !s.reporterExists(ref) {
		return false
	}
	s.selection = Selection{Reporter: ref}
	return true
}

// SelectConnection selects an existing connection.
func (s *Session) SelectConnection(c tree.Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || !s.tree.HasConnection(c) {
		return false
	}
	s.selection = Selection{Connection: &c}
	return true
}

// SelectStart selects the start marker of a workflow.
func (s *Session) SelectStart(workflow string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return false
	}
	if _, ok := s.tree.Workflow(workflow); !ok {
		return false
	}
	s.selection = Selection{Start: workflow}
	return true
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = Selection{}
}

// DeleteSelection deletes the selected node or reporter, or disconnects the
// selected connection. It reports false when nothing deletable is selected.
func (s *Session) DeleteSelection() (bool, error) {
	sel := s.Selection()
	var err error
	switch {
	case sel.Node != "":
		err = s.engine.DeleteNode(sel.Node)
	case sel.Reporter != nil:
		err = s.engine.DeleteReporter(sel.Reporter.Parent, sel.Reporter.Path)
	case sel.Connection != nil:
		c := sel.Connection
		err = s.engine.DisconnectConnection(c.From, c.To, c.Branch)
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.ClearSelection()
	return true, nil
}

func (s *Session) reporterExists(ref *ReporterRef) bool {
	if s.tree == nil {
		return false
	}
	loc, ok := s.tree.Find(ref.Parent)
	if !ok {
		return false
	}
	v, ok := tree.ValueAt(loc.Node, ref.Path)
	if !ok {
		return false
	}
	rep, ok := v.(tree.Reporter)
	return ok && rep.Node != nil
}

// pruneSelection drops a selected item whose referent is gone. The caller
// holds the lock.
func (s *Session) pruneSelection() {
	sel := &s.selection
	t := s.tree
	if sel.Node != "" && !t.Has(sel.Node) {
		sel.Node = ""
	}
	if sel.Reporter != nil && !s.reporterExists(sel.Reporter) {
		sel.Reporter = nil
	}
	if sel.Connection != nil && !t.HasConnection(*sel.Connection) {
		sel.Connection = nil
	}
	if sel.Start != "" {
		if _, ok := t.Workflow(sel.Start); !ok {
			sel.Start = ""
		}
	}
}
