package session

import (
	"slices"
	"strings"

	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// Context menu actions.
const (
	ActionDuplicate  = "duplicate"
	ActionDelete     = "delete"
	ActionDisconnect = "disconnect"
	ActionAddNode    = "add_node"
)

// Menu is an open context menu.
type Menu struct {
	At     slots.Point
	NodeID string // empty for the canvas background
	Items  []string
}

// Search is the open node search bar.
type Search struct {
	At      slots.Point
	Query   string
	Results []string
}

// OpenMenu opens the context menu for a node, or for the canvas when nodeID
// is empty. Any drag in progress is cancelled.
func (s *Session) OpenMenu(at slots.Point, nodeID string) (Menu, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Menu{At: at}
	switch {
	case nodeID == "":
		m.Items = []string{ActionAddNode}
	case s.tree != nil && s.tree.Has(nodeID):
		m.NodeID = nodeID
		m.Items = []string{ActionDuplicate, ActionDelete}
		if loc, _ := s.tree.Find(nodeID); !loc.IsReporter() && !loc.IsRootHead() {
			m.Items = append(m.Items, ActionDisconnect)
		}
	default:
		return Menu{}, false
	}
	s.drag = Drag{}
	s.search = nil
	s.menu = &m
	return m, true
}

// Menu returns the open context menu.
func (s *Session) Menu() (Menu, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.menu == nil {
		return Menu{}, false
	}
	return *s.menu, true
}

// RunMenuAction runs one of the open menu's items and closes the menu.
// Adding a node opens the search bar at the menu position instead.
func (s *Session) RunMenuAction(action string) error {
	s.mu.Lock()
	m := s.menu
	s.menu = nil
	s.mu.Unlock()
	if m == nil || !slices.Contains(m.Items, action) {
		return nil
	}
	switch action {
	case ActionDuplicate:
		_, err := s.engine.DuplicateNode(m.NodeID)
		return err
	case ActionDelete:
		return s.engine.DeleteNode(m.NodeID)
	case ActionDisconnect:
		return s.engine.DisconnectNode(m.NodeID)
	case ActionAddNode:
		s.OpenSearch(m.At)
	}
	return nil
}

// OpenSearch opens the node search bar listing every opcode.
func (s *Session) OpenSearch(at slots.Point) Search {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu = nil
	s.search = &Search{At: at, Results: s.catalog.Opcodes()}
	return *s.search
}

// SetSearchQuery filters the search results to opcodes containing q,
// ignoring case.
func (s *Session) SetSearchQuery(q string) (Search, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.search == nil {
		return Search{}, false
	}
	s.search.Query = q
	needle := strings.ToLower(strings.TrimSpace(q))
	var results []string
	for _, op := range s.catalog.Opcodes() {
		if strings.Contains(strings.ToLower(op), needle) {
			results = append(results, op)
		}
	}
	s.search.Results = results
	return *s.search, true
}

// ChooseSearchResult adds a node for the i-th result to the active workflow,
// closes the search bar and returns the new node's ID.
func (s *Session) ChooseSearchResult(i int) (string, error) {
	s.mu.Lock()
	sr := s.search
	s.search = nil
	s.mu.Unlock()
	if sr == nil || i < 0 || i >= len(sr.Results) {
		return "", nil
	}
	return s.engine.AddNode(sr.Results[i], "")
}

// SearchBar returns the open search bar.
func (s *Session) SearchBar() (Search, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.search == nil {
		return Search{}, false
	}
	return *s.search, true
}

// OpenModal opens a named modal dialog, such as the extract-workflow form.
func (s *Session) OpenModal(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = Drag{}
	s.menu = nil
	s.search = nil
	s.modal = name
}

// Modal returns the open modal's name, or "".
func (s *Session) Modal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}

// Escape closes every transient element: the active drag, the context
// menu, the search bar and any modal. It reports whether anything was open.
func (s *Session) Escape() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := s.drag.Active() || s.menu != nil || s.search != nil || s.modal != ""
	s.resetTransient()
	return open
}

// CloseTransient handles a click outside the open transient UI. It resets
// the same state as [Session.Escape].
func (s *Session) CloseTransient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTransient()
}

func (s *Session) resetTransient() {
	s.drag = Drag{}
	s.menu = nil
	s.search = nil
	s.modal = ""
}
