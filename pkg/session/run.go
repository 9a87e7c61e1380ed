package session

import (
	"maps"
	"slices"

	"github.com/matzehuels/flowcanvas/pkg/mutate"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// ExecutionRequest is what the session hands to an execution service.
type ExecutionRequest struct {
	Source string         `json:"source"`
	Inputs map[string]any `json:"inputs"`
}

// RunState is display-only state reported back by an execution service.
type RunState struct {
	Running  bool     `json:"running"`
	Progress float64  `json:"progress"`
	Alerts   []string `json:"alerts,omitempty"`
	Prompt   string   `json:"prompt,omitempty"`
}

// SetInputValue records the raw value entered for one of the main
// workflow's inputs.
func (s *Session) SetInputValue(name, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[name] = raw
}

// InputValues returns the recorded input values.
func (s *Session) InputValues() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.inputs)
}

// ExecutionRequest returns the current source with a value for every input
// the main workflow declares. Values are decoded like node inputs; missing
// ones are nil. It fails while the source does not parse.
func (s *Session) ExecutionRequest() (ExecutionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return ExecutionRequest{}, mutate.ErrNoTree
	}
	if s.parseErr != nil {
		return ExecutionRequest{}, s.parseErr
	}
	req := ExecutionRequest{Source: s.text, Inputs: map[string]any{}}
	main := s.tree.Main()
	if main == nil {
		return req, nil
	}
	for _, name := range main.Interface.Inputs {
		raw, ok := s.inputs[name]
		if !ok {
			req.Inputs[name] = nil
			continue
		}
		switch v := mutate.ParseInput(raw).(type) {
		case tree.Literal:
			req.Inputs[name] = v.Value
		default:
			req.Inputs[name] = raw
		}
	}
	return req, nil
}

// SetRunState stores the latest state reported by the execution service.
func (s *Session) SetRunState(rs RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs.Alerts = slices.Clone(rs.Alerts)
	s.run = rs
}

// RunState returns the stored run state.
func (s *Session) RunState() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.run
	rs.Alerts = slices.Clone(rs.Alerts)
	return rs
}
