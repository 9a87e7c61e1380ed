package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMainWorkflow is returned by [Tree.Validate] when no workflow is named main.
	ErrNoMainWorkflow = errors.New("tree has no main workflow")

	// ErrDuplicateWorkflow is returned by [Tree.Validate] when two workflows share a name.
	ErrDuplicateWorkflow = errors.New("duplicate workflow name")

	// ErrDuplicateNodeID is returned by [Tree.Validate] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidNodeID is returned by [Tree.Validate] for nodes with an empty ID.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrInvalidNodeType is returned by [Tree.Validate] for unknown node types.
	ErrInvalidNodeType = errors.New("invalid node type")
)

// Validate checks structural integrity: a main workflow exists, workflow
// names are unique, every node has a non-empty unique ID and a known type.
func (t *Tree) Validate() error {
	seenWF := make(map[string]bool, len(t.Workflows))
	for _, wf := range t.Workflows {
		if seenWF[wf.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateWorkflow, wf.Name)
		}
		seenWF[wf.Name] = true
	}
	if !seenWF[MainWorkflow] {
		return ErrNoMainWorkflow
	}

	seen := make(map[string]bool)
	var err error
	t.Walk(func(loc Location) bool {
		n := loc.Node
		switch {
		case n.ID == "":
			err = ErrInvalidNodeID
		case seen[n.ID]:
			err = fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		case !n.Type.Valid():
			err = fmt.Errorf("%w: %q on node %s", ErrInvalidNodeType, n.Type, n.ID)
		}
		seen[n.ID] = true
		return err == nil
	})
	return err
}
