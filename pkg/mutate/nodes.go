package mutate

import (
	"encoding/json"
	"strings"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// AddNode appends a new node for opcode to workflow (the model's active
// workflow when empty, falling back to main). The node starts its own root
// chain: the start chain of a workflow without one, otherwise an orphan. Unknown
// opcodes produce a data node without inputs.
func (e *Engine) AddNode(opcode, workflow string) (string, error) {
	if strings.TrimSpace(opcode) == "" {
		return "", ErrInvalidOpcode
	}
	if workflow == "" {
		workflow = e.model.ActiveWorkflow()
	}
	if workflow == "" {
		workflow = tree.MainWorkflow
	}

	var id string
	err := e.apply("add_node", func(t *tree.Tree) error {
		wf, ok := t.Workflow(workflow)
		if !ok {
			return failf(ErrWorkflowNotFound, "%s", workflow)
		}
		n := e.catalog.NewNode(opcode, e.newID())
		addStart(wf, n)
		id = n.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteNode removes a node together with its branch children and reporters.
// The predecessor is relinked to the node's successor. Deleting a reporter
// resets the consuming input to empty. Deleting a start node that has no
// successor leaves the start chain empty; orphan chains stay orphans.
func (e *Engine) DeleteNode(id string) error {
	return e.apply("delete_node", func(t *tree.Tree) error {
		loc, err := find(t, id)
		if err != nil {
			return err
		}

		removed := map[string]bool{id: true}
		for _, sub := range tree.Subtree(loc.Node) {
			removed[sub] = true
		}

		if loc.IsReporter() {
			tree.SetValueAt(loc.Host, loc.Path, tree.Empty())
		} else {
			unlinkSingle(loc)
		}
		scrubReporters(t, removed)
		return nil
	})
}

// scrubReporters resets every reporter input whose node is nil or was
// removed, so no input refers to a node that no longer exists.
func scrubReporters(t *tree.Tree, removed map[string]bool) {
	t.Walk(func(loc tree.Location) bool {
		n := loc.Node
		for _, key := range n.InputKeys() {
			n.Inputs[key] = scrubValue(n.Inputs[key], removed)
		}
		return true
	})
}

func scrubValue(v tree.Value, removed map[string]bool) tree.Value {
	switch v := v.(type) {
	case tree.Reporter:
		if v.Node == nil || removed[v.Node.ID] {
			return tree.Empty()
		}
		return v
	case tree.WorkflowCall:
		for i, a := range v.Args {
			v.Args[i] = scrubValue(a, removed)
		}
		return v
	case tree.Literal, tree.Variable:
		return v
	case nil:
		return tree.Empty()
	}
	return v
}

// DuplicateNode deep-copies a node with its reporters and branch chains, but
// not its successor, into a new orphan root of the same workflow. Every
// copied node gets a fresh ID; the copy's ID is returned.
func (e *Engine) DuplicateNode(id string) (string, error) {
	var newID string
	err := e.apply("duplicate_node", func(t *tree.Tree) error {
		loc, err := find(t, id)
		if err != nil {
			return err
		}
		cp := tree.CopyNode(loc.Node, e.newID)
		addRoot(loc.Workflow, cp)
		newID = cp.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// UpdateNodeInput assigns the value parsed from raw (see [ParseInput]) to a
// node's input.
func (e *Engine) UpdateNodeInput(id, key, raw string) error {
	if key == "" {
		return failf(ErrInvalidInputKey, "empty key")
	}
	return e.apply("update_node_input", func(t *tree.Tree) error {
		loc, err := find(t, id)
		if err != nil {
			return err
		}
		loc.Node.SetInput(key, ParseInput(raw))
		return nil
	})
}

// ParseInput converts raw input text into a value:
//
//   - "$name" with an identifier name is a variable reference
//   - blank text is the empty value
//   - text that decodes as JSON is a literal of the decoded value
//   - anything else is a string literal
func ParseInput(raw string) tree.Value {
	s := strings.TrimSpace(raw)
	if name, ok := strings.CutPrefix(s, "$"); ok && perr.IsIdentifier(name) {
		return tree.Variable{Name: name}
	}
	if s == "" {
		return tree.Empty()
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return tree.Literal{Value: v}
	}
	return tree.Literal{Value: raw}
}
