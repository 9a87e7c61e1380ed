package mutate

import (
	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// ValidateName checks a new workflow name against t: it must be a valid
// identifier and not already in use.
func ValidateName(t *tree.Tree, name string) error {
	if err := perr.ValidateIdentifier("workflow", name); err != nil {
		return err
	}
	if t != nil {
		if _, ok := t.Workflow(name); ok {
			return failf(ErrDuplicateName, "%s", name)
		}
	}
	return nil
}

// ValidateWorkflowName checks name against the model's current tree. It is
// meant for inline validation while the user types.
func (e *Engine) ValidateWorkflowName(name string) error {
	return ValidateName(e.model.Current(), name)
}

// AddWorkflow appends an empty workflow.
func (e *Engine) AddWorkflow(name string) error {
	return e.apply("add_workflow", func(t *tree.Tree) error {
		if err := ValidateName(t, name); err != nil {
			return err
		}
		t.Workflows = append(t.Workflows, tree.NewWorkflow(name))
		return nil
	})
}

// DeleteWorkflow removes a workflow. The main workflow cannot be deleted.
// Calls to the deleted workflow are left in place.
func (e *Engine) DeleteWorkflow(name string) error {
	if name == tree.MainWorkflow {
		return ErrMainWorkflow
	}
	return e.apply("delete_workflow", func(t *tree.Tree) error {
		for i, wf := range t.Workflows {
			if wf.Name == name {
				t.Workflows = append(t.Workflows[:i], t.Workflows[i+1:]...)
				return nil
			}
		}
		return failf(ErrWorkflowNotFound, "%s", name)
	})
}

// RenameWorkflow renames a workflow and rewrites every call to it.
func (e *Engine) RenameWorkflow(from, to string) error {
	if from == tree.MainWorkflow {
		return ErrMainWorkflow
	}
	return e.apply("rename_workflow", func(t *tree.Tree) error {
		wf, ok := t.Workflow(from)
		if !ok {
			return failf(ErrWorkflowNotFound, "%s", from)
		}
		if err := ValidateName(t, to); err != nil {
			return err
		}
		wf.Name = to
		t.Walk(func(loc tree.Location) bool {
			n := loc.Node
			for _, key := range n.InputKeys() {
				n.Inputs[key] = renameCalls(n.Inputs[key], from, to)
			}
			return true
		})
		return nil
	})
}

func renameCalls(v tree.Value, from, to string) tree.Value {
	call, ok := v.(tree.WorkflowCall)
	if !ok {
		return v
	}
	if call.Workflow == from {
		call.Workflow = to
	}
	for i, a := range call.Args {
		call.Args[i] = renameCalls(a, from, to)
	}
	return call
}
