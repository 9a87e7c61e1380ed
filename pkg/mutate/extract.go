package mutate

import (
	"slices"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Suggestion holds the interface proposed for extracting a selection.
type Suggestion struct {
	// Inputs are variables referenced inside the selection but not defined
	// there, in order of first reference.
	Inputs []string

	// Outputs are variables defined inside the selection and referenced by
	// nodes outside it, in order of definition.
	Outputs []string
}

// Suggest proposes workflow inputs and outputs for extracting ids from the
// model's current tree. Branch children and reporters of a selected node
// count as selected.
func (e *Engine) Suggest(ids []string) (Suggestion, error) {
	t := e.model.Current()
	if t == nil {
		return Suggestion{}, ErrNoTree
	}
	return suggest(t, e.catalog, ids)
}

func suggest(t *tree.Tree, cat *opcodes.Catalog, ids []string) (Suggestion, error) {
	if len(ids) == 0 {
		return Suggestion{}, ErrEmptySelection
	}
	inside := make(map[string]bool)
	var wf *tree.Workflow
	for _, id := range ids {
		loc, err := find(t, id)
		if err != nil {
			return Suggestion{}, err
		}
		if wf != nil && loc.Workflow != wf {
			return Suggestion{}, failf(ErrCrossWorkflow, "%s", id)
		}
		wf = loc.Workflow
		inside[id] = true
		for _, sub := range tree.Subtree(loc.Node) {
			inside[sub] = true
		}
	}

	var (
		refsIn, defsIn []string
		refsOut        = map[string]bool{}
	)
	t.Walk(func(loc tree.Location) bool {
		if loc.Workflow != wf {
			return true
		}
		n := loc.Node
		if inside[n.ID] {
			for _, name := range localRefs(n) {
				if !slices.Contains(refsIn, name) {
					refsIn = append(refsIn, name)
				}
			}
			if name := definedVar(cat, n); name != "" && !slices.Contains(defsIn, name) {
				defsIn = append(defsIn, name)
			}
			return true
		}
		for _, name := range localRefs(n) {
			refsOut[name] = true
		}
		return true
	})

	var s Suggestion
	for _, name := range refsIn {
		if !slices.Contains(defsIn, name) {
			s.Inputs = append(s.Inputs, name)
		}
	}
	for _, name := range defsIn {
		if refsOut[name] {
			s.Outputs = append(s.Outputs, name)
		}
	}
	return s, nil
}

// localRefs returns the variables referenced directly by n's inputs,
// excluding values inside reporters (the walk visits those separately).
func localRefs(n *tree.Node) []string {
	var out []string
	var visit func(v tree.Value)
	visit = func(v tree.Value) {
		switch v := v.(type) {
		case tree.Variable:
			out = append(out, v.Name)
		case tree.WorkflowCall:
			for _, a := range v.Args {
				visit(a)
			}
		case tree.Literal, tree.Reporter, nil:
		}
	}
	for _, key := range n.InputKeys() {
		visit(n.Inputs[key])
	}
	return out
}

// definedVar returns the variable assigned by n, if its opcode defines one
// through a string literal input.
func definedVar(cat *opcodes.Catalog, n *tree.Node) string {
	spec, ok := cat.Lookup(n.Opcode)
	if !ok || spec.Defines == "" {
		return ""
	}
	if lit, ok := n.Input(spec.Defines).(tree.Literal); ok {
		if s, ok := lit.Value.(string); ok {
			return s
		}
	}
	return ""
}

// Extract moves a contiguous run of one chain into a new workflow named name
// with the given interface, and puts a call node in its place whose
// arguments ARG1..ARGn pass the input variables. It returns the call node's
// ID.
func (e *Engine) Extract(ids []string, name string, inputs, outputs []string) (string, error) {
	if len(ids) == 0 {
		return "", ErrEmptySelection
	}
	for _, p := range slices.Concat(inputs, outputs) {
		if err := perr.ValidateIdentifier("parameter", p); err != nil {
			return "", err
		}
	}

	var callID string
	err := e.apply("extract_workflow", func(t *tree.Tree) error {
		if err := ValidateName(t, name); err != nil {
			return err
		}
		head, err := runHead(t, ids)
		if err != nil {
			return err
		}

		last := head.Node
		for range len(ids) - 1 {
			last = last.Next
		}
		after := last.Next
		last.Next = nil

		args := make([]tree.Value, len(inputs))
		for i, in := range inputs {
			args[i] = tree.Variable{Name: in}
		}
		call := &tree.Node{
			ID:     e.newID(),
			Opcode: opcodes.CallOpcode,
			Type:   tree.TypeWorkflowOp,
			Inputs: map[string]tree.Value{
				opcodes.CallInput: tree.WorkflowCall{Workflow: name, Args: args},
			},
			Next: after,
		}

		switch {
		case head.Prev != nil:
			head.Prev.Next = call
		case head.Owner != nil:
			b, _ := head.Owner.Branch(head.Branch)
			b.Head = call
		default:
			head.Workflow.Roots[head.Workflow.RootIndex(head.Node)] = call
		}

		wf := tree.NewWorkflow(name)
		wf.Interface = tree.Interface{
			Inputs:  slices.Clone(inputs),
			Outputs: slices.Clone(outputs),
		}
		wf.Roots = []*tree.Node{head.Node}
		t.Workflows = append(t.Workflows, wf)
		callID = call.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return callID, nil
}

// runHead checks that ids form a contiguous run of a single chain and returns
// the location of its first node.
func runHead(t *tree.Tree, ids []string) (tree.Location, error) {
	set := make(map[string]bool, len(ids))
	var head tree.Location
	heads := 0
	for _, id := range ids {
		if set[id] {
			return tree.Location{}, failf(ErrNotContiguous, "duplicate %s", id)
		}
		set[id] = true
	}
	for _, id := range ids {
		loc, err := find(t, id)
		if err != nil {
			return tree.Location{}, err
		}
		if loc.IsReporter() {
			return tree.Location{}, failf(ErrReporterNode, "%s", id)
		}
		if loc.Prev == nil || !set[loc.Prev.ID] {
			head = loc
			heads++
		}
	}
	if heads != 1 {
		return tree.Location{}, failf(ErrNotContiguous, "%d runs", heads)
	}
	n := head.Node
	for i := 0; i < len(ids); i++ {
		if n == nil || !set[n.ID] {
			return tree.Location{}, failf(ErrNotContiguous, "run broken after %d nodes", i)
		}
		n = n.Next
	}
	return head, nil
}
