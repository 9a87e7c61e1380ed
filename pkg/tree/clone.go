package tree

// Clone returns a deep copy of the tree. Node IDs are preserved.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{Workflows: make([]*Workflow, len(t.Workflows))}
	for i, wf := range t.Workflows {
		out.Workflows[i] = wf.Clone()
	}
	return out
}

// Clone returns a deep copy of the workflow.
func (w *Workflow) Clone() *Workflow {
	out := &Workflow{
		Name: w.Name,
		Interface: Interface{
			Inputs:  append([]string(nil), w.Interface.Inputs...),
			Outputs: append([]string(nil), w.Interface.Outputs...),
		},
		Variables: make(map[string]Value, len(w.Variables)),
		Roots:     make([]*Node, len(w.Roots)),
	}
	for k, v := range w.Variables {
		out.Variables[k] = cloneValue(v, nil)
	}
	for i, r := range w.Roots {
		out.Roots[i] = cloneChain(r, nil)
	}
	return out
}

// CopyNode deep-copies n with its reporters and branch chains but without its
// successor link. When newID is non-nil every copied node gets a fresh ID.
func CopyNode(n *Node, newID func() string) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		ID:     n.ID,
		Opcode: n.Opcode,
		Type:   n.Type,
	}
	if newID != nil {
		out.ID = newID()
	}
	if n.Inputs != nil {
		out.Inputs = make(map[string]Value, len(n.Inputs))
		for _, k := range n.InputKeys() {
			out.Inputs[k] = cloneValue(n.Inputs[k], newID)
		}
	}
	if n.Branches != nil {
		out.Branches = make([]Branch, len(n.Branches))
		for i, b := range n.Branches {
			out.Branches[i] = Branch{Label: b.Label, Head: cloneChain(b.Head, newID)}
		}
	}
	return out
}

// CloneValue deep-copies a value, preserving reporter node IDs.
func CloneValue(v Value) Value {
	return cloneValue(v, nil)
}

func cloneChain(head *Node, newID func() string) *Node {
	var first, prev *Node
	for n := head; n != nil; n = n.Next {
		c := CopyNode(n, newID)
		if prev == nil {
			first = c
		} else {
			prev.Next = c
		}
		prev = c
	}
	return first
}

func cloneValue(v Value, newID func() string) Value {
	switch v := v.(type) {
	case Literal:
		return Literal{Value: cloneAny(v.Value)}
	case Variable:
		return v
	case Reporter:
		return Reporter{Node: cloneChain(v.Node, newID)}
	case WorkflowCall:
		args := make([]Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = cloneValue(a, newID)
		}
		return WorkflowCall{Workflow: v.Workflow, Args: args}
	case nil:
		return nil
	}
	return v
}

// cloneAny copies JSON-compatible composite values.
func cloneAny(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneAny(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneAny(e)
		}
		return out
	default:
		return v
	}
}
