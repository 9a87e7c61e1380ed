package tree

import "slices"

// Location describes where a node lives in the tree.
type Location struct {
	Workflow *Workflow
	Node     *Node

	// Root is the index into Workflow.Roots of the enclosing root chain.
	Root int

	// Prev is the chain predecessor; nil for the head of a sequence.
	Prev *Node

	// Owner and Branch identify the branch sequence containing the node.
	// Owner is nil for nodes in a root chain.
	Owner  *Node
	Branch string

	// Host and Path are set for reporters: Host is the layout node whose
	// inputs hold the reporter, Path the input keys leading to it.
	Host *Node
	Path []string
}

// IsReporter reports whether the node is an inline reporter value.
func (l Location) IsReporter() bool { return l.Host != nil }

// IsRootHead reports whether the node heads one of the workflow's root chains.
func (l Location) IsRootHead() bool {
	return !l.IsReporter() && l.Prev == nil && l.Owner == nil
}

// IsOrphan reports whether the node belongs to a root chain other than the
// start chain.
func (l Location) IsOrphan() bool {
	return !l.IsReporter() && l.Root > 0
}

// Walk visits every node in deterministic order: workflows in tree order,
// root chains in order, each chain in successor order; a node is visited
// before its reporters (inputs in sorted key order) and before its branches.
// Walk stops when fn returns false.
func (t *Tree) Walk(fn func(Location) bool) {
	w := walker{fn: fn}
	for _, wf := range t.Workflows {
		for i, root := range wf.Roots {
			if !w.chain(Location{Workflow: wf, Root: i}, root) {
				return
			}
		}
	}
}

type walker struct {
	fn func(Location) bool
}

func (w *walker) chain(base Location, head *Node) bool {
	var prev *Node
	for n := head; n != nil; n = n.Next {
		loc := base
		loc.Node = n
		loc.Prev = prev
		if !w.fn(loc) {
			return false
		}
		if !w.inputs(loc, n, n, nil) {
			return false
		}
		for _, b := range n.Branches {
			inner := Location{Workflow: base.Workflow, Root: base.Root, Owner: n, Branch: b.Label}
			if !w.chain(inner, b.Head) {
				return false
			}
		}
		prev = n
	}
	return true
}

func (w *walker) inputs(base Location, host, n *Node, prefix []string) bool {
	for _, key := range n.InputKeys() {
		path := append(slices.Clone(prefix), key)
		if !w.value(base, host, n.Inputs[key], path) {
			return false
		}
	}
	return true
}

func (w *walker) value(base Location, host *Node, v Value, path []string) bool {
	switch v := v.(type) {
	case Reporter:
		if v.Node == nil {
			return true
		}
		loc := Location{Workflow: base.Workflow, Node: v.Node, Root: base.Root, Host: host, Path: path}
		if !w.fn(loc) {
			return false
		}
		return w.inputs(base, host, v.Node, path)
	case WorkflowCall:
		for i, a := range v.Args {
			if !w.value(base, host, a, append(slices.Clone(path), ArgKey(i))) {
				return false
			}
		}
	case Literal, Variable, nil:
	}
	return true
}

// Index returns the location of every node keyed by ID.
func (t *Tree) Index() map[string]Location {
	idx := make(map[string]Location)
	t.Walk(func(loc Location) bool {
		idx[loc.Node.ID] = loc
		return true
	})
	return idx
}

// Find returns the location of the node with the given ID.
func (t *Tree) Find(id string) (Location, bool) {
	var (
		found Location
		ok    bool
	)
	t.Walk(func(loc Location) bool {
		if loc.Node.ID == id {
			found, ok = loc, true
			return false
		}
		return true
	})
	return found, ok
}

// Has reports whether a node with the given ID exists.
func (t *Tree) Has(id string) bool {
	_, ok := t.Find(id)
	return ok
}

// NodeCount returns the number of nodes, reporters included.
func (t *Tree) NodeCount() int {
	n := 0
	t.Walk(func(Location) bool { n++; return true })
	return n
}

// Ancestors returns the structural ancestors of the node with the given ID,
// nearest first: chain predecessors, branch owners and reporter hosts,
// followed transitively.
func (t *Tree) Ancestors(id string) []*Node {
	idx := t.Index()
	cur, ok := idx[id]
	if !ok {
		return nil
	}
	var out []*Node
	for {
		var up *Node
		switch {
		case cur.Prev != nil:
			up = cur.Prev
		case cur.Owner != nil:
			up = cur.Owner
		case cur.Host != nil:
			up = cur.Host
		}
		if up == nil {
			return out
		}
		out = append(out, up)
		cur = idx[up.ID]
	}
}

// IsAncestor reports whether ancestor is a structural ancestor of id.
func (t *Tree) IsAncestor(ancestor, id string) bool {
	return slices.ContainsFunc(t.Ancestors(id), func(n *Node) bool { return n.ID == ancestor })
}

// Subtree returns the IDs owned by n: its branch chains and reporters,
// recursively, excluding n itself and its successors.
func Subtree(n *Node) []string {
	var ids []string
	var visitValue func(v Value)
	var visitNode func(m *Node)
	var visitChain func(head *Node)

	visitValue = func(v Value) {
		switch v := v.(type) {
		case Reporter:
			if v.Node != nil {
				ids = append(ids, v.Node.ID)
				visitNode(v.Node)
			}
		case WorkflowCall:
			for _, a := range v.Args {
				visitValue(a)
			}
		case Literal, Variable, nil:
		}
	}
	visitNode = func(m *Node) {
		for _, key := range m.InputKeys() {
			visitValue(m.Inputs[key])
		}
		for _, b := range m.Branches {
			visitChain(b.Head)
		}
	}
	visitChain = func(head *Node) {
		for c := head; c != nil; c = c.Next {
			ids = append(ids, c.ID)
			visitNode(c)
		}
	}

	visitNode(n)
	return ids
}
