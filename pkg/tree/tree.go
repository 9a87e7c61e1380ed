package tree

import (
	"maps"
	"slices"
)

// MainWorkflow is the name of the workflow that cannot be deleted.
const MainWorkflow = "main"

// NodeType is the broad category of an operation node.
type NodeType string

// Node types.
const (
	TypeControlFlow NodeType = "control_flow"
	TypeData        NodeType = "data"
	TypeIO          NodeType = "io"
	TypeOperator    NodeType = "operator"
	TypeWorkflowOp  NodeType = "workflow_op"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeControlFlow, TypeData, TypeIO, TypeOperator, TypeWorkflowOp:
		return true
	}
	return false
}

// Tree is an ordered collection of workflows with unique names.
//
// The zero value is an empty tree; use [New] for a tree that already holds
// the main workflow.
type Tree struct {
	Workflows []*Workflow
}

// Interface declares the inputs a workflow accepts and the outputs it returns.
type Interface struct {
	Inputs  []string
	Outputs []string
}

// Workflow is a named sequence of root chains with a declared interface.
type Workflow struct {
	Name      string
	Interface Interface
	Variables map[string]Value
	Roots     []*Node
}

// Node is a single operation in a chain.
type Node struct {
	ID       string
	Opcode   string
	Type     NodeType
	Inputs   map[string]Value
	Branches []Branch
	Next     *Node
}

// Branch is a labelled alternate control path out of a node.
// A nil Head is an empty branch.
type Branch struct {
	Label string
	Head  *Node
}

// Connection is a directed link derived from the tree's successor and branch
// structure. Branch is empty for default successor links.
type Connection struct {
	From   string
	To     string
	Branch string
}

// New creates a tree containing an empty main workflow.
func New() *Tree {
	return &Tree{Workflows: []*Workflow{NewWorkflow(MainWorkflow)}}
}

// NewWorkflow creates an empty workflow with the given name.
func NewWorkflow(name string) *Workflow {
	return &Workflow{Name: name, Variables: map[string]Value{}}
}

// Workflow returns the workflow with the given name.
func (t *Tree) Workflow(name string) (*Workflow, bool) {
	for _, wf := range t.Workflows {
		if wf.Name == name {
			return wf, true
		}
	}
	return nil, false
}

// Main returns the main workflow, or nil if the tree has none.
func (t *Tree) Main() *Workflow {
	wf, _ := t.Workflow(MainWorkflow)
	return wf
}

// WorkflowNames returns workflow names in tree order.
func (t *Tree) WorkflowNames() []string {
	names := make([]string, len(t.Workflows))
	for i, wf := range t.Workflows {
		names[i] = wf.Name
	}
	return names
}

// Start returns the head of the workflow's start chain, or nil if empty.
func (w *Workflow) Start() *Node {
	if len(w.Roots) == 0 {
		return nil
	}
	return w.Roots[0]
}

// RootIndex returns the index of the root chain whose head is n, or -1.
func (w *Workflow) RootIndex(n *Node) int {
	if n == nil {
		return -1
	}
	return slices.Index(w.Roots, n)
}

// RemoveRoot removes the root chain at index i. While orphan chains remain,
// removing the start chain leaves Roots[0] nil instead of shifting the first
// orphan into the start position.
func (w *Workflow) RemoveRoot(i int) {
	if i < 0 || i >= len(w.Roots) {
		return
	}
	if i == 0 && len(w.Roots) > 1 {
		w.Roots[0] = nil
		return
	}
	w.Roots = append(w.Roots[:i], w.Roots[i+1:]...)
	if len(w.Roots) == 1 && w.Roots[0] == nil {
		w.Roots = nil
	}
}

// Branch returns a pointer to the branch with the given label.
// The pointer aliases the node's Branches slice.
func (n *Node) Branch(label string) (*Branch, bool) {
	for i := range n.Branches {
		if n.Branches[i].Label == label {
			return &n.Branches[i], true
		}
	}
	return nil, false
}

// InputKeys returns the node's input keys in sorted order.
func (n *Node) InputKeys() []string {
	return slices.Sorted(maps.Keys(n.Inputs))
}

// Input returns the value bound to key, or [Empty] when unset.
func (n *Node) Input(key string) Value {
	if v, ok := n.Inputs[key]; ok && v != nil {
		return v
	}
	return Empty()
}

// SetInput binds key to v, allocating the input map if needed.
func (n *Node) SetInput(key string, v Value) {
	if n.Inputs == nil {
		n.Inputs = map[string]Value{}
	}
	n.Inputs[key] = v
}

// Tail returns the last node of the chain starting at n.
func (n *Node) Tail() *Node {
	cur := n
	for cur.Next != nil {
		cur = cur.Next
	}
	return cur
}

// Chain returns the nodes of the chain starting at n in successor order.
func (n *Node) Chain() []*Node {
	var out []*Node
	for cur := n; cur != nil; cur = cur.Next {
		out = append(out, cur)
	}
	return out
}

// Connections returns every successor and branch link in walk order.
func (t *Tree) Connections() []Connection {
	var out []Connection
	t.Walk(func(loc Location) bool {
		if loc.IsReporter() {
			return true
		}
		n := loc.Node
		if n.Next != nil {
			out = append(out, Connection{From: n.ID, To: n.Next.ID})
		}
		for _, b := range n.Branches {
			if b.Head != nil {
				out = append(out, Connection{From: n.ID, To: b.Head.ID, Branch: b.Label})
			}
		}
		return true
	})
	return out
}

// HasConnection reports whether the given link exists.
func (t *Tree) HasConnection(c Connection) bool {
	return slices.Contains(t.Connections(), c)
}
