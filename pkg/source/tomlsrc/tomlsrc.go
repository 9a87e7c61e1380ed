// Package tomlsrc is a reference [source.Codec] that stores workflow trees as
// TOML.
//
// Each workflow is a [[workflow]] table. Layout nodes (chain and branch
// members) are listed flat under [[workflow.node]] and linked by ID through
// next, branches and the workflow's roots list. Reporter nodes have no place
// of their own and are stored inline in the input that consumes them:
//
//	[[workflow]]
//	name = "main"
//	roots = ["start"]
//
//	[[workflow.node]]
//	id = "start"
//	opcode = "start"
//	type = "control_flow"
//	next = "greet"
//
//	[[workflow.node]]
//	id = "greet"
//	opcode = "print"
//	type = "io"
//
//	[workflow.node.inputs.MESSAGE]
//	kind = "literal"
//	value = "hello"
//
// Nodes that no link refers to are appended to the roots as orphan chains.
// An empty start chain is written as an empty first root ID, so a workflow
// whose roots are ["", "loose"] holds only the orphan chain "loose".
package tomlsrc

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/source"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

type document struct {
	Workflows []workflowDoc `toml:"workflow"`
}

type workflowDoc struct {
	Name      string              `toml:"name"`
	Inputs    []string            `toml:"inputs,omitempty"`
	Outputs   []string            `toml:"outputs,omitempty"`
	Roots     []string            `toml:"roots"`
	Variables map[string]valueDoc `toml:"variables,omitempty"`
	Nodes     []nodeDoc           `toml:"node,omitempty"`
}

type nodeDoc struct {
	ID       string              `toml:"id"`
	Opcode   string              `toml:"opcode"`
	Type     string              `toml:"type"`
	Next     string              `toml:"next,omitempty"`
	Branches []branchDoc         `toml:"branches,omitempty"`
	Inputs   map[string]valueDoc `toml:"inputs,omitempty"`
}

type branchDoc struct {
	Label string `toml:"label"`
	Head  string `toml:"head,omitempty"`
}

type valueDoc struct {
	Kind     string     `toml:"kind"`
	Value    any        `toml:"value"`
	Name     string     `toml:"name,omitempty"`
	Node     *nodeDoc   `toml:"node,omitempty"`
	Workflow string     `toml:"workflow,omitempty"`
	Args     []valueDoc `toml:"args,omitempty"`
}

// Codec parses and serializes TOML workflow sources.
type Codec struct{}

var _ source.Codec = Codec{}

// Serialize renders t as TOML.
func (Codec) Serialize(t *tree.Tree) (string, error) {
	if t == nil {
		return "", perr.New(perr.ErrCodeInvalidInput, "nil tree")
	}
	var doc document
	for _, wf := range t.Workflows {
		doc.Workflows = append(doc.Workflows, encodeWorkflow(wf))
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(doc); err != nil {
		return "", perr.Wrap(perr.ErrCodeInternal, err, "encode toml")
	}
	return buf.String(), nil
}

func encodeWorkflow(wf *tree.Workflow) workflowDoc {
	d := workflowDoc{
		Name:    wf.Name,
		Inputs:  wf.Interface.Inputs,
		Outputs: wf.Interface.Outputs,
		Roots:   make([]string, 0, len(wf.Roots)),
	}
	if len(wf.Variables) > 0 {
		d.Variables = make(map[string]valueDoc, len(wf.Variables))
		for k, v := range wf.Variables {
			d.Variables[k] = encodeValue(v)
		}
	}
	var visit func(head *tree.Node)
	visit = func(head *tree.Node) {
		for n := head; n != nil; n = n.Next {
			d.Nodes = append(d.Nodes, encodeNode(n, true))
			for _, b := range n.Branches {
				visit(b.Head)
			}
		}
	}
	for _, r := range wf.Roots {
		if r == nil {
			d.Roots = append(d.Roots, "")
			continue
		}
		d.Roots = append(d.Roots, r.ID)
		visit(r)
	}
	return d
}

func encodeNode(n *tree.Node, linked bool) nodeDoc {
	d := nodeDoc{ID: n.ID, Opcode: n.Opcode, Type: string(n.Type)}
	if linked {
		if n.Next != nil {
			d.Next = n.Next.ID
		}
		for _, b := range n.Branches {
			bd := branchDoc{Label: b.Label}
			if b.Head != nil {
				bd.Head = b.Head.ID
			}
			d.Branches = append(d.Branches, bd)
		}
	}
	if len(n.Inputs) > 0 {
		d.Inputs = make(map[string]valueDoc, len(n.Inputs))
		for _, k := range n.InputKeys() {
			d.Inputs[k] = encodeValue(n.Inputs[k])
		}
	}
	return d
}

func encodeValue(v tree.Value) valueDoc {
	switch v := v.(type) {
	case tree.Literal:
		return valueDoc{Kind: string(tree.KindLiteral), Value: v.Value}
	case tree.Variable:
		return valueDoc{Kind: string(tree.KindVariable), Name: v.Name}
	case tree.Reporter:
		if v.Node == nil {
			return valueDoc{Kind: string(tree.KindLiteral)}
		}
		nd := encodeNode(v.Node, false)
		return valueDoc{Kind: string(tree.KindReporter), Node: &nd}
	case tree.WorkflowCall:
		d := valueDoc{Kind: string(tree.KindWorkflowCall), Workflow: v.Workflow}
		for _, a := range v.Args {
			d.Args = append(d.Args, encodeValue(a))
		}
		return d
	case nil:
		return valueDoc{Kind: string(tree.KindLiteral)}
	}
	return valueDoc{Kind: string(tree.KindLiteral)}
}

// Parse decodes TOML text into a tree. Unknown keys, dangling links, nodes
// reachable twice and successor cycles are parse errors.
func (Codec) Parse(text string) (*tree.Tree, error) {
	var doc document
	md, err := toml.Decode(text, &doc)
	if err != nil {
		return nil, perr.Wrap(perr.ErrCodeParse, err, "decode toml")
	}
	if keys := unknownKeys(md); len(keys) > 0 {
		return nil, perr.New(perr.ErrCodeParse, "unknown keys: %s", strings.Join(keys, ", "))
	}

	t := &tree.Tree{}
	for _, wd := range doc.Workflows {
		wf, err := decodeWorkflow(wd)
		if err != nil {
			return nil, err
		}
		t.Workflows = append(t.Workflows, wf)
	}
	if err := t.Validate(); err != nil {
		return nil, perr.Wrap(perr.ErrCodeParse, err, "invalid tree")
	}
	return t, nil
}

// unknownKeys lists undecoded keys. Keys nested inside a literal's value
// table are free-form data and never count.
func unknownKeys(md toml.MetaData) []string {
	var out []string
	for _, k := range md.Undecoded() {
		if slices.Contains(k[:len(k)-1], "value") {
			continue
		}
		out = append(out, k.String())
	}
	return out
}

func decodeWorkflow(wd workflowDoc) (*tree.Workflow, error) {
	wf := tree.NewWorkflow(wd.Name)
	wf.Interface = tree.Interface{Inputs: wd.Inputs, Outputs: wd.Outputs}
	for k, vd := range wd.Variables {
		v, err := decodeValue(vd)
		if err != nil {
			return nil, fmt.Errorf("workflow %s variable %s: %w", wd.Name, k, err)
		}
		wf.Variables[k] = v
	}

	nodes := make(map[string]*tree.Node, len(wd.Nodes))
	order := make([]string, 0, len(wd.Nodes))
	for _, nd := range wd.Nodes {
		if _, dup := nodes[nd.ID]; dup {
			return nil, perr.New(perr.ErrCodeParse, "workflow %s: duplicate node %q", wd.Name, nd.ID)
		}
		n, err := decodeNode(nd)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", wd.Name, err)
		}
		nodes[nd.ID] = n
		order = append(order, nd.ID)
	}

	referenced := make(map[string]bool, len(nodes))
	link := func(from, to string) (*tree.Node, error) {
		if to == "" {
			return nil, nil
		}
		n, ok := nodes[to]
		if !ok {
			return nil, perr.New(perr.ErrCodeParse, "workflow %s: %s links to unknown node %q", wd.Name, from, to)
		}
		if referenced[to] {
			return nil, perr.New(perr.ErrCodeParse, "workflow %s: node %q is linked twice", wd.Name, to)
		}
		referenced[to] = true
		return n, nil
	}

	for _, nd := range wd.Nodes {
		n := nodes[nd.ID]
		next, err := link(nd.ID, nd.Next)
		if err != nil {
			return nil, err
		}
		n.Next = next
		for _, bd := range nd.Branches {
			head, err := link(nd.ID, bd.Head)
			if err != nil {
				return nil, err
			}
			n.Branches = append(n.Branches, tree.Branch{Label: bd.Label, Head: head})
		}
	}
	for i, id := range wd.Roots {
		head, err := link("roots", id)
		if err != nil {
			return nil, err
		}
		if head == nil && i > 0 {
			continue
		}
		wf.Roots = append(wf.Roots, head)
	}
	for _, id := range order {
		if referenced[id] {
			continue
		}
		// Unreferenced nodes are orphans; they never fill the start slot.
		if len(wf.Roots) == 0 {
			wf.Roots = append(wf.Roots, nil)
		}
		wf.Roots = append(wf.Roots, nodes[id])
		referenced[id] = true
	}
	if len(wf.Roots) == 1 && wf.Roots[0] == nil {
		wf.Roots = nil
	}

	// Every node is linked once, so a node not reachable from the roots
	// sits on a cycle.
	seen := 0
	var count func(head *tree.Node)
	count = func(head *tree.Node) {
		for n := head; n != nil; n = n.Next {
			seen++
			for _, b := range n.Branches {
				count(b.Head)
			}
		}
	}
	for _, r := range wf.Roots {
		count(r)
	}
	if seen != len(nodes) {
		return nil, perr.New(perr.ErrCodeParse, "workflow %s: %d nodes form a cycle", wd.Name, len(nodes)-seen)
	}
	return wf, nil
}

func decodeNode(nd nodeDoc) (*tree.Node, error) {
	n := &tree.Node{
		ID:     nd.ID,
		Opcode: nd.Opcode,
		Type:   tree.NodeType(nd.Type),
		Inputs: make(map[string]tree.Value, len(nd.Inputs)),
	}
	keys := make([]string, 0, len(nd.Inputs))
	for k := range nd.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := decodeValue(nd.Inputs[k])
		if err != nil {
			return nil, fmt.Errorf("node %s input %s: %w", nd.ID, k, err)
		}
		n.Inputs[k] = v
	}
	return n, nil
}

func decodeValue(vd valueDoc) (tree.Value, error) {
	switch tree.Kind(vd.Kind) {
	case tree.KindLiteral, "":
		return tree.Literal{Value: normalize(vd.Value)}, nil
	case tree.KindVariable:
		if !perr.IsIdentifier(vd.Name) {
			return nil, perr.New(perr.ErrCodeParse, "invalid variable name %q", vd.Name)
		}
		return tree.Variable{Name: vd.Name}, nil
	case tree.KindReporter:
		if vd.Node == nil {
			return nil, perr.New(perr.ErrCodeParse, "reporter without node")
		}
		if vd.Node.Next != "" || len(vd.Node.Branches) > 0 {
			return nil, perr.New(perr.ErrCodeParse, "reporter %s cannot have successors or branches", vd.Node.ID)
		}
		n, err := decodeNode(*vd.Node)
		if err != nil {
			return nil, err
		}
		return tree.Reporter{Node: n}, nil
	case tree.KindWorkflowCall:
		call := tree.WorkflowCall{Workflow: vd.Workflow}
		for _, ad := range vd.Args {
			a, err := decodeValue(ad)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, a)
		}
		return call, nil
	}
	return nil, perr.New(perr.ErrCodeParse, "unknown value kind %q", vd.Kind)
}

// normalize maps TOML scalars onto JSON-compatible values: integers become
// float64 and datetimes become RFC 3339 strings.
func normalize(v any) any {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	}
	return v
}
