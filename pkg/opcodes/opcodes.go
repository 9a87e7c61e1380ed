// Package opcodes describes the operations a workflow node can perform: their
// node type, declared parameters and return type, and branch labels.
//
// The catalog is what gives the port matcher something to compare: a
// reporter's declared return type against the consuming input's declared
// parameter type. Opcodes missing from the catalog are still valid nodes;
// their types are simply undeclared.
package opcodes

import (
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Declared value types. An empty type is undeclared.
const (
	TypeAny     = "any"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeList    = "list"
	TypeObject  = "object"
)

// Param is a declared node input.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Spec describes one opcode.
type Spec struct {
	Opcode   string        `json:"opcode"`
	Type     tree.NodeType `json:"type"`
	Params   []Param       `json:"params,omitempty"`
	Returns  string        `json:"returns,omitempty"`  // declared return type; empty for statement-only opcodes
	Branches []string      `json:"branches,omitempty"` // branch labels, in display order

	// Defines names the input whose literal value is the variable this
	// opcode assigns, if any.
	Defines string `json:"defines,omitempty"`
}

// Param returns the declared parameter with the given name.
func (s Spec) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// NewNode creates a node for this opcode with empty inputs and empty branches.
func (s Spec) NewNode(id string) *tree.Node {
	n := &tree.Node{ID: id, Opcode: s.Opcode, Type: s.Type, Inputs: map[string]tree.Value{}}
	for _, p := range s.Params {
		n.Inputs[p.Name] = tree.Empty()
	}
	for _, label := range s.Branches {
		n.Branches = append(n.Branches, tree.Branch{Label: label})
	}
	return n
}

// Catalog is a set of opcode specs. It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewCatalog creates a catalog holding the given specs.
func NewCatalog(specs ...Spec) *Catalog {
	c := &Catalog{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		c.specs[s.Opcode] = s
	}
	return c
}

// Register adds or replaces a spec.
func (c *Catalog) Register(s Spec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs[s.Opcode] = s
}

// Lookup returns the definition of an opcode.
func (c *Catalog) Lookup(opcode string) (Spec, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.specs[opcode]
	return s, ok
}

// Opcodes returns all registered opcodes in sorted order.
func (c *Catalog) Opcodes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.specs))
}

// NewNode creates a node for opcode. Unknown opcodes produce a data node
// with no inputs.
func (c *Catalog) NewNode(opcode, id string) *tree.Node {
	if s, ok := c.Lookup(opcode); ok {
		return s.NewNode(id)
	}
	return &tree.Node{ID: id, Opcode: opcode, Type: tree.TypeData, Inputs: map[string]tree.Value{}}
}

// ReturnType returns the declared return type for opcode, or "" if undeclared.
func (c *Catalog) ReturnType(opcode string) string {
	s, _ := c.Lookup(opcode)
	return s.Returns
}

// ParamType returns the declared type of opcode's input key, or "" if undeclared.
func (c *Catalog) ParamType(opcode, key string) string {
	s, ok := c.Lookup(opcode)
	if !ok {
		return ""
	}
	p, _ := s.Param(key)
	return p.Type
}

// CallOpcode is the opcode of nodes that invoke another workflow.
const CallOpcode = "call_workflow"

// CallInput is the input key holding a call node's [tree.WorkflowCall].
const CallInput = "WORKFLOW"

// Builtin returns the catalog of standard opcodes.
func Builtin() *Catalog {
	return NewCatalog(
		Spec{Opcode: "start", Type: tree.TypeControlFlow},
		Spec{Opcode: "if", Type: tree.TypeControlFlow,
			Params:   []Param{{Name: "CONDITION", Type: TypeBoolean}},
			Branches: []string{"THEN", "ELSE"}},
		Spec{Opcode: "repeat", Type: tree.TypeControlFlow,
			Params:   []Param{{Name: "TIMES", Type: TypeInteger}},
			Branches: []string{"BODY"}},
		Spec{Opcode: "for_each", Type: tree.TypeControlFlow,
			Params:   []Param{{Name: "ITEMS", Type: TypeList}, {Name: "ITEM", Type: TypeString}},
			Branches: []string{"BODY"}, Defines: "ITEM"},
		Spec{Opcode: "set_variable", Type: tree.TypeData,
			Params: []Param{{Name: "VAR", Type: TypeString}, {Name: "VALUE", Type: TypeAny}},
			Defines: "VAR"},
		Spec{Opcode: "get_variable", Type: tree.TypeData,
			Params: []Param{{Name: "VAR", Type: TypeString}}, Returns: TypeAny},
		Spec{Opcode: "print", Type: tree.TypeIO,
			Params: []Param{{Name: "MESSAGE", Type: TypeString}}},
		Spec{Opcode: "prompt", Type: tree.TypeIO,
			Params: []Param{{Name: "QUESTION", Type: TypeString}}, Returns: TypeString},
		Spec{Opcode: "http_get", Type: tree.TypeIO,
			Params: []Param{{Name: "URL", Type: TypeString}}, Returns: TypeObject},
		Spec{Opcode: "add", Type: tree.TypeOperator,
			Params: []Param{{Name: "LEFT", Type: TypeNumber}, {Name: "RIGHT", Type: TypeNumber}}, Returns: TypeNumber},
		Spec{Opcode: "multiply", Type: tree.TypeOperator,
			Params: []Param{{Name: "LEFT", Type: TypeNumber}, {Name: "RIGHT", Type: TypeNumber}}, Returns: TypeNumber},
		Spec{Opcode: "round", Type: tree.TypeOperator,
			Params: []Param{{Name: "VALUE", Type: TypeNumber}}, Returns: TypeInteger},
		Spec{Opcode: "compare", Type: tree.TypeOperator,
			Params: []Param{{Name: "LEFT", Type: TypeAny}, {Name: "RIGHT", Type: TypeAny}}, Returns: TypeBoolean},
		Spec{Opcode: "not", Type: tree.TypeOperator,
			Params: []Param{{Name: "VALUE", Type: TypeBoolean}}, Returns: TypeBoolean},
		Spec{Opcode: "concat", Type: tree.TypeOperator,
			Params: []Param{{Name: "LEFT", Type: TypeString}, {Name: "RIGHT", Type: TypeString}}, Returns: TypeString},
		Spec{Opcode: "length", Type: tree.TypeOperator,
			Params: []Param{{Name: "VALUE", Type: TypeList}}, Returns: TypeInteger},
		Spec{Opcode: CallOpcode, Type: tree.TypeWorkflowOp,
			Params: []Param{{Name: CallInput}}},
		Spec{Opcode: "return", Type: tree.TypeWorkflowOp,
			Params: []Param{{Name: "VALUE", Type: TypeAny}}},
	)
}
