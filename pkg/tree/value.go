package tree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant of a [Value].
type Kind string

// Value kinds.
const (
	KindLiteral      Kind = "literal"
	KindVariable     Kind = "variable"
	KindReporter     Kind = "reporter"
	KindWorkflowCall Kind = "workflow_call"
)

// Value is the closed set of things an input can hold. The unexported marker
// method restricts implementations to [Literal], [Variable], [Reporter] and
// [WorkflowCall].
type Value interface {
	Kind() Kind
	value()
}

// Literal is a scalar or JSON-compatible value. A nil Value is the empty input.
type Literal struct {
	Value any
}

// Variable references a declared variable by name.
type Variable struct {
	Name string
}

// Reporter is an inline expression node contributing the input's value.
// The node has no place of its own in the canvas layout.
type Reporter struct {
	Node *Node
}

// WorkflowCall references another workflow; Args bind positionally to the
// callee's interface inputs as ARG1..ARGn.
type WorkflowCall struct {
	Workflow string
	Args     []Value
}

func (Literal) Kind() Kind      { return KindLiteral }
func (Variable) Kind() Kind     { return KindVariable }
func (Reporter) Kind() Kind     { return KindReporter }
func (WorkflowCall) Kind() Kind { return KindWorkflowCall }

func (Literal) value()      {}
func (Variable) value()     {}
func (Reporter) value()     {}
func (WorkflowCall) value() {}

// Empty returns the empty input value.
func Empty() Value { return Literal{} }

// IsEmpty reports whether v is nil, a nil literal or an empty string literal.
func IsEmpty(v Value) bool {
	lit, ok := v.(Literal)
	if v == nil {
		return true
	}
	if !ok {
		return false
	}
	if lit.Value == nil {
		return true
	}
	s, isString := lit.Value.(string)
	return isString && s == ""
}

// ArgKey returns the positional argument key for index i (0-based): ARG1, ARG2...
func ArgKey(i int) string {
	return "ARG" + strconv.Itoa(i+1)
}

// argIndex parses an ARGn key into a 0-based index.
func argIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "ARG")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Arg returns the argument bound to an ARGn key.
func (c WorkflowCall) Arg(key string) (Value, bool) {
	i, ok := argIndex(key)
	if !ok || i >= len(c.Args) {
		return nil, false
	}
	return c.Args[i], true
}

// Format renders v the way it is shown inside a node's input row.
func Format(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case Literal:
		if v.Value == nil {
			return ""
		}
		if s, ok := v.Value.(string); ok {
			return s
		}
		data, err := json.Marshal(v.Value)
		if err != nil {
			return fmt.Sprint(v.Value)
		}
		return string(data)
	case Variable:
		return "$" + v.Name
	case Reporter:
		if v.Node == nil {
			return "()"
		}
		return "(" + v.Node.Opcode + ")"
	case WorkflowCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = Format(a)
		}
		return v.Workflow + "(" + strings.Join(args, ", ") + ")"
	}
	return ""
}

// ValueAt resolves a path of input keys starting at n. Each segment after the
// first descends into a reporter's inputs or a workflow call's ARGn argument.
func ValueAt(n *Node, path []string) (Value, bool) {
	if n == nil || len(path) == 0 {
		return nil, false
	}
	v, ok := n.Inputs[path[0]]
	if !ok {
		return nil, false
	}
	return descend(v, path[1:])
}

func descend(v Value, rest []string) (Value, bool) {
	if len(rest) == 0 {
		return v, true
	}
	switch v := v.(type) {
	case Reporter:
		return ValueAt(v.Node, rest)
	case WorkflowCall:
		arg, ok := v.Arg(rest[0])
		if !ok {
			return nil, false
		}
		return descend(arg, rest[1:])
	case Literal, Variable, nil:
		return nil, false
	}
	return nil, false
}

// SetValueAt replaces the value at path, returning false if the path does not
// resolve to an existing input.
func SetValueAt(n *Node, path []string, nv Value) bool {
	if n == nil || len(path) == 0 {
		return false
	}
	v, ok := n.Inputs[path[0]]
	if !ok {
		return false
	}
	if len(path) == 1 {
		n.Inputs[path[0]] = nv
		return true
	}
	updated, ok := replaceIn(v, path[1:], nv)
	if !ok {
		return false
	}
	n.Inputs[path[0]] = updated
	return true
}

func replaceIn(v Value, rest []string, nv Value) (Value, bool) {
	switch v := v.(type) {
	case Reporter:
		return v, SetValueAt(v.Node, rest, nv)
	case WorkflowCall:
		i, ok := argIndex(rest[0])
		if !ok || i >= len(v.Args) {
			return nil, false
		}
		args := append([]Value(nil), v.Args...)
		if len(rest) == 1 {
			args[i] = nv
		} else {
			updated, ok := replaceIn(args[i], rest[1:], nv)
			if !ok {
				return nil, false
			}
			args[i] = updated
		}
		return WorkflowCall{Workflow: v.Workflow, Args: args}, true
	case Literal, Variable, nil:
		return nil, false
	}
	return nil, false
}
