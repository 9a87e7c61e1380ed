package opcodes

import (
	"slices"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

func TestBuiltinNewNode(t *testing.T) {
	c := Builtin()
	n := c.NewNode("if", "n1")

	if n.Type != tree.TypeControlFlow {
		t.Errorf("Type = %v, want %v", n.Type, tree.TypeControlFlow)
	}
	if !tree.IsEmpty(n.Input("CONDITION")) {
		t.Errorf("CONDITION = %v, want empty", n.Input("CONDITION"))
	}
	var labels []string
	for _, b := range n.Branches {
		labels = append(labels, b.Label)
		if b.Head != nil {
			t.Errorf("branch %s should start empty", b.Label)
		}
	}
	if !slices.Equal(labels, []string{"THEN", "ELSE"}) {
		t.Errorf("branches = %v, want [THEN ELSE]", labels)
	}
}

func TestUnknownOpcode(t *testing.T) {
	c := Builtin()
	n := c.NewNode("custom_thing", "x")
	if n.Type != tree.TypeData || len(n.Inputs) != 0 {
		t.Errorf("unknown opcode node = %+v", n)
	}
	if c.ReturnType("custom_thing") != "" {
		t.Error("unknown opcode should have undeclared return type")
	}
	if c.ParamType("custom_thing", "A") != "" {
		t.Error("unknown opcode should have undeclared params")
	}
}

func TestTypes(t *testing.T) {
	c := Builtin()
	tests := []struct {
		opcode, key string
		param       string
		returns     string
	}{
		{"add", "LEFT", TypeNumber, TypeNumber},
		{"compare", "RIGHT", TypeAny, TypeBoolean},
		{"print", "MESSAGE", TypeString, ""},
		{"print", "NOPE", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.opcode+"."+tt.key, func(t *testing.T) {
			if got := c.ParamType(tt.opcode, tt.key); got != tt.param {
				t.Errorf("ParamType = %q, want %q", got, tt.param)
			}
			if got := c.ReturnType(tt.opcode); got != tt.returns {
				t.Errorf("ReturnType = %q, want %q", got, tt.returns)
			}
		})
	}
}

func TestRegisterOverrides(t *testing.T) {
	c := NewCatalog()
	c.Register(Spec{Opcode: "x", Returns: TypeString})
	c.Register(Spec{Opcode: "x", Returns: TypeNumber})
	if got := c.ReturnType("x"); got != TypeNumber {
		t.Errorf("ReturnType = %q, want %q", got, TypeNumber)
	}
	if !slices.Equal(c.Opcodes(), []string{"x"}) {
		t.Errorf("Opcodes() = %v", c.Opcodes())
	}
}
