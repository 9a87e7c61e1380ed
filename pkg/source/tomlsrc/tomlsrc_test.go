package tomlsrc

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

func node(id, opcode string, typ tree.NodeType) *tree.Node {
	return &tree.Node{ID: id, Opcode: opcode, Type: typ, Inputs: map[string]tree.Value{}}
}

// sample builds a tree that exercises every value kind:
//
//	main:   start -> check(if: THEN [say], ELSE []) -> call
//	        spare
//	helper: ret
func sample() *tree.Tree {
	start := node("start", "start", tree.TypeControlFlow)
	check := node("check", "if", tree.TypeControlFlow)
	say := node("say", "print", tree.TypeIO)
	call := node("call", "call_workflow", tree.TypeWorkflowOp)
	spare := node("spare", "not", tree.TypeOperator)

	cmp := node("cmp", "compare", tree.TypeOperator)
	rnd := node("rnd", "round", tree.TypeOperator)
	rnd.Inputs["VALUE"] = tree.Variable{Name: "y"}
	cmp.Inputs["LEFT"] = tree.Variable{Name: "x"}
	cmp.Inputs["RIGHT"] = tree.Reporter{Node: rnd}
	check.Inputs["CONDITION"] = tree.Reporter{Node: cmp}
	check.Branches = []tree.Branch{
		{Label: "THEN", Head: say},
		{Label: "ELSE"},
	}
	say.Inputs["MESSAGE"] = tree.Literal{Value: "hello"}
	call.Inputs["WORKFLOW"] = tree.WorkflowCall{
		Workflow: "helper",
		Args:     []tree.Value{tree.Variable{Name: "x"}, tree.Literal{Value: 2.5}},
	}
	spare.Inputs["VALUE"] = tree.Empty()

	start.Next = check
	check.Next = call

	main := tree.NewWorkflow(tree.MainWorkflow)
	main.Variables["x"] = tree.Literal{Value: 1.0}
	main.Variables["tags"] = tree.Literal{Value: []any{"a", "b"}}
	main.Roots = []*tree.Node{start, spare}

	helper := tree.NewWorkflow("helper")
	helper.Interface = tree.Interface{Inputs: []string{"a", "b"}, Outputs: []string{"sum"}}
	helper.Roots = []*tree.Node{node("ret", "return", tree.TypeControlFlow)}

	return &tree.Tree{Workflows: []*tree.Workflow{main, helper}}
}

func TestRoundTrip(t *testing.T) {
	var c Codec
	text, err := c.Serialize(sample())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := c.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, text)
	}

	again, err := c.Serialize(got)
	if err != nil {
		t.Fatalf("Serialize again: %v", err)
	}
	if again != text {
		t.Errorf("canonical form changed:\n--- first\n%s\n--- second\n%s", text, again)
	}

	if names := got.WorkflowNames(); !slices.Equal(names, []string{"main", "helper"}) {
		t.Errorf("WorkflowNames = %v", names)
	}
	main := got.Main()
	if len(main.Roots) != 2 || main.Roots[0].ID != "start" || main.Roots[1].ID != "spare" {
		t.Fatalf("main roots = %v", main.Roots)
	}

	var ids []string
	for _, n := range main.Roots[0].Chain() {
		ids = append(ids, n.ID)
	}
	if !slices.Equal(ids, []string{"start", "check", "call"}) {
		t.Errorf("start chain = %v", ids)
	}

	check, _ := got.Find("check")
	then, ok := check.Node.Branch("THEN")
	if !ok || then.Head == nil || then.Head.ID != "say" {
		t.Errorf("THEN branch = %+v", then)
	}
	if els, ok := check.Node.Branch("ELSE"); !ok || els.Head != nil {
		t.Errorf("ELSE branch = %+v, want empty", els)
	}

	rnd, ok := got.Find("rnd")
	if !ok || !rnd.IsReporter() || rnd.Host.ID != "cmp" {
		t.Errorf("rnd location = %+v", rnd)
	}

	call, _ := got.Find("call")
	wantCall := tree.WorkflowCall{
		Workflow: "helper",
		Args:     []tree.Value{tree.Variable{Name: "x"}, tree.Literal{Value: 2.5}},
	}
	if v := call.Node.Input("WORKFLOW"); !reflect.DeepEqual(v, wantCall) {
		t.Errorf("call input = %#v, want %#v", v, wantCall)
	}

	if v := main.Variables["tags"]; !reflect.DeepEqual(v, tree.Literal{Value: []any{"a", "b"}}) {
		t.Errorf("tags = %#v", v)
	}
	spare, _ := got.Find("spare")
	if v := spare.Node.Input("VALUE"); !tree.IsEmpty(v) {
		t.Errorf("spare VALUE = %#v, want empty", v)
	}

	helper, _ := got.Workflow("helper")
	if !slices.Equal(helper.Interface.Inputs, []string{"a", "b"}) || !slices.Equal(helper.Interface.Outputs, []string{"sum"}) {
		t.Errorf("helper interface = %+v", helper.Interface)
	}
}

func TestParseNormalizesScalars(t *testing.T) {
	text := `
[[workflow]]
name = "main"
roots = ["n"]

[[workflow.node]]
id = "n"
opcode = "print"
type = "io"

[workflow.node.inputs.MESSAGE]
kind = "literal"
value = 42

[workflow.node.inputs.WHEN]
kind = "literal"
value = 2024-05-01T10:00:00Z

[workflow.node.inputs.OPTS]
kind = "literal"
value = { retries = 3, verbose = true }
`
	got, err := Codec{}.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, _ := got.Find("n")
	tests := []struct {
		key  string
		want any
	}{
		{"MESSAGE", 42.0},
		{"WHEN", "2024-05-01T10:00:00Z"},
		{"OPTS", map[string]any{"retries": 3.0, "verbose": true}},
	}
	for _, tt := range tests {
		lit, ok := n.Node.Input(tt.key).(tree.Literal)
		if !ok {
			t.Errorf("%s is %T, want Literal", tt.key, n.Node.Input(tt.key))
			continue
		}
		if !reflect.DeepEqual(lit.Value, tt.want) {
			t.Errorf("%s = %#v, want %#v", tt.key, lit.Value, tt.want)
		}
	}
}

func TestParseUnreferencedNodesBecomeOrphans(t *testing.T) {
	text := `
[[workflow]]
name = "main"
roots = ["a"]

[[workflow.node]]
id = "a"
opcode = "start"
type = "control_flow"

[[workflow.node]]
id = "loose"
opcode = "print"
type = "io"
next = "tail"

[[workflow.node]]
id = "tail"
opcode = "print"
type = "io"
`
	got, err := Codec{}.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	roots := got.Main().Roots
	if len(roots) != 2 || roots[1].ID != "loose" || roots[1].Next == nil || roots[1].Next.ID != "tail" {
		t.Errorf("roots = %v, want [a loose->tail]", roots)
	}
}

func TestParseErrors(t *testing.T) {
	const head = "[[workflow]]\nname = \"main\"\n"
	tests := []struct {
		name string
		text string
		want string
	}{
		{"syntax", "[[workflow", "decode toml"},
		{"unknown key", head + "roots = []\ncolour = \"red\"\n", "unknown keys: workflow.colour"},
		{"no main", "[[workflow]]\nname = \"other\"\nroots = []\n", "no main workflow"},
		{
			"dangling next",
			head + "roots = [\"a\"]\n[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"io\"\nnext = \"ghost\"\n",
			`unknown node "ghost"`,
		},
		{
			"linked twice",
			head + "roots = [\"a\", \"b\"]\n" +
				"[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"io\"\nnext = \"b\"\n" +
				"[[workflow.node]]\nid = \"b\"\nopcode = \"print\"\ntype = \"io\"\n",
			`node "b" is linked twice`,
		},
		{
			"cycle",
			head + "roots = []\n" +
				"[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"io\"\nnext = \"b\"\n" +
				"[[workflow.node]]\nid = \"b\"\nopcode = \"print\"\ntype = \"io\"\nnext = \"a\"\n",
			"form a cycle",
		},
		{
			"duplicate node",
			head + "roots = []\n" +
				"[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"io\"\n" +
				"[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"io\"\n",
			`duplicate node "a"`,
		},
		{
			"bad variable",
			head + "roots = []\n[workflow.variables.v]\nkind = \"variable\"\nname = \"2x\"\n",
			`invalid variable name "2x"`,
		},
		{
			"unknown kind",
			head + "roots = []\n[workflow.variables.v]\nkind = \"blob\"\n",
			`unknown value kind "blob"`,
		},
		{
			"bad node type",
			head + "roots = [\"a\"]\n[[workflow.node]]\nid = \"a\"\nopcode = \"print\"\ntype = \"widget\"\n",
			"invalid node type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Codec{}.Parse(tt.text)
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
			if code := perr.GetCode(err); code != perr.ErrCodeParse {
				t.Errorf("code = %s, want %s", code, perr.ErrCodeParse)
			}
		})
	}
}

func TestSerializeNil(t *testing.T) {
	if _, err := (Codec{}).Serialize(nil); err == nil {
		t.Error("Serialize(nil) succeeded, want error")
	}
}

func TestParseWithoutRootsKeepsStartEmpty(t *testing.T) {
	text := `
[[workflow]]
name = "main"
roots = []

[[workflow.node]]
id = "loose"
opcode = "print"
type = "io"
`
	got, err := Codec{}.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	main := got.Main()
	if main.Start() != nil {
		t.Errorf("Start() = %s, want nil", main.Start().ID)
	}
	if loc, ok := got.Find("loose"); !ok || !loc.IsOrphan() {
		t.Errorf("loose orphan = false, want true")
	}
}

func TestEmptyStartRoundTrip(t *testing.T) {
	tr := tree.New()
	tr.Main().Roots = []*tree.Node{nil, node("loose", "print", tree.TypeIO)}

	var c Codec
	text, err := c.Serialize(tr)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(text, `roots = ["", "loose"]`) {
		t.Errorf("serialized roots missing empty start:\n%s", text)
	}
	got, err := c.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, text)
	}
	roots := got.Main().Roots
	if len(roots) != 2 || roots[0] != nil || roots[1].ID != "loose" {
		t.Errorf("roots = %v, want [<empty> loose]", roots)
	}
}
