package export

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

func node(id, opcode string, typ tree.NodeType) *tree.Node {
	return &tree.Node{ID: id, Opcode: opcode, Type: typ, Inputs: map[string]tree.Value{}}
}

// sample builds main: start -> check(if: THEN [say]) plus orphan spare, with
// check.CONDITION = cmp(compare) and cmp.LEFT = rnd(round).
func sample() *tree.Tree {
	start := node("start", "start", tree.TypeControlFlow)
	check := node("check", "if", tree.TypeControlFlow)
	say := node("say", "print", tree.TypeIO)
	cmp := node("cmp", "compare", tree.TypeOperator)
	rnd := node("rnd", "round", tree.TypeOperator)
	cmp.Inputs["LEFT"] = tree.Reporter{Node: rnd}
	check.Inputs["CONDITION"] = tree.Reporter{Node: cmp}
	say.Inputs["MESSAGE"] = tree.Literal{Value: "hi <there>"}
	check.Branches = []tree.Branch{{Label: "THEN", Head: say}}
	start.Next = check

	wf := tree.NewWorkflow(tree.MainWorkflow)
	wf.Roots = []*tree.Node{start, node("spare", "not", tree.TypeOperator)}
	return &tree.Tree{Workflows: []*tree.Workflow{wf}}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(), Options{})
	for _, want := range []string{
		`subgraph "cluster_0"`,
		`label="main"`,
		`"start" -> "check";`,
		`"check" -> "say" [label="THEN", style=bold];`,
		`"spare" [label="not", style="rounded,filled,dashed"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"cmp"`) {
		t.Error("reporters drawn without Options.Reporters")
	}
}

func TestToDOTReporters(t *testing.T) {
	dot := ToDOT(sample(), Options{Reporters: true, Detailed: true})
	for _, want := range []string{
		`"cmp" -> "check" [label="CONDITION", style=dashed, arrowhead=empty];`,
		`"rnd" -> "cmp" [label="LEFT", style=dashed, arrowhead=empty];`,
		`print (say)`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTNilTree(t *testing.T) {
	if dot := ToDOT(nil, Options{}); !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT(nil) = %q", dot)
	}
}

func TestCanvasSVG(t *testing.T) {
	tr := sample()
	l := layout.Compute(tr, layout.DefaultOptions())
	svg := string(CanvasSVG(tr, l, CanvasOptions{Padding: 10, Fields: true}))

	if n := strings.Count(svg, `<rect id="node-`); n != len(l.Boxes) {
		t.Errorf("drew %d nodes, want %d", n, len(l.Boxes))
	}
	if n := strings.Count(svg, `<path class="wire`); n != len(tr.Connections()) {
		t.Errorf("drew %d wires, want %d", n, len(tr.Connections()))
	}
	for _, want := range []string{`class="wire branch"`, `class="node orphan"`, `>CONDITION<`} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %s", want)
		}
	}
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("SVG is not a single root element")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="44pt" viewBox="0.00 0.00 62.00 44.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 44.00" width="62" height="44"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}
	if plain := []byte("<svg/>"); string(normalizeViewBox(plain)) != "<svg/>" {
		t.Error("svg without viewBox was modified")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}
