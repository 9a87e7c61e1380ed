package layout_test

import (
	"fmt"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

func ExampleCompute() {
	hello := &tree.Node{ID: "hello", Opcode: "print", Type: tree.TypeIO,
		Inputs: map[string]tree.Value{"MESSAGE": tree.Literal{Value: "hi"}}}
	start := &tree.Node{ID: "start", Opcode: "start", Type: tree.TypeControlFlow, Next: hello}

	t := tree.New()
	t.Main().Roots = []*tree.Node{start}

	l := layout.Compute(t, layout.DefaultOptions())
	for _, b := range l.Boxes {
		fmt.Printf("%s at (%v, %v) size %vx%v\n", b.NodeID, b.Rect.X, b.Rect.Y, b.Rect.W, b.Rect.H)
	}
	// Output:
	// start at (0, 0) size 200x48
	// hello at (240, 0) size 200x72
}

func ExampleOverview_ToCanvas() {
	start := &tree.Node{ID: "start", Opcode: "start", Type: tree.TypeControlFlow}
	t := tree.New()
	t.Main().Roots = []*tree.Node{start}

	ov := layout.NewOverview(t, layout.DefaultOptions(), 100, 100, 0)
	fmt.Println("scale:", ov.Scale)

	// A click in the middle of the minimap lands in the middle of the canvas.
	fmt.Println(ov.ToCanvas(slots.Point{X: 50, Y: 50}))
	// Output:
	// scale: 0.5
	// {100 24}
}
