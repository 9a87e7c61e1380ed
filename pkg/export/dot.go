package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the node ID and formatted inputs to each label. When
	// false only the opcode is shown.
	Detailed bool

	// Reporters draws reporter nodes with a dashed edge into the input
	// consuming them.
	Reporters bool
}

// ToDOT converts a tree to Graphviz DOT. Each workflow becomes a cluster;
// successor links are solid edges, branch links are labelled with the
// branch name and orphan chains have dashed outlines.
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if t == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	for i, wf := range t.Workflows {
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", wf.Name)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		t.Walk(func(loc tree.Location) bool {
			if loc.Workflow != wf {
				return true
			}
			if loc.IsReporter() && !opts.Reporters {
				return true
			}
			n := loc.Node
			attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
			switch {
			case loc.IsReporter():
				attrs = append(attrs, "shape=ellipse", "fillcolor=lightyellow")
			case inOrphanChain(loc):
				attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
			}
			if color := typeColor(n.Type); color != "" && !loc.IsReporter() {
				attrs = append(attrs, "color="+color)
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(attrs, ", "))
			return true
		})
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, c := range t.Connections() {
		if c.Branch == "" {
			fmt.Fprintf(&buf, "  %q -> %q;\n", c.From, c.To)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=bold];\n", c.From, c.To, c.Branch)
		}
	}
	if opts.Reporters {
		t.Walk(func(loc tree.Location) bool {
			if loc.IsReporter() {
				consumer := directConsumer(loc)
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, arrowhead=empty];\n",
					loc.Node.ID, consumer.ID, loc.Path[len(loc.Path)-1])
			}
			return true
		})
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.Node, detailed bool) string {
	if !detailed {
		return n.Opcode
	}
	parts := []string{n.Opcode + " (" + n.ID + ")"}
	for _, k := range n.InputKeys() {
		parts = append(parts, fmt.Sprintf("%s: %s", k, tree.Format(n.Inputs[k])))
	}
	return strings.Join(parts, "\n")
}

// directConsumer returns the node whose input holds the reporter at loc:
// the host, or the innermost reporter enclosing it.
func directConsumer(loc tree.Location) *tree.Node {
	consumer := loc.Host
	for k := 1; k < len(loc.Path); k++ {
		if rep, ok := tree.ValueAt(loc.Host, loc.Path[:k]); ok {
			if r, ok := rep.(tree.Reporter); ok && r.Node != nil {
				consumer = r.Node
			}
		}
	}
	return consumer
}

// inOrphanChain reports whether loc sits in a chain that is not the start
// chain of its workflow.
func inOrphanChain(loc tree.Location) bool {
	return loc.Root > 0
}

func typeColor(t tree.NodeType) string {
	switch t {
	case tree.TypeControlFlow:
		return "goldenrod"
	case tree.TypeIO:
		return "steelblue"
	case tree.TypeOperator:
		return "seagreen"
	case tree.TypeWorkflowOp:
		return "purple"
	}
	return ""
}
