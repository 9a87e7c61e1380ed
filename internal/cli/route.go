package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/route"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// routeCommand creates the route command for computing wire curves.
func (c *CLI) routeCommand() *cobra.Command {
	var (
		from, to string
		all      bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "route [workflow.toml]",
		Short: "Route wires between node ports",
		Long: `Route wires between node ports.

Endpoints are written NODE.PORT, where PORT is input, output, branch:LABEL
or field:KEY, or as a canvas point x,y. Without --from and --to (or with
--all) every connection of the source is routed.

Each wire is printed with its shape (horizontal, vertical or loop) and its
SVG path data.`,
		Example: `  flowcanvas route loop.toml --from start.output --to check.input
  flowcanvas route loop.toml --from check.branch:THEN --to 300,200
  flowcanvas route loop.toml --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (from == "") != (to == "") {
				return fmt.Errorf("--from and --to go together")
			}
			return c.runRoute(cmd.Context(), args[0], from, to, all || from == "", noCache)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source endpoint, NODE.PORT or x,y")
	cmd.Flags().StringVar(&to, "to", "", "target endpoint, NODE.PORT or x,y")
	cmd.Flags().BoolVar(&all, "all", false, "route every connection")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, input, from, to string, all, noCache bool) error {
	text, err := readSource(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	t, hash, err := runner.Parse(ctx, text)
	if err != nil {
		return err
	}
	l, _, err := runner.LayoutWithCacheInfo(ctx, t, hash, c.baseOptions())
	if err != nil {
		return err
	}
	reg := slots.NewRegistry()
	layout.Populate(reg, l, layout.Identity())

	if from != "" {
		src, err := parseEndpoint(from)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		dst, err := parseEndpoint(to)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		curve, ok := route.Wire(reg, src, dst)
		if !ok {
			return fmt.Errorf("no route from %s to %s", from, to)
		}
		printWire(from, to, "", curve)
	}
	if !all {
		return nil
	}

	routed := 0
	for _, conn := range t.Connections() {
		src, dst := connectionEndpoints(conn)
		curve, ok := route.Wire(reg, src, dst)
		if !ok {
			loggerFromContext(ctx).Warn("unroutable connection", "from", conn.From, "to", conn.To)
			continue
		}
		printWire(conn.From, conn.To, conn.Branch, curve)
		routed++
	}
	printNewline()
	printSuccess("Routed %s", plural(routed, "wire"))
	return nil
}

func connectionEndpoints(c tree.Connection) (route.Endpoint, route.Endpoint) {
	from := route.Slot(c.From, slots.Output)
	if c.Branch != "" {
		from = route.Slot(c.From, slots.BranchPort(c.Branch))
	}
	return from, route.Slot(c.To, slots.Input)
}

// parseEndpoint parses NODE.PORT or x,y.
func parseEndpoint(s string) (route.Endpoint, error) {
	if p, err := parsePoint(s); err == nil {
		return route.At(p.X, p.Y), nil
	}
	node, portName, ok := strings.Cut(s, ".")
	if !ok || node == "" {
		return route.Endpoint{}, fmt.Errorf("endpoint %q: want NODE.PORT or x,y", s)
	}
	port, err := slots.ParsePort(portName)
	if err != nil {
		return route.Endpoint{}, fmt.Errorf("endpoint %q: %w", s, err)
	}
	return route.Slot(node, port), nil
}

func printWire(from, to, branch string, c route.Curve) {
	label := from + " " + iconArrow + " " + to
	if branch != "" {
		label += " " + StyleBranch.Render("["+branch+"]")
	}
	fmt.Println(StyleValue.Render(label) + "  " + StyleHighlight.Render(c.Shape.String()))
	printDetail("%s", c.Path())
}
