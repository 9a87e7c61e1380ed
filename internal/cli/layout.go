package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// layoutFile is the JSON document written by the layout command.
type layoutFile struct {
	SourceHash string                     `json:"source_hash"`
	Viewport   layout.Viewport            `json:"viewport"`
	Layout     *layout.Layout             `json:"layout"`
	Slots      map[string]slots.NodeSlots `json:"slots"`
}

// layoutCommand creates the layout command for computing canvas layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		noCache  bool
		refresh  bool
		viewport layout.Viewport
	)

	cmd := &cobra.Command{
		Use:   "layout [workflow.toml]",
		Short: "Compute the canvas layout of a workflow source",
		Long: `Compute the canvas layout of a workflow source.

Every workflow is placed in its own frame; within a frame successor chains
run left to right and branch bodies hang below the node that owns them.
Orphan chains are laid out to the right of the start chain.

The output is a JSON document with the node boxes, the workflow frames and
the screen-space anchor of every port under the given viewport.

Results are cached locally, keyed by the canonical form of the source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, refresh, viewport)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().Float64Var(&viewport.PanX, "pan-x", 0, "viewport pan, x")
	cmd.Flags().Float64Var(&viewport.PanY, "pan-y", 0, "viewport pan, y")
	cmd.Flags().Float64Var(&viewport.Zoom, "zoom", 1, "viewport zoom")

	return cmd
}

// runLayout parses the source, computes the layout and writes the output.
func (c *CLI) runLayout(ctx context.Context, input, output string, noCache, refresh bool, v layout.Viewport) error {
	text, err := readSource(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.baseOptions()
	opts.Refresh = refresh

	prog := newProgress(loggerFromContext(ctx), "layout")
	t, hash, err := runner.Parse(ctx, text)
	if err != nil {
		prog.fail(err)
		return err
	}
	l, cached, err := runner.LayoutWithCacheInfo(ctx, t, hash, opts)
	if err != nil {
		prog.fail(err)
		return err
	}
	stats := statsOf(t)
	prog.done("nodes", stats.Nodes, "cached", cached)

	v.Zoom = layout.ClampZoom(v.Zoom)
	doc := layoutFile{
		SourceHash: hash,
		Viewport:   v,
		Layout:     l,
		Slots:      layout.Slots(l, v),
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivedPath(input, ".layout.json")
	}
	if err := writeJSONFile(outputPath, doc); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(stats, cached)
	printNewline()
	printNextStep("Export", appName+" export "+input)
	return nil
}

// derivedPath names an output file after its input. Stdin input writes to
// stdout.
func derivedPath(input, suffix string) string {
	if input == "-" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

func statsOf(t *tree.Tree) pipeline.Stats {
	return pipeline.Stats{
		Nodes:       t.NodeCount(),
		Workflows:   len(t.Workflows),
		Connections: len(t.Connections()),
	}
}
