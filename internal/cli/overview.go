package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/slots"
)

type overviewFile struct {
	SourceHash string           `json:"source_hash"`
	Overview   *layout.Overview `json:"overview"`
	Viewport   *layout.Viewport `json:"viewport,omitempty"`
}

// overviewCommand creates the overview command for minimap projections.
func (c *CLI) overviewCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		width   float64
		height  float64
		padding float64
		click   string
		screen  string
	)

	cmd := &cobra.Command{
		Use:   "overview [workflow.toml]",
		Short: "Fit the canvas into a minimap frame",
		Long: `Fit the canvas into a minimap frame.

The canvas is scaled down (never up) until its bounding box fits the frame
minus padding, then laid out again at that scale and centred.

With --click and --screen the command also prints the viewport that centres
the main canvas on the clicked minimap point.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			if cmd.Flags().Changed("width") {
				opts.FrameW = width
			}
			if cmd.Flags().Changed("height") {
				opts.FrameH = height
			}
			if cmd.Flags().Changed("padding") {
				opts.Padding = padding
			}
			var (
				at     *slots.Point
				sw, sh float64
			)
			if click != "" {
				p, err := parsePoint(click)
				if err != nil {
					return fmt.Errorf("--click: %w", err)
				}
				if sw, sh, err = parseSize(screen); err != nil {
					return fmt.Errorf("--screen is required with --click: %w", err)
				}
				at = &p
			}

			text, err := readSource(args[0])
			if err != nil {
				return err
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			return c.runOverview(cmd.Context(), runner, text, args[0], output, opts, at, sw, sh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.overview.json, - for stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&width, "width", 0, "frame width (default: overview.width from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "frame height (default: overview.height from config)")
	cmd.Flags().Float64Var(&padding, "padding", 0, "frame padding (default: overview.padding from config)")
	cmd.Flags().StringVar(&click, "click", "", "minimap click as x,y in frame coordinates")
	cmd.Flags().StringVar(&screen, "screen", "", "main canvas size as WxH, e.g. 1280x800")

	return cmd
}

func (c *CLI) runOverview(ctx context.Context, runner *pipeline.Runner, text, input, output string, opts pipeline.Options, click *slots.Point, screenW, screenH float64) error {
	prog := newProgress(loggerFromContext(ctx), "overview")
	t, hash, err := runner.Parse(ctx, text)
	if err != nil {
		prog.fail(err)
		return err
	}
	ov, cached, err := runner.OverviewWithCacheInfo(ctx, t, hash, opts)
	if err != nil {
		prog.fail(err)
		return err
	}
	prog.done("scale", ov.Scale, "cached", cached)

	doc := overviewFile{SourceHash: hash, Overview: ov}
	if click != nil {
		v := ov.Navigate(layout.Identity(), *click, screenW, screenH)
		doc.Viewport = &v
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivedPath(input, ".overview.json")
	}
	if err := writeJSONFile(outputPath, doc); err != nil {
		return err
	}
	if outputPath == "-" {
		return nil
	}

	printSuccess("Overview complete")
	printFile(outputPath)
	printKeyValue("Scale", strconv.FormatFloat(ov.Scale, 'f', 3, 64))
	printKeyValue("Frame", fmt.Sprintf("%gx%g", ov.FrameW, ov.FrameH))
	if doc.Viewport != nil {
		printKeyValue("Viewport", fmt.Sprintf("pan %g,%g zoom %g", doc.Viewport.PanX, doc.Viewport.PanY, doc.Viewport.Zoom))
	}
	printStats(statsOf(t), cached)
	return nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (slots.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return slots.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return slots.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return slots.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return slots.Point{X: x, Y: y}, nil
}

// parseSize parses "WxH" with both sides positive.
func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.ParseFloat(hs, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: must be positive", s)
	}
	return w, h, nil
}
