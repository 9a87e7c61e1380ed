package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowcanvas/pkg/pipeline"
)

// exportCommand creates the export command for rendering diagrams.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		flags      pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "export [workflow.toml]",
		Short: "Render a workflow source to diagrams",
		Long: `Render a workflow source to diagrams.

Formats:
  canvas  SVG drawn from the canvas layout, with frames, boxes and wires
  svg     SVG laid out by Graphviz from the dot output
  dot     Graphviz DOT, one cluster per workflow
  json    the layout (or overview) document
  pdf     the canvas drawing as PDF (requires rsvg-convert)
  png     the canvas drawing as PNG (requires rsvg-convert)

With several formats, -o is a base path and each file gets its format's
extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions()
			opts.Mode = flags.Mode
			opts.Zoom = flags.Zoom
			opts.Detailed = flags.Detailed
			opts.Reporters = flags.Reporters
			opts.Fields = flags.Fields
			opts.PNGScale = flags.PNGScale
			opts.Refresh = flags.Refresh
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateMode(opts.Mode); err != nil {
				return err
			}
			return c.runExport(cmd.Context(), args[0], output, noCache, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): canvas (default), svg, dot, json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.Refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", pipeline.ModeCanvas, "layout mode: canvas, overview")
	cmd.Flags().Float64Var(&flags.Zoom, "zoom", 1, "scale the canvas drawing")
	cmd.Flags().BoolVar(&flags.Detailed, "detailed", false, "show node IDs and inputs (dot, svg)")
	cmd.Flags().BoolVar(&flags.Reporters, "reporters", false, "draw reporter nodes (dot, svg)")
	cmd.Flags().BoolVar(&flags.Fields, "fields", false, "print input rows inside node boxes (canvas)")
	cmd.Flags().Float64Var(&flags.PNGScale, "png-scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")

	return cmd
}

// formatExt maps formats to file extensions.
var formatExt = map[string]string{
	pipeline.FormatJSON:   ".json",
	pipeline.FormatDOT:    ".dot",
	pipeline.FormatSVG:    ".svg",
	pipeline.FormatCanvas: ".canvas.svg",
	pipeline.FormatPDF:    ".pdf",
	pipeline.FormatPNG:    ".png",
}

func (c *CLI) runExport(ctx context.Context, input, output string, noCache bool, opts pipeline.Options) error {
	text, err := readSource(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	prog := newProgress(loggerFromContext(ctx), "export")
	res, err := runner.Execute(ctx, text, opts)
	if err != nil {
		spinner.StopWithError("Export failed")
		prog.fail(err)
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done("formats", opts.Formats, "layout_cached", res.CacheInfo.LayoutHit, "render_cached", res.CacheInfo.RenderHit)

	var written []string
	if len(opts.Formats) == 1 {
		format := opts.Formats[0]
		path := output
		if path == "" {
			path = derivedPath(input, formatExt[format])
		}
		if err := writeFile(path, res.Artifacts[format]); err != nil {
			return err
		}
		if path == "-" {
			return nil
		}
		written = append(written, path)
	} else {
		base := basePath(output, input)
		for _, format := range opts.Formats {
			path := base + formatExt[format]
			if err := writeFile(path, res.Artifacts[format]); err != nil {
				return err
			}
			written = append(written, path)
		}
	}

	printSuccess("Export complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(res.Stats, res.CacheInfo.RenderHit)
	return nil
}

// basePath derives the base output path for multi-format exports. A known
// format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" || output == "-" {
		if input == "-" {
			return "workflow"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// .canvas.svg before .svg
	for _, format := range []string{pipeline.FormatCanvas, pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG} {
		if ext := formatExt[format]; strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}
