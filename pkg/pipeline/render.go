package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/export"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Render produces every format in opts.Formats. In overview mode pass the
// overview; json then encodes it and the canvas drawing uses its scaled
// layout.
func Render(ctx context.Context, t *tree.Tree, l *layout.Layout, ov *layout.Overview, opts Options) (map[string][]byte, error) {
	drawn := l
	if ov != nil {
		drawn = ov.Layout
	}
	dotOpts := export.Options{Detailed: opts.Detailed, Reporters: opts.Reporters}
	canvasOpts := export.CanvasOptions{Padding: opts.Padding, Fields: opts.Fields}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var canvasSVG []byte
	canvas := func() ([]byte, error) {
		if canvasSVG == nil {
			if drawn == nil {
				return nil, perr.New(perr.ErrCodeInternal, "no layout to draw")
			}
			canvasSVG = export.CanvasSVG(t, drawn, canvasOpts)
		}
		return canvasSVG, nil
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			if ov != nil {
				data, err = json.MarshalIndent(ov, "", "  ")
			} else {
				data, err = json.MarshalIndent(l, "", "  ")
			}
		case FormatDOT:
			data = []byte(export.ToDOT(t, dotOpts))
		case FormatSVG:
			data, err = export.RenderSVG(ctx, export.ToDOT(t, dotOpts))
		case FormatCanvas:
			data, err = canvas()
		case FormatPDF:
			if data, err = canvas(); err == nil {
				data, err = export.ToPDF(data)
			}
		case FormatPNG:
			if data, err = canvas(); err == nil {
				data, err = export.ToPNG(data, opts.PNGScale)
			}
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
