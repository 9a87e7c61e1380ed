package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// GenerateLayout computes the canvas layout of t at opts.Zoom.
func GenerateLayout(ctx context.Context, t *tree.Tree, opts Options) *layout.Layout {
	start := time.Now()
	l := layout.Compute(t, opts.ZoomedLayout())
	observability.Editor().OnLayout(ctx, ModeCanvas, len(l.Boxes), time.Since(start))
	return l
}

// GenerateOverview computes the minimap projection of t into the
// opts.FrameW x opts.FrameH frame.
func GenerateOverview(ctx context.Context, t *tree.Tree, opts Options) *layout.Overview {
	start := time.Now()
	ov := layout.NewOverview(t, opts.Layout, opts.FrameW, opts.FrameH, opts.Padding)
	observability.Editor().OnLayout(ctx, ModeOverview, len(ov.Layout.Boxes), time.Since(start))
	return ov
}
