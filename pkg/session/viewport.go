package session

import (
	"context"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/slots"
)

// Viewport returns the canvas pan and zoom.
func (s *Session) Viewport() layout.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport
}

// SetViewport replaces the pan and zoom. The zoom is clamped and the slot
// registry is moved to the new screen positions.
func (s *Session) SetViewport(v layout.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.Zoom = layout.ClampZoom(v.Zoom)
	s.setViewport(v)
}

// Pan shifts the canvas by a screen-space delta.
func (s *Session) Pan(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.viewport
	v.PanX += dx
	v.PanY += dy
	s.setViewport(v)
}

// ZoomAt zooms by factor around a screen point.
func (s *Session) ZoomAt(anchor slots.Point, factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setViewport(s.viewport.ZoomAt(anchor, factor))
}

// Overview projects the current tree into a minimap frame.
func (s *Session) Overview(frameW, frameH, padding float64) *layout.Overview {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	o := layout.NewOverview(s.tree, s.layoutOp, frameW, frameH, padding)
	observability.Editor().OnLayout(context.Background(), "overview", len(o.Layout.Boxes), time.Since(start))
	return o
}

// NavigateOverview centres the canvas on the point under a minimap click.
func (s *Session) NavigateOverview(o *layout.Overview, click slots.Point, screenW, screenH float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setViewport(o.Navigate(s.viewport, click, screenW, screenH))
}

func (s *Session) setViewport(v layout.Viewport) {
	s.viewport = v
	if s.layout != nil {
		layout.Populate(s.registry, s.layout, v)
	}
}
