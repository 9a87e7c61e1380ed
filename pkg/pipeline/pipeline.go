// Package pipeline runs the parse → layout → render chain shared by the CLI
// and the HTTP server.
//
// Layouts and rendered artifacts are pure functions of the canonical source
// and the options, so a [Runner] caches both under keys derived from the
// source hash:
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(256), nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Formats: []string{pipeline.FormatCanvas},
//	})
//	svg := result.Artifacts[pipeline.FormatCanvas]
//
// The stages can also be run on their own with [Runner.Parse],
// [Runner.LayoutWithCacheInfo], [Runner.OverviewWithCacheInfo] and
// [Runner.RenderWithCacheInfo].
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Overview frame defaults.
const (
	DefaultFrameWidth  = 240.0
	DefaultFrameHeight = 160.0
	DefaultPadding     = 8.0
	DefaultPNGScale    = 2.0
)

// Layout modes.
const (
	ModeCanvas   = cache.ModeCanvas
	ModeOverview = cache.ModeOverview
)

// Output formats.
const (
	FormatJSON   = "json"   // the computed layout
	FormatDOT    = "dot"    // Graphviz source
	FormatSVG    = "svg"    // DOT rendered by Graphviz
	FormatCanvas = "canvas" // the canvas layout drawn as SVG
	FormatPDF    = "pdf"
	FormatPNG    = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:   true,
	FormatDOT:    true,
	FormatSVG:    true,
	FormatCanvas: true,
	FormatPDF:    true,
	FormatPNG:    true,
}

// ValidModes is the set of supported layout modes.
var ValidModes = map[string]bool{
	ModeCanvas:   true,
	ModeOverview: true,
}

// Options configures a pipeline run. It is accepted as JSON by the server.
type Options struct {
	// Layout
	Mode    string         `json:"mode,omitempty"`
	Layout  layout.Options `json:"layout"`
	Zoom    float64        `json:"zoom,omitempty"` // canvas mode: layout dimensions are scaled by Zoom
	FrameW  float64        `json:"frame_w,omitempty"`
	FrameH  float64        `json:"frame_h,omitempty"`
	Padding float64        `json:"padding,omitempty"`

	// Render
	Formats   []string `json:"formats,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Reporters bool     `json:"reporters,omitempty"`
	Fields    bool     `json:"fields,omitempty"`
	PNGScale  float64  `json:"png_scale,omitempty"`

	// Refresh skips cache lookups; results are still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result holds the outputs of [Runner.Execute].
type Result struct {
	Tree       *tree.Tree
	SourceHash string

	// Layout is set in canvas mode, Overview in overview mode.
	Layout   *layout.Layout
	Overview *layout.Overview

	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	Nodes       int
	Workflows   int
	Connections int
	ParseTime   time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return perr.New(perr.ErrCodeInvalidInput, "invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode checks that a layout mode is supported.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return perr.New(perr.ErrCodeInvalidInput, "invalid mode: %q (must be one of: canvas, overview)", mode)
	}
	return nil
}

func formatNames() []string {
	return []string{FormatJSON, FormatDOT, FormatSVG, FormatCanvas, FormatPDF, FormatPNG}
}

// SetLayoutDefaults fills unset layout fields.
func (o *Options) SetLayoutDefaults() {
	if o.Mode == "" {
		o.Mode = ModeCanvas
	}
	if o.Layout == (layout.Options{}) {
		o.Layout = layout.DefaultOptions()
	}
	o.Zoom = layout.ClampZoom(o.Zoom)
	if o.FrameW == 0 {
		o.FrameW = DefaultFrameWidth
	}
	if o.FrameH == 0 {
		o.FrameH = DefaultFrameHeight
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout applies layout defaults and validates the mode and
// frame.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.FrameW < 0 || o.FrameH < 0 || o.Padding < 0 {
		return perr.New(perr.ErrCodeInvalidInput, "overview frame must not be negative")
	}
	return nil
}

// SetRenderDefaults fills unset render fields.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatCanvas}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
}

// ValidateForRender applies every default and validates the formats.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// ZoomedLayout returns the layout dimensions used in canvas mode.
func (o *Options) ZoomedLayout() layout.Options {
	if o.Zoom == 1 {
		return o.Layout
	}
	return o.Layout.Scaled(o.Zoom)
}

// LayoutKeyOpts returns the cache key options of the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{Mode: o.Mode, Options: o.Layout}
	if o.Mode == ModeOverview {
		k.FrameW, k.FrameH, k.Padding = o.FrameW, o.FrameH, o.Padding
	} else {
		k.Zoom = o.Zoom
	}
	return k
}

// ArtifactKeyOpts returns the cache key options of one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatDOT, FormatSVG:
		k.Detailed, k.Reporters = o.Detailed, o.Reporters
	case FormatCanvas, FormatPDF, FormatPNG:
		k.Fields = o.Fields
	}
	if format == FormatPNG {
		k.Scale = o.PNGScale
	}
	return k
}
