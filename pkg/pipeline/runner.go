package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowcanvas/pkg/cache"
	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/source"
	"github.com/matzehuels/flowcanvas/pkg/source/tomlsrc"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Runner executes pipeline stages with caching. It keeps no per-run state,
// so one Runner may serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Codec  source.Codec
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means [cache.DefaultKeyer] and a nil logger means log.Default(). The codec
// defaults to the TOML codec; set Runner.Codec to change it.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Codec:  tomlsrc.Codec{},
		Logger: logger,
	}
}

// Execute runs parse → layout → render.
func (r *Runner) Execute(ctx context.Context, text string, opts Options) (*Result, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	result := &Result{}

	parseStart := time.Now()
	t, hash, err := r.Parse(ctx, text)
	if err != nil {
		return nil, err
	}
	result.Tree = t
	result.SourceHash = hash
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Nodes = t.NodeCount()
	result.Stats.Workflows = len(t.Workflows)
	result.Stats.Connections = len(t.Connections())

	r.Logger.Debug("parsed source",
		"nodes", result.Stats.Nodes,
		"workflows", result.Stats.Workflows,
		"duration", result.Stats.ParseTime)

	layoutStart := time.Now()
	if opts.Mode == ModeOverview {
		result.Overview, result.CacheInfo.LayoutHit, err = r.OverviewWithCacheInfo(ctx, t, hash, opts)
	} else {
		result.Layout, result.CacheInfo.LayoutHit, err = r.LayoutWithCacheInfo(ctx, t, hash, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Debug("computed layout",
		"mode", opts.Mode,
		"cached", result.CacheInfo.LayoutHit,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	result.Artifacts, result.CacheInfo.RenderHit, err = r.RenderWithCacheInfo(ctx, t, hash, result.Layout, result.Overview, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", result.CacheInfo.RenderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse parses text and returns the tree with the hash of its canonical
// serialization, so sources differing only in formatting share cache
// entries.
func (r *Runner) Parse(ctx context.Context, text string) (*tree.Tree, string, error) {
	start := time.Now()
	t, err := r.Codec.Parse(text)
	n := 0
	if t != nil {
		n = t.NodeCount()
	}
	observability.Editor().OnParse(ctx, 0, n, time.Since(start), err)
	if err != nil {
		return nil, "", err
	}
	canonical, err := r.Codec.Serialize(t)
	if err != nil {
		return nil, "", perr.Wrap(perr.ErrCodeInternal, err, "serialize parsed tree")
	}
	return t, cache.Hash([]byte(canonical)), nil
}

// LayoutWithCacheInfo returns the canvas layout of t and whether it came
// from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, t *tree.Tree, sourceHash string, opts Options) (*layout.Layout, bool, error) {
	opts.Mode = ModeCanvas
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(sourceHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, true, nil
			}
		}
	}

	l := GenerateLayout(ctx, t, opts)
	if data, err := json.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache layout", "err", err)
		}
	}
	return l, false, nil
}

// OverviewWithCacheInfo returns the minimap projection of t and whether it
// came from the cache.
func (r *Runner) OverviewWithCacheInfo(ctx context.Context, t *tree.Tree, sourceHash string, opts Options) (*layout.Overview, bool, error) {
	opts.Mode = ModeOverview
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(sourceHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached layout.Overview
			if err := json.Unmarshal(data, &cached); err == nil && cached.Layout != nil {
				return &cached, true, nil
			}
		}
	}

	ov := GenerateOverview(ctx, t, opts)
	if data, err := json.Marshal(ov); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache overview", "err", err)
		}
	}
	return ov, false, nil
}

// RenderWithCacheInfo renders opts.Formats and reports whether every
// artifact came from the cache. Pass the overview in overview mode and the
// layout otherwise.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *tree.Tree, sourceHash string, l *layout.Layout, ov *layout.Overview, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	// Artifacts depend on the layout as well as the source.
	base := cache.Hash([]byte(r.Keyer.LayoutKey(sourceHash, opts.LayoutKeyOpts())))

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, t, l, ov, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		if err := r.Cache.Set(ctx, r.Keyer.ArtifactKey(base, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("cache artifact", "format", format, "err", err)
		}
	}
	return rendered, false, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
