package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowcanvas/pkg/buildinfo"
	"github.com/matzehuels/flowcanvas/pkg/cache"
	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/match"
	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/pipeline"
	"github.com/matzehuels/flowcanvas/pkg/route"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// sourceRequest is the common request body.
type sourceRequest struct {
	Source   string           `json:"source"`
	Options  pipeline.Options `json:"options"`
	Viewport layout.Viewport  `json:"viewport"`
}

type layoutResponse struct {
	SourceHash string                     `json:"source_hash"`
	Cached     bool                       `json:"cached"`
	Layout     *layout.Layout             `json:"layout"`
	Slots      map[string]slots.NodeSlots `json:"slots"`
}

type overviewRequest struct {
	sourceRequest
	ScreenW float64      `json:"screen_w"`
	ScreenH float64      `json:"screen_h"`
	Click   *slots.Point `json:"click,omitempty"`
}

type overviewResponse struct {
	SourceHash string           `json:"source_hash"`
	Cached     bool             `json:"cached"`
	Overview   *layout.Overview `json:"overview"`
	Viewport   *layout.Viewport `json:"viewport,omitempty"`
}

type endpoint struct {
	Node  string       `json:"node,omitempty"`
	Port  string       `json:"port,omitempty"`
	Point *slots.Point `json:"point,omitempty"`
}

type routeRequest struct {
	sourceRequest
	From endpoint `json:"from"`
	To   endpoint `json:"to"`
}

type wire struct {
	From   string      `json:"from,omitempty"`
	To     string      `json:"to,omitempty"`
	Branch string      `json:"branch,omitempty"`
	Shape  string      `json:"shape"`
	Path   string      `json:"path"`
	Start  slots.Point `json:"start"`
	End    slots.Point `json:"end"`
}

type snapRequest struct {
	sourceRequest
	Pointer slots.Point `json:"pointer"`
	Node    string      `json:"node,omitempty"`
	Port    string      `json:"port,omitempty"`
	// Fields snaps to input rows instead of control-flow ports.
	Fields bool `json:"fields,omitempty"`
}

type snapTarget struct {
	Node     string      `json:"node"`
	Port     string      `json:"port"`
	Point    slots.Point `json:"point"`
	Distance float64     `json:"distance"`
}

type snapResponse struct {
	Found         bool        `json:"found"`
	Target        *snapTarget `json:"target,omitempty"`
	Compatibility string      `json:"compatibility,omitempty"`
}

// prepared is a parsed tree with its canvas layout, shared between
// coalesced requests. It must not be modified.
type prepared struct {
	tree   *tree.Tree
	hash   string
	layout *layout.Layout
	cached bool
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handleOpcodes(w http.ResponseWriter, r *http.Request) {
	names := s.catalog.Opcodes()
	specs := make([]opcodes.Spec, 0, len(names))
	for _, name := range names {
		spec, _ := s.catalog.Lookup(name)
		specs = append(specs, spec)
	}
	s.writeJSON(w, http.StatusOK, specs)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.prepare(r.Context(), raw, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, layoutResponse{
		SourceHash: p.hash,
		Cached:     p.cached,
		Layout:     p.layout,
		Slots:      layout.Slots(p.layout, req.Viewport),
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var req overviewRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if req.Click != nil && (req.ScreenW <= 0 || req.ScreenH <= 0) {
		s.writeError(w, perr.New(perr.ErrCodeInvalidInput, "screen_w and screen_h are required with click"))
		return
	}
	opts := s.options(req.Options)
	opts.Mode = pipeline.ModeOverview

	v, err := s.coalesce(r.Context(), "overview:"+cache.Hash(raw), func(ctx context.Context) (any, error) {
		t, hash, err := s.runner.Parse(ctx, req.Source)
		if err != nil {
			return nil, err
		}
		ov, hit, err := s.runner.OverviewWithCacheInfo(ctx, t, hash, opts)
		if err != nil {
			return nil, err
		}
		return overviewResponse{SourceHash: hash, Cached: hit, Overview: ov}, nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := v.(overviewResponse)
	if req.Click != nil {
		vp := resp.Overview.Navigate(req.Viewport, *req.Click, req.ScreenW, req.ScreenH)
		resp.Viewport = &vp
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	from, err := req.From.resolve("from")
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := req.To.resolve("to")
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.prepare(r.Context(), raw, req.sourceRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}

	reg := s.registry(p, req.Viewport)
	for i, e := range []route.Endpoint{from, to} {
		if _, ok := e.Resolve(reg); !ok {
			name := [...]string{"from", "to"}[i]
			s.writeError(w, perr.New(perr.ErrCodeNotFound, "%s endpoint %s %s is not on the canvas", name, e.NodeID, e.Port))
			return
		}
	}
	curve, ok := route.Wire(reg, from, to)
	if !ok {
		s.writeError(w, perr.New(perr.ErrCodeInvalidInput, "endpoints have no renderable route"))
		return
	}
	s.writeJSON(w, http.StatusOK, newWire(curve, tree.Connection{From: req.From.Node, To: req.To.Node}))
}

func (s *Server) handleWires(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.prepare(r.Context(), raw, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	reg := s.registry(p, req.Viewport)
	wires := []wire{}
	for _, c := range p.tree.Connections() {
		from := route.Slot(c.From, slots.Output)
		if c.Branch != "" {
			from = route.Slot(c.From, slots.BranchPort(c.Branch))
		}
		if curve, ok := route.Wire(reg, from, route.Slot(c.To, slots.Input)); ok {
			wires = append(wires, newWire(curve, c))
		}
	}
	s.writeJSON(w, http.StatusOK, wires)
}

func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	var req snapRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var port slots.Port
	if !req.Fields {
		if port, err = slots.ParsePort(req.Port); err != nil {
			s.writeError(w, perr.Wrap(perr.ErrCodeInvalidInput, err, "port"))
			return
		}
	}
	p, err := s.prepare(r.Context(), raw, req.sourceRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	reg := s.registry(p, req.Viewport)

	var (
		target match.Target
		found  bool
		resp   snapResponse
	)
	if req.Fields {
		exclude := map[string]bool{}
		dragged, isNode := p.tree.Find(req.Node)
		if isNode {
			exclude[req.Node] = true
			for _, id := range tree.Subtree(dragged.Node) {
				exclude[id] = true
			}
		}
		target, found = match.NearestField(reg, req.Pointer, exclude)
		if found && isNode {
			host, _ := p.tree.Find(target.NodeID)
			resp.Compatibility = match.CompatibleTypes(
				s.catalog.ReturnType(dragged.Node.Opcode),
				s.catalog.ParamType(host.Node.Opcode, target.Port.Name),
			).String()
		}
	} else {
		target, found = match.Nearest(reg, match.Query{Pointer: req.Pointer, Node: req.Node, Port: port})
	}

	resp.Found = found
	if found {
		resp.Target = &snapTarget{
			Node:     target.NodeID,
			Port:     target.Port.String(),
			Point:    target.Point,
			Distance: target.Distance,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[string]string{
	pipeline.FormatJSON:   "application/json",
	pipeline.FormatDOT:    "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:    "image/svg+xml",
	pipeline.FormatCanvas: "image/svg+xml",
	pipeline.FormatPDF:    "application/pdf",
	pipeline.FormatPNG:    "image/png",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, perr.Wrap(perr.ErrCodeNotFound, err, "unknown export format"))
		return
	}
	var req sourceRequest
	raw, err := s.decode(w, r, &req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.options(req.Options)
	opts.Formats = []string{format}

	v, err := s.coalesce(r.Context(), "export:"+format+":"+cache.Hash(raw), func(ctx context.Context) (any, error) {
		return s.runner.Execute(ctx, req.Source, opts)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res := v.(*pipeline.Result)
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Source-Hash", res.SourceHash)
	w.Header().Set("X-Cache", cacheStatus(res.CacheInfo.RenderHit))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifacts[format])
}

// decode reads the body into v and returns the raw bytes for coalescing.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBytes))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, perr.Wrap(perr.ErrCodeInvalidInput, err, "decode request")
	}
	return raw, nil
}

// options fills fields the request left unset from the server defaults.
func (s *Server) options(o pipeline.Options) pipeline.Options {
	d := s.defaults
	if o.Layout == (layout.Options{}) {
		o.Layout = d.Layout
	}
	if o.FrameW == 0 {
		o.FrameW = d.FrameW
	}
	if o.FrameH == 0 {
		o.FrameH = d.FrameH
	}
	if o.Padding == 0 {
		o.Padding = d.Padding
	}
	o.Logger = s.logger
	return o
}

// prepare parses and lays out a request, coalescing identical bodies.
func (s *Server) prepare(ctx context.Context, raw []byte, req sourceRequest) (*prepared, error) {
	if strings.TrimSpace(req.Source) == "" {
		return nil, perr.New(perr.ErrCodeInvalidInput, "source is required")
	}
	opts := s.options(req.Options)
	v, err := s.coalesce(ctx, "layout:"+cache.Hash(raw), func(ctx context.Context) (any, error) {
		t, hash, err := s.runner.Parse(ctx, req.Source)
		if err != nil {
			return nil, err
		}
		l, hit, err := s.runner.LayoutWithCacheInfo(ctx, t, hash, opts)
		if err != nil {
			return nil, err
		}
		return &prepared{tree: t, hash: hash, layout: l, cached: hit}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*prepared), nil
}

// coalesce runs fn once for concurrent callers sharing key. The shared call
// runs on a context detached from any single caller and bounded by the
// server timeout; each caller stops waiting when its own context is done.
func (s *Server) coalesce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return fn(shared)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) registry(p *prepared, v layout.Viewport) *slots.Registry {
	reg := slots.NewRegistry()
	layout.Populate(reg, p.layout, v)
	return reg
}

func (e endpoint) resolve(name string) (route.Endpoint, error) {
	if e.Point != nil {
		return route.At(e.Point.X, e.Point.Y), nil
	}
	if e.Node == "" {
		return route.Endpoint{}, perr.New(perr.ErrCodeInvalidInput, "%s needs a node or a point", name)
	}
	port, err := slots.ParsePort(e.Port)
	if err != nil {
		return route.Endpoint{}, perr.Wrap(perr.ErrCodeInvalidInput, err, "%s port", name)
	}
	return route.Slot(e.Node, port), nil
}

func newWire(c route.Curve, conn tree.Connection) wire {
	return wire{
		From:   conn.From,
		To:     conn.To,
		Branch: conn.Branch,
		Shape:  c.Shape.String(),
		Path:   c.Path(),
		Start:  c.Start(),
		End:    c.End(),
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
