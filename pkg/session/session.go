package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/history"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/mutate"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/slots"
	"github.com/matzehuels/flowcanvas/pkg/source"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// DefaultDebounce is the batch window between a text edit and its reparse.
const DefaultDebounce = 500 * time.Millisecond

// Scheduler runs f once after d. The returned function cancels the run and
// reports whether it was still pending.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Session is the state of one editor. Create it with [New].
type Session struct {
	mu sync.Mutex

	codec    source.Codec
	engine   *mutate.Engine
	catalog  *opcodes.Catalog
	history  *history.History
	registry *slots.Registry
	logger   *log.Logger
	schedule Scheduler
	debounce time.Duration
	layoutOp layout.Options

	tree     *tree.Tree
	text     string
	parseErr error
	layout   *layout.Layout
	viewport layout.Viewport
	active   string

	gen     uint64
	pending *reparse

	selection Selection
	drag      Drag
	menu      *Menu
	search    *Search
	modal     string
	panels    map[string]float64
	inputs    map[string]string
	run       RunState
}

// reparse is a scheduled parse of text at generation gen. Text edits push
// history once parsed; canonicalizing reparses after a commit do not.
type reparse struct {
	gen  uint64
	text string
	push bool
	stop func() bool
}

// Option configures a [Session].
type Option func(*config)

type config struct {
	debounce   time.Duration
	capacity   int
	layout     layout.Options
	logger     *log.Logger
	schedule   Scheduler
	registry   *slots.Registry
	engineOpts []mutate.Option
}

// WithDebounce sets the reparse batch window. Zero or negative values parse
// on the scheduler's next turn.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

// WithHistoryCapacity sets the number of undo steps kept.
func WithHistoryCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithLayoutOptions sets the canvas layout dimensions.
func WithLayoutOptions(o layout.Options) Option {
	return func(c *config) { c.layout = o }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithScheduler replaces time.AfterFunc for debounced reparses.
func WithScheduler(s Scheduler) Option {
	return func(c *config) {
		if s != nil {
			c.schedule = s
		}
	}
}

// WithRegistry shares an existing slot registry instead of creating one.
func WithRegistry(r *slots.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithEngineOptions passes options to the session's mutation engine.
func WithEngineOptions(opts ...mutate.Option) Option {
	return func(c *config) { c.engineOpts = append(c.engineOpts, opts...) }
}

// New creates a session that parses and serializes with codec. The session
// has no tree until [Session.Load] succeeds.
func New(codec source.Codec, opts ...Option) *Session {
	cfg := config{
		debounce: DefaultDebounce,
		capacity: history.DefaultCapacity,
		layout:   layout.DefaultOptions(),
		logger:   log.Default(),
		schedule: afterFunc,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = slots.NewRegistry()
	}

	s := &Session{
		codec:    codec,
		history:  history.New(cfg.capacity),
		registry: cfg.registry,
		logger:   cfg.logger,
		schedule: cfg.schedule,
		debounce: cfg.debounce,
		layoutOp: cfg.layout,
		viewport: layout.Identity(),
		active:   tree.MainWorkflow,
		panels:   make(map[string]float64),
		inputs:   make(map[string]string),
	}
	engineOpts := append([]mutate.Option{mutate.WithLogger(cfg.logger)}, cfg.engineOpts...)
	s.engine = mutate.New(s, codec, engineOpts...)
	s.catalog = s.engine.Catalog()
	return s
}

// Engine returns the mutation engine bound to this session.
func (s *Session) Engine() *mutate.Engine { return s.engine }

// Registry returns the slot registry the session keeps in sync with the
// layout and viewport.
func (s *Session) Registry() *slots.Registry { return s.registry }

// Load parses text synchronously and makes it the history baseline. Pending
// reparses are cancelled. On failure the previous tree is kept.
func (s *Session) Load(text string) error {
	s.mu.Lock()
	s.cancelPending()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	t, err := s.parse(gen, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.text = text
	if err != nil {
		s.parseErr = err
		return err
	}
	s.history.Reset(text)
	s.apply(t)
	return nil
}

// SetSource records a text edit and schedules a debounced reparse. Until the
// reparse lands the canvas keeps showing the previous tree.
func (s *Session) SetSource(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.scheduleLocked(text, true)
}

// Flush runs a pending reparse now. It reports whether one was pending.
func (s *Session) Flush() bool {
	s.mu.Lock()
	p := s.pending
	if p == nil || !p.stop() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.runReparse(p)
	return true
}

// Commit implements [mutate.Model]. The edited tree is applied at once, the
// text is pushed to history and a canonicalizing reparse is scheduled.
func (s *Session) Commit(t *tree.Tree, text string) error {
	if t == nil {
		return perr.New(perr.ErrCodeInvalidInput, "nil tree")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.parseErr = nil
	s.history.Push(text)
	s.apply(t)
	s.scheduleLocked(text, false)
	return nil
}

// Current implements [mutate.Model]. It returns nil until a parse succeeds.
func (s *Session) Current() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// ActiveWorkflow implements [mutate.Model].
func (s *Session) ActiveWorkflow() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveWorkflow selects the workflow new nodes are added to.
func (s *Session) SetActiveWorkflow(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return mutate.ErrNoTree
	}
	if _, ok := s.tree.Workflow(name); !ok {
		return perr.New(perr.ErrCodeNotFound, "workflow %s", name)
	}
	s.active = name
	return nil
}

// Source returns the current source text, which may be ahead of the tree
// while a reparse is pending.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// ParseError returns the error of the latest applied parse, or nil.
func (s *Session) ParseError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parseErr
}

// Generation returns the number of the most recently issued parse.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Layout returns the canvas layout of the current tree.
func (s *Session) Layout() *layout.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo or the snapshot no longer parses.
func (s *Session) Undo() bool {
	return s.restore(s.history.Undo, s.history.Redo)
}

// Redo reapplies the next snapshot.
func (s *Session) Redo() bool {
	return s.restore(s.history.Redo, s.history.Undo)
}

// CanUndo reports whether [Session.Undo] has a snapshot to restore.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether [Session.Redo] has a snapshot to restore.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// History returns the session's history.
func (s *Session) History() *history.History { return s.history }

func (s *Session) restore(step, revert func() (history.Snapshot, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := step()
	if !ok {
		return false
	}
	s.cancelPending()
	s.gen++
	t, err := s.parse(s.gen, snap.Source)
	if err != nil {
		revert()
		s.parseErr = err
		return false
	}
	s.text = snap.Source
	s.parseErr = nil
	s.apply(t)
	return true
}

func (s *Session) scheduleLocked(text string, push bool) {
	s.cancelPending()
	s.gen++
	p := &reparse{gen: s.gen, text: text, push: push}
	p.stop = s.schedule(s.debounce, func() { s.runReparse(p) })
	s.pending = p
}

func (s *Session) cancelPending() {
	if s.pending != nil {
		s.pending.stop()
		s.pending = nil
	}
}

// runReparse parses outside the lock and applies the result only if no newer
// parse was issued meanwhile.
func (s *Session) runReparse(p *reparse) {
	t, err := s.parse(p.gen, p.text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == p {
		s.pending = nil
	}
	if p.gen != s.gen {
		observability.Editor().OnStaleParse(context.Background(), p.gen, s.gen)
		s.logger.Debug("discarding stale parse", "gen", p.gen, "latest", s.gen)
		return
	}
	if err != nil {
		s.parseErr = err
		s.logger.Warn("parse failed, keeping last tree", "gen", p.gen, "err", err)
		return
	}
	s.parseErr = nil
	if p.push {
		s.history.Push(p.text)
	}
	s.apply(t)
}

func (s *Session) parse(gen uint64, text string) (*tree.Tree, error) {
	start := time.Now()
	t, err := s.codec.Parse(text)
	n := 0
	if t != nil {
		n = t.NodeCount()
	}
	observability.Editor().OnParse(context.Background(), gen, n, time.Since(start), err)
	return t, err
}

// apply installs t as the current tree and refreshes everything derived from
// it. The caller holds the lock.
func (s *Session) apply(t *tree.Tree) {
	s.tree = t
	if _, ok := t.Workflow(s.active); !ok {
		s.active = tree.MainWorkflow
	}
	s.relayout()
	s.pruneSelection()
	s.pruneDrag()
}

func (s *Session) relayout() {
	start := time.Now()
	s.layout = layout.Compute(s.tree, s.layoutOp)
	observability.Editor().OnLayout(context.Background(), "canvas", len(s.layout.Boxes), time.Since(start))
	layout.Populate(s.registry, s.layout, s.viewport)
}
