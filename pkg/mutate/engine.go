// Package mutate implements the graph mutation engine.
//
// Every operation follows the same transaction: clone the model's current
// tree, edit the clone, serialize it, and commit the tree together with its
// source text back to the model. The model owns reparsing, so the tree the
// canvas shows is always the one the source text describes.
//
// Operations are safe to call with stale IDs. Precondition failures (unknown
// node, cycle, bad name) are returned as errors matching the sentinels in
// this package, and the model is left untouched.
package mutate

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/observability"
	"github.com/matzehuels/flowcanvas/pkg/opcodes"
	"github.com/matzehuels/flowcanvas/pkg/source"
	"github.com/matzehuels/flowcanvas/pkg/tree"
)

// Model is the state a mutation engine edits.
type Model interface {
	// Current returns the current tree, or nil while none is available.
	// The engine never modifies it.
	Current() *tree.Tree

	// ActiveWorkflow names the workflow new nodes go to by default.
	ActiveWorkflow() string

	// Commit replaces the tree and its source text.
	Commit(t *tree.Tree, text string) error
}

// Engine applies mutations to a [Model]. It is safe for concurrent use;
// mutations are applied one at a time.
type Engine struct {
	mu      sync.Mutex
	model   Model
	ser     source.Serializer
	catalog *opcodes.Catalog
	newID   func() string
	logger  *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithCatalog sets the opcode catalog used for new nodes and variable
// analysis. The default is [opcodes.Builtin].
func WithCatalog(c *opcodes.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithIDGenerator sets the node ID generator. The default generates UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine editing m and serializing with ser.
func New(m Model, ser source.Serializer, opts ...Option) *Engine {
	e := &Engine{
		model:   m,
		ser:     ser,
		catalog: opcodes.Builtin(),
		newID:   uuid.NewString,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's opcode catalog.
func (e *Engine) Catalog() *opcodes.Catalog { return e.catalog }

// apply runs one mutation transaction.
func (e *Engine) apply(op string, edit func(t *tree.Tree) error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		observability.Editor().OnMutation(context.Background(), op, err)
		if err != nil {
			e.logger.Debug("mutation rejected", "op", op, "err", err)
		}
	}()

	cur := e.model.Current()
	if cur == nil {
		return ErrNoTree
	}
	t := cur.Clone()
	if err := edit(t); err != nil {
		return err
	}

	text, err := e.ser.Serialize(t)
	if err != nil {
		return perr.Wrap(perr.ErrCodeInternal, err, "serialize tree")
	}
	if err := e.model.Commit(t, text); err != nil {
		return err
	}
	e.logger.Debug("mutation committed", "op", op, "nodes", t.NodeCount())
	return nil
}

// find locates a node in t, failing with [ErrNodeNotFound].
func find(t *tree.Tree, id string) (tree.Location, error) {
	loc, ok := t.Find(id)
	if !ok {
		return tree.Location{}, failf(ErrNodeNotFound, "%s", id)
	}
	return loc, nil
}

// detach unlinks the chain starting at loc.Node from its predecessor, branch
// or root slot and returns it. A detached root chain is removed from the
// workflow's roots.
func detach(loc tree.Location) *tree.Node {
	n := loc.Node
	switch {
	case loc.Prev != nil:
		loc.Prev.Next = nil
	case loc.Owner != nil:
		if b, ok := loc.Owner.Branch(loc.Branch); ok {
			b.Head = nil
		}
	default:
		removeRoot(loc.Workflow, n)
	}
	return n
}

// unlinkSingle removes loc.Node from its chain, splicing its successor into
// its place. The node's own Next is cleared.
func unlinkSingle(loc tree.Location) {
	n := loc.Node
	next := n.Next
	n.Next = nil
	switch {
	case loc.Prev != nil:
		loc.Prev.Next = next
	case loc.Owner != nil:
		if b, ok := loc.Owner.Branch(loc.Branch); ok {
			b.Head = next
		}
	default:
		wf := loc.Workflow
		i := wf.RootIndex(n)
		if i < 0 {
			return
		}
		if next != nil {
			wf.Roots[i] = next
		} else {
			wf.RemoveRoot(i)
		}
	}
}

func removeRoot(wf *tree.Workflow, n *tree.Node) {
	wf.RemoveRoot(wf.RootIndex(n))
}

// addRoot appends head as an orphan chain, or as the start chain of an empty
// workflow.
func addRoot(wf *tree.Workflow, head *tree.Node) {
	if head != nil {
		wf.Roots = append(wf.Roots, head)
	}
}

// rootOf returns the head of the root chain containing loc. It must be called
// before the workflow's roots are modified.
func rootOf(loc tree.Location) *tree.Node {
	if loc.Root >= 0 && loc.Root < len(loc.Workflow.Roots) {
		return loc.Workflow.Roots[loc.Root]
	}
	return nil
}

// promote moves the root chain headed by head to the start position,
// filling an empty start slot if there is one.
func promote(wf *tree.Workflow, head *tree.Node) {
	i := wf.RootIndex(head)
	if i <= 0 {
		return
	}
	wf.Roots = append(wf.Roots[:i], wf.Roots[i+1:]...)
	if wf.Roots[0] == nil {
		wf.Roots[0] = head
		return
	}
	wf.Roots = append([]*tree.Node{head}, wf.Roots...)
}

// addStart makes head the start chain of a workflow whose start is empty,
// and appends it as an orphan otherwise.
func addStart(wf *tree.Workflow, head *tree.Node) {
	if len(wf.Roots) > 0 && wf.Roots[0] == nil {
		wf.Roots[0] = head
		return
	}
	addRoot(wf, head)
}

// isStart reports whether loc is the head of the workflow's start chain.
func isStart(loc tree.Location) bool {
	return loc.IsRootHead() && loc.Root == 0
}
