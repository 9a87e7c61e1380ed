// Package slots provides the slot position registry: the screen-space anchor
// points of every rendered node's ports.
//
// # Contract
//
// The registry is written by the layout pass (one [Registry.Register] per
// rendered node) and read by the connection router and the port matcher. It
// is not the source of truth; the tree is. Registration is expected to lag
// one frame behind tree changes, so readers must treat a missing ID as a
// soft failure and skip the element rather than fail.
//
// Writes are last-writer-wins per node ID. There are no cross-node
// transactions: a reader taking a [Registry.Snapshot] while a layout pass is
// running may observe some nodes at their new positions and others at their
// old ones.
//
// # Ordering
//
// Each node ID keeps the sequence number of its first registration until it
// is unregistered. [Registry.Snapshot] returns entries in that order, which
// gives the matcher a stable tie-break between equidistant ports.
package slots

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// IsOrigin reports whether p is (0, 0), the sentinel for an unregistered slot.
func (p Point) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// PortKind identifies which anchor of a node a port is.
type PortKind int

const (
	// PortInput is the node's incoming control-flow anchor.
	PortInput PortKind = iota
	// PortOutput is the node's default successor anchor.
	PortOutput
	// PortBranch is a named branch exit.
	PortBranch
	// PortField is an input row accepting a value drop.
	PortField
)

// String returns the port kind name.
func (k PortKind) String() string {
	switch k {
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	case PortBranch:
		return "branch"
	case PortField:
		return "field"
	default:
		return "unknown"
	}
}

// Port designates one anchor of a node. Name is the branch label for
// [PortBranch] and the input key for [PortField].
type Port struct {
	Kind PortKind
	Name string
}

// Input and Output are the unnamed control-flow ports.
var (
	Input  = Port{Kind: PortInput}
	Output = Port{Kind: PortOutput}
)

// BranchPort returns the port of the named branch exit.
func BranchPort(label string) Port { return Port{Kind: PortBranch, Name: label} }

// FieldPort returns the port of the named input row.
func FieldPort(key string) Port { return Port{Kind: PortField, Name: key} }

// String formats the port as accepted by [ParsePort]: "input", "output",
// "branch:LABEL" or "field:KEY".
func (p Port) String() string {
	switch p.Kind {
	case PortBranch, PortField:
		return p.Kind.String() + ":" + p.Name
	}
	return p.Kind.String()
}

// ParsePort parses the form produced by [Port.String].
func ParsePort(s string) (Port, error) {
	kind, name, named := strings.Cut(s, ":")
	switch {
	case kind == "input" && !named:
		return Input, nil
	case kind == "output" && !named:
		return Output, nil
	case kind == "branch" && name != "":
		return BranchPort(name), nil
	case kind == "field" && name != "":
		return FieldPort(name), nil
	}
	return Port{}, fmt.Errorf("invalid port %q", s)
}

// Incoming reports whether the port receives connections (input or field).
func (p Port) Incoming() bool {
	return p.Kind == PortInput || p.Kind == PortField
}

// NodeSlots holds the anchors of one node.
type NodeSlots struct {
	Input    Point            `json:"input"`
	Output   Point            `json:"output"`
	Branches map[string]Point `json:"branches,omitempty"`
	Fields   map[string]Point `json:"fields,omitempty"`
}

// At returns the anchor of port p.
func (s NodeSlots) At(p Port) (Point, bool) {
	switch p.Kind {
	case PortInput:
		return s.Input, true
	case PortOutput:
		return s.Output, true
	case PortBranch:
		pt, ok := s.Branches[p.Name]
		return pt, ok
	case PortField:
		pt, ok := s.Fields[p.Name]
		return pt, ok
	}
	return Point{}, false
}

// ControlPorts returns the node's control-flow ports in stable order:
// input, output, then branch exits sorted by label.
func (s NodeSlots) ControlPorts() []Port {
	ports := []Port{Input, Output}
	for _, label := range slices.Sorted(maps.Keys(s.Branches)) {
		ports = append(ports, BranchPort(label))
	}
	return ports
}

// FieldPorts returns the node's field ports sorted by input key.
func (s NodeSlots) FieldPorts() []Port {
	var ports []Port
	for _, key := range slices.Sorted(maps.Keys(s.Fields)) {
		ports = append(ports, FieldPort(key))
	}
	return ports
}

func (s NodeSlots) clone() NodeSlots {
	return NodeSlots{
		Input:    s.Input,
		Output:   s.Output,
		Branches: maps.Clone(s.Branches),
		Fields:   maps.Clone(s.Fields),
	}
}

// Reader is the read side of the registry consumed by the router and matcher.
type Reader interface {
	Get(nodeID string) (NodeSlots, bool)
	Snapshot() []Entry
}

// Entry is one registered node in a snapshot.
type Entry struct {
	NodeID string
	Slots  NodeSlots
	Seq    uint64
}

type entry struct {
	slots NodeSlots
	seq   uint64
}

// Registry maps node IDs to their slot positions. The zero value is ready to
// use and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	seq     uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register overwrites the slots for nodeID. The first-registration sequence
// number is kept across overwrites.
func (r *Registry) Register(nodeID string, s NodeSlots) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	e, ok := r.entries[nodeID]
	if !ok {
		r.seq++
		e.seq = r.seq
	}
	e.slots = s.clone()
	r.entries[nodeID] = e
}

// Unregister removes nodeID. Removing an unknown ID is a no-op.
func (r *Registry) Unregister(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, nodeID)
}

// Get returns the slots for nodeID, or false if it is not registered.
func (r *Registry) Get(nodeID string) (NodeSlots, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[nodeID]
	if !ok {
		return NodeSlots{}, false
	}
	return e.slots.clone(), true
}

// Retain unregisters every node not in live.
func (r *Registry) Retain(live map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.entries {
		if !live[id] {
			delete(r.entries, id)
		}
	}
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of all entries ordered by first registration.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Entry{NodeID: id, Slots: e.slots.clone(), Seq: e.seq})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

var _ Reader = (*Registry)(nil)
