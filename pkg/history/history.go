// Package history provides bounded linear undo/redo over source snapshots.
//
// A [History] holds a baseline snapshot plus up to Capacity pushed
// snapshots, so Capacity pushes can always be undone back to the baseline.
// Pushing while not at the newest entry discards every entry after the
// current one. A push equal to the current snapshot is not an edit: it
// changes nothing and keeps the redo entries, so an editor echoing restored
// text back after an undo can still redo. [History.CanUndo] and
// [History.CanRedo] are derived from the current index and the entry count;
// nothing else is stored.
package history

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of undo steps kept when none is configured.
const DefaultCapacity = 50

// Snapshot is an immutable source text captured at a point in time.
type Snapshot struct {
	Source string
	Time   time.Time
}

// History is a bounded undo/redo stack. It is safe for concurrent use.
type History struct {
	mu       sync.Mutex
	entries  []Snapshot
	current  int
	capacity int
	now      func() time.Time
}

// New creates a history keeping at most capacity undo steps. A non-positive
// capacity selects [DefaultCapacity].
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		entries:  make([]Snapshot, 0, capacity+1),
		current:  -1,
		capacity: capacity,
		now:      time.Now,
	}
}

// Capacity returns the number of undo steps kept.
func (h *History) Capacity() int { return h.capacity }

// Reset discards every entry and installs baseline as the only snapshot.
func (h *History) Reset(baseline string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:0], Snapshot{Source: baseline, Time: h.now()})
	h.current = 0
}

// Push records src as the newest snapshot. It reports false when src equals
// the current snapshot, in which case nothing changes and redo entries are
// kept. The first push on an
// empty history becomes the baseline.
func (h *History) Push(src string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current >= 0 && h.entries[h.current].Source == src {
		return false
	}

	// Drop the redo future.
	h.entries = h.entries[:h.current+1]
	h.entries = append(h.entries, Snapshot{Source: src, Time: h.now()})

	if len(h.entries) > h.capacity+1 {
		h.entries = append(h.entries[:0], h.entries[1:]...)
	} else {
		h.current++
	}
	return true
}

// Undo moves one step back and returns the snapshot now current.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current <= 0 {
		return Snapshot{}, false
	}
	h.current--
	return h.entries[h.current], true
}

// Redo moves one step forward and returns the snapshot now current.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current >= len(h.entries)-1 {
		return Snapshot{}, false
	}
	h.current++
	return h.entries[h.current], true
}

// CanUndo reports whether [History.Undo] would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current > 0
}

// CanRedo reports whether [History.Redo] would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current < len(h.entries)-1
}

// Current returns the current snapshot, or false if the history is empty.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.current], true
}

// Len returns the number of retained snapshots, baseline included.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Position returns the 1-based current position and the entry count.
func (h *History) Position() (current, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current + 1, len(h.entries)
}
