// Package session holds the state of one editor: the current tree and its
// source text, the undo history, the canvas layout and slot registry, the
// viewport, the selection and the transient pointer state.
//
// # Source of truth
//
// The source text is authoritative. Text edits go through [Session.SetSource],
// which schedules a debounced reparse; mutations from the engine returned by
// [Session.Engine] arrive through [Session.Commit], which applies the edited
// tree at once and schedules a canonicalizing reparse of the serialized text.
// Every reparse carries a generation number and only the result of the latest
// one is applied, so a slow parse can never overwrite a newer edit. A failed
// parse keeps the last good tree on the canvas and is reported by
// [Session.ParseError].
//
// # Drag gestures
//
// A single drag is active at a time. [Session.BeginWire], [Session.BeginOrphan],
// [Session.BeginVariable] and [Session.BeginPanel] each replace whatever drag
// was in progress. [Session.MovePointer] tracks the snap target and
// [Session.Release] either commits the matching mutation or discards the
// gesture:
//
//	s.BeginOrphan("num", pointer)
//	s.MovePointer(overField)
//	outcome, err := s.Release(func(m session.Mismatch) bool {
//	    return askUser(m) // only called for incompatible drops
//	})
//
// # Concurrency
//
// A Session is safe for concurrent use. Parsing runs outside the session lock,
// and the engine is never called while the lock is held.
package session
