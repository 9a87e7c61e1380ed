// Package pkg provides the core libraries of the flowcanvas workflow editor.
//
// # Overview
//
// A workflow source describes one or more named workflows. Each workflow is
// a forest of node chains: a start chain plus any orphan chains, where
// control-flow nodes own labelled branch sequences and value-producing
// reporter nodes sit inline in the inputs that consume them. The libraries
// parse sources into trees, lay the trees out on a canvas, keep port anchors
// in sync with the viewport, route wires, snap drags to ports and apply
// structural edits with undo and redo.
//
// # Architecture
//
// The typical data flow through flowcanvas:
//
//	Workflow source (TOML)
//	         ↓
//	    [source/tomlsrc] (parse, canonical serialize)
//	         ↓
//	    [tree] (workflows, chains, branches, reporters)
//	         ↓
//	    [layout] (boxes, frames, overview, viewport)
//	         ↓
//	    [slots] registry → [route] wires, [match] snapping
//	         ↓
//	    [export] canvas SVG, DOT, Graphviz SVG, PDF, PNG
//
// Edits go the other way: [mutate] changes a copy of the tree, serializes it
// and commits it to a [session], which records the text in [history] and
// schedules a canonicalizing reparse.
//
// # Quick Start
//
// Lay out a source and route one of its wires:
//
//	import (
//	    "github.com/matzehuels/flowcanvas/pkg/layout"
//	    "github.com/matzehuels/flowcanvas/pkg/route"
//	    "github.com/matzehuels/flowcanvas/pkg/slots"
//	    "github.com/matzehuels/flowcanvas/pkg/source/tomlsrc"
//	)
//
//	t, _ := tomlsrc.Codec{}.Parse(text)
//	l := layout.Compute(t, layout.DefaultOptions())
//
//	reg := slots.NewRegistry()
//	layout.Populate(reg, l, layout.Identity())
//
//	curve, ok := route.Wire(reg,
//	    route.Slot("start", slots.Output),
//	    route.Slot("check", slots.Input))
//
// # Main Packages
//
// ## Model
//
// [tree] - The workflow tree with lookups, walks and validation.
//
// [opcodes] - The opcode catalog: node types, declared inputs, return types
// and branch labels.
//
// [source] - Parser and serializer interfaces; [source/tomlsrc] is the TOML
// codec.
//
// ## Geometry
//
// [layout] - Canvas placement, minimap overview and viewport maths.
//
// [slots] - Port anchors per node, kept in a concurrency-safe registry.
//
// [route] - Bezier wire routing between ports or free points.
//
// [match] - Snap targets for wire, orphan and variable drags, with type
// compatibility.
//
// ## Editing
//
// [mutate] - Structural edits: add, delete, duplicate, connect, reporters,
// workflow management and extraction into a new workflow.
//
// [history] - Bounded undo and redo of source snapshots.
//
// [session] - One editor's state: debounced reparse with generation
// counting, selection, drags, menus, viewport and run inputs.
//
// ## Infrastructure
//
// [pipeline] - Parse → layout → render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - Memory (LRU), file and null caches with content-addressed keys.
//
// [export] - Canvas SVG, Graphviz DOT and SVG, and PDF/PNG conversion.
//
// [config] - TOML configuration file.
//
// [observability] - Hooks for parses, layouts, caches and HTTP requests.
//
// [errors] - Coded errors shared across packages.
//
// [buildinfo] - Version information set at build time.
package pkg
