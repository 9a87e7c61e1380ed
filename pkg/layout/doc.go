// Package layout places workflow trees onto the canvas.
//
// # Placement
//
// [Compute] is a pure function of the tree and the [Options]. Every node box
// has the same width; its height is [Options.BaseHeight] plus one
// [Options.RowHeight] per input, counting at most [Options.MaxRows] inputs.
//
// Within a chain, a node's branches are laid out one [Options.NodeGap] below
// the node's bottom edge, left to right with [Options.BranchGap] between
// them; an empty branch reserves one node width. The successor continues at
//
//	max(NodeWidth + NodeGap, total branch width)
//
// to the right of the node. The root chains of a workflow are placed left to
// right, and workflows stack vertically with [Options.WorkflowGap] below the
// tallest content of the previous one. The first workflow starts at (0, 0).
// Reporters have no box of their own.
//
// # Scales
//
// The same algorithm drives the interactive canvas and the overview
// (minimap). [Options.Scaled] multiplies every dimension, and [NewOverview]
// picks the factor that fits the canvas bounds into a fixed frame. Frame
// clicks are mapped back with [Overview.ToCanvas], and [Viewport.CenterOn]
// turns the canvas point into pan coordinates.
//
// # Slots
//
// [Slots] derives the screen-space port anchors of every box under a
// [Viewport], and [Populate] writes them to a [slots.Registry].
package layout
