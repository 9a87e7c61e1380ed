// Package tree provides the in-memory model of a workflow source: an ordered
// set of workflows, each holding chains of operation nodes.
//
// # Overview
//
// A [Tree] is what the external parser derives from source text and what the
// serializer turns back into text. The editor never mutates the tree held by
// the session in place: the mutation engine clones it with [Tree.Clone], edits
// the clone and commits the serialized result.
//
// # Structure
//
// Each [Workflow] has a list of root chains. A chain is a head [Node] followed
// by its successors through [Node.Next]. Roots[0] is the start chain; every
// other root chain is an orphan chain, drawn on the canvas but not reachable
// from the start. Roots[0] is nil when the start chain is empty but orphan
// chains exist; an orphan only becomes the start chain through an explicit
// connection. Control-flow nodes carry labelled [Branch] values whose
// Head starts another chain.
//
// Node ownership is strictly hierarchical: a node is the successor of at most
// one predecessor, the head of at most one branch, or the reporter value of at
// most one input. Cross links are expressed only through values.
//
// # Values
//
// Inputs hold a [Value], a closed sum type with four variants:
//
//   - [Literal]: a scalar or JSON-compatible value
//   - [Variable]: a reference to a declared variable name
//   - [Reporter]: an inline expression node producing the value
//   - [WorkflowCall]: a call to another workflow with positional ARG1..ARGn
//
// Consumers type-switch exhaustively over these four types.
//
// # Navigation
//
// [Tree.Walk] visits every node (layout nodes and nested reporters) in a
// deterministic order and reports its [Location]. [Tree.Index] materializes
// those locations by node ID, and [Tree.IsAncestor] answers the structural
// ancestry question the cycle check needs.
package tree
