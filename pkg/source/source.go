// Package source defines the boundary between the editor core and the
// textual workflow language.
//
// The core never edits source text directly. Mutations edit a cloned tree and
// hand it to a [Serializer]; the session re-derives the canonical tree with a
// [Parser]. Implementations live in subpackages (e.g. tomlsrc).
package source

import "github.com/matzehuels/flowcanvas/pkg/tree"

// Parser derives a tree from source text.
type Parser interface {
	// Parse returns the tree described by text. Parse errors are returned as
	// is; callers keep the last good tree.
	Parse(text string) (*tree.Tree, error)
}

// Serializer renders a tree as source text.
type Serializer interface {
	Serialize(t *tree.Tree) (string, error)
}

// Codec parses and serializes.
type Codec interface {
	Parser
	Serializer
}

// ParserFunc adapts a function to [Parser].
type ParserFunc func(text string) (*tree.Tree, error)

// Parse calls f(text).
func (f ParserFunc) Parse(text string) (*tree.Tree, error) { return f(text) }

// SerializerFunc adapts a function to [Serializer].
type SerializerFunc func(t *tree.Tree) (string, error)

// Serialize calls f(t).
func (f SerializerFunc) Serialize(t *tree.Tree) (string, error) { return f(t) }
