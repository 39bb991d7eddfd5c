// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"maps"
	"slices"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext"
)

// NodeRenderer renders a container node. It receives the node itself, for
// access to its type and data, and the already rendered children in order.
type NodeRenderer func(node richtext.Node, children []templ.Component) templ.Component

// MarkRenderer wraps the output accumulated so far for a text leaf.
type MarkRenderer func(child templ.Component) templ.Component

// TextRenderer renders the raw value of a text leaf.
type TextRenderer func(text string) templ.Component

// Registry is the resolved set of renderers used by one render call.
// It is built once by NewRegistry and never modified afterward, so a
// Registry may be shared by concurrent walks.
//
// The zero Registry is usable: every node and mark renders transparently
// and text renders as escaped text.
type Registry struct {
	nodes map[richtext.NodeType]NodeRenderer
	marks map[richtext.MarkType]MarkRenderer
	text  TextRenderer
}

// NewRegistry overlays the caller's renderers on the built-in defaults.
// For both maps a caller entry replaces the default with the same tag, tags
// only in the defaults are kept and tags only in the overrides are added.
// Nil entries in the overrides are ignored. Unknown tags are stored as is.
func NewRegistry(opts Options) Registry {
	nodes := DefaultNodeRenderers()
	for nt, fn := range opts.RenderNode {
		if fn != nil {
			nodes[nt] = fn
		}
	}
	marks := DefaultMarkRenderers()
	for mt, fn := range opts.RenderMark {
		if fn != nil {
			marks[mt] = fn
		}
	}
	text := opts.RenderText
	if text == nil {
		text = IdentityText
	}
	return Registry{nodes: nodes, marks: marks, text: text}
}

// Node returns the renderer for a node type, falling back to Transparent.
func (r Registry) Node(nt richtext.NodeType) NodeRenderer {
	if fn, ok := r.nodes[nt]; ok {
		return fn
	}
	return Transparent
}

// Mark returns the renderer for a mark type, falling back to TransparentMark.
func (r Registry) Mark(mt richtext.MarkType) MarkRenderer {
	if fn, ok := r.marks[mt]; ok {
		return fn
	}
	return TransparentMark
}

// Text renders a raw text value.
func (r Registry) Text(s string) templ.Component {
	if r.text == nil {
		return IdentityText(s)
	}
	return orNop(r.text(s))
}

// HasNode reports whether a renderer is registered for the node type.
func (r Registry) HasNode(nt richtext.NodeType) bool {
	_, ok := r.nodes[nt]
	return ok
}

// HasMark reports whether a renderer is registered for the mark type.
func (r Registry) HasMark(mt richtext.MarkType) bool {
	_, ok := r.marks[mt]
	return ok
}

// NodeTypes returns the registered node types, sorted.
func (r Registry) NodeTypes() []richtext.NodeType {
	return slices.Sorted(maps.Keys(r.nodes))
}

// MarkTypes returns the registered mark types, sorted.
func (r Registry) MarkTypes() []richtext.MarkType {
	return slices.Sorted(maps.Keys(r.marks))
}

func orNop(c templ.Component) templ.Component {
	if c == nil {
		return templ.NopComponent
	}
	return c
}
