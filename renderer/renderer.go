// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package renderer turns a rich-text tree into a tree of templ components.
//
// Render walks the tree depth first. A text leaf becomes the output of the
// text renderer wrapped by each of its marks in order, the first mark
// innermost. A container node has its children rendered in order and handed
// to the renderer registered for its node type. Node and mark types with no
// registered renderer render transparently, so documents using types this
// package does not know still render.
package renderer

import (
	"context"
	"io"
	"maps"
	"strings"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer holds the caller's overrides. It resolves a fresh Registry for
// every call to Render and is safe for concurrent use once New returns.
type Renderer struct {
	nodes              map[richtext.NodeType]NodeRenderer
	marks              map[richtext.MarkType]MarkRenderer
	text               TextRenderer
	preserveWhitespace bool
	sanitizer          *bluemonday.Policy
}

// New returns a Renderer configured by options. It returns the first
// error reported by an option.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		nodes: make(map[richtext.NodeType]NodeRenderer),
		marks: make(map[richtext.MarkType]MarkRenderer),
	}
	for _, option := range options {
		err := option(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Options returns a copy of the overrides held by the renderer.
func (r *Renderer) Options() Options {
	opts := Options{
		RenderNode: maps.Clone(r.nodes),
		RenderMark: maps.Clone(r.marks),
		RenderText: r.text,
	}
	if opts.RenderText == nil && r.preserveWhitespace {
		opts.RenderText = PreserveWhitespace
	}
	return opts
}

// Registry resolves the overrides against the defaults.
func (r *Renderer) Registry() Registry {
	return NewRegistry(r.Options())
}

// Render returns the component tree for node.
func (r *Renderer) Render(node richtext.Node) templ.Component {
	c := Render(node, r.Registry())
	if r.sanitizer != nil {
		c = Sanitized(c, r.sanitizer)
	}
	return c
}

// RenderHTML renders node and writes the resulting HTML to w.
func (r *Renderer) RenderHTML(ctx context.Context, w io.Writer, node richtext.Node) error {
	return r.Render(node).Render(ctx, w)
}

// RenderString renders node to a string of HTML.
func (r *Renderer) RenderString(ctx context.Context, node richtext.Node) (string, error) {
	var sb strings.Builder
	if err := r.RenderHTML(ctx, &sb, node); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render walks node using the renderers in reg.
//
// The walk is eager: every renderer in the tree has been called by the time
// Render returns. Writing the result with the component's Render method only
// emits markup. A panic raised by a renderer is not recovered.
func Render(node richtext.Node, reg Registry) templ.Component {
	switch n := node.(type) {
	case *richtext.Text:
		if n == nil {
			return templ.NopComponent
		}
		return renderText(n, reg)
	case *richtext.Block:
		if n == nil {
			return templ.NopComponent
		}
		return renderContainer(n, reg)
	case *richtext.Inline:
		if n == nil {
			return templ.NopComponent
		}
		return renderContainer(n, reg)
	case *richtext.Document:
		if n == nil {
			return templ.NopComponent
		}
		return renderContainer(n, reg)
	}
	return templ.NopComponent
}

func renderText(t *richtext.Text, reg Registry) templ.Component {
	out := reg.Text(t.Value)
	for _, m := range t.Marks {
		out = orNop(reg.Mark(m.Type)(out))
	}
	return out
}

func renderContainer(c richtext.Container, reg Registry) templ.Component {
	content := c.Children()
	children := make([]templ.Component, 0, len(content))
	for _, child := range content {
		children = append(children, Render(child, reg))
	}
	return orNop(reg.Node(c.NodeType())(c, children))
}
