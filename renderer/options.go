// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"fmt"

	"github.com/mdhender/richtext"
	"github.com/microcosm-cc/bluemonday"
)

// Options is the caller's configuration for one renderer: node renderers
// and mark renderers overlay the defaults by tag, and RenderText replaces
// the identity text renderer.
//
// A nil renderer in Options means unset. NewRegistry and WithOptions both
// skip nil map entries and a nil RenderText, leaving the default in place.
// The single-renderer options (WithNodeRenderer and the rest) reject nil.
type Options struct {
	RenderNode map[richtext.NodeType]NodeRenderer
	RenderMark map[richtext.MarkType]MarkRenderer
	RenderText TextRenderer
}

type Option func(r *Renderer) error

// WithOptions adds every non-nil renderer in opts. Entries replace ones set
// by earlier options for the same tag. An empty tag is an error.
func WithOptions(opts Options) Option {
	return func(r *Renderer) error {
		for nt, fn := range opts.RenderNode {
			if fn == nil {
				continue
			}
			if err := WithNodeRenderer(nt, fn)(r); err != nil {
				return err
			}
		}
		for mt, fn := range opts.RenderMark {
			if fn == nil {
				continue
			}
			if err := WithMarkRenderer(mt, fn)(r); err != nil {
				return err
			}
		}
		if opts.RenderText != nil {
			r.text = opts.RenderText
		}
		return nil
	}
}

func WithNodeRenderer(nt richtext.NodeType, fn NodeRenderer) Option {
	return func(r *Renderer) error {
		if nt == "" {
			return fmt.Errorf("node renderer: empty node type")
		} else if fn == nil {
			return fmt.Errorf("node renderer %q: nil renderer", nt)
		}
		r.nodes[nt] = fn
		return nil
	}
}

func WithMarkRenderer(mt richtext.MarkType, fn MarkRenderer) Option {
	return func(r *Renderer) error {
		if mt == "" {
			return fmt.Errorf("mark renderer: empty mark type")
		} else if fn == nil {
			return fmt.Errorf("mark renderer %q: nil renderer", mt)
		}
		r.marks[mt] = fn
		return nil
	}
}

func WithTextRenderer(fn TextRenderer) Option {
	return func(r *Renderer) error {
		if fn == nil {
			return fmt.Errorf("text renderer: nil renderer")
		}
		r.text = fn
		return nil
	}
}

// WithPreserveWhitespace keeps runs of spaces and line breaks in text
// values visible. It has no effect when a text renderer is supplied.
func WithPreserveWhitespace(flag bool) Option {
	return func(r *Renderer) error {
		r.preserveWhitespace = flag
		return nil
	}
}

// WithSanitizer passes the rendered HTML through a bluemonday policy.
// A nil policy disables sanitizing.
func WithSanitizer(p *bluemonday.Policy) Option {
	return func(r *Renderer) error {
		r.sanitizer = p
		return nil
	}
}
