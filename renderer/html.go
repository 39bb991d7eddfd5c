// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Attr is a single HTML attribute. Values are escaped when written.
type Attr struct {
	Key   string
	Value string
}

// Element returns a component that wraps children in a tag.
func Element(tag string, attrs []Attr, children ...templ.Component) templ.Component {
	inner := Fragment(children...)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(w, tag, attrs); err != nil {
			return err
		}
		if err := inner.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// Void returns a component for a self-closing element such as <hr> or <br>.
func Void(tag string, attrs ...Attr) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return openTag(w, tag, attrs)
	})
}

// Fragment renders children one after another with no markup of its own.
// Nil children are skipped.
func Fragment(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// Text returns a component that writes s, HTML escaped.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

func openTag(w io.Writer, tag string, attrs []Attr) error {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tag)
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(templ.EscapeString(a.Value))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	_, err := io.WriteString(w, sb.String())
	return err
}
