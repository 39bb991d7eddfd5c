// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext"
	"github.com/mdhender/richtext/renderer"
)

func page(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<!DOCTYPE html>"); err != nil {
			return err
		}
		return renderer.Element("html", []renderer.Attr{{Key: "lang", Value: "en"}},
			renderer.Element("head", nil,
				renderer.Void("meta", renderer.Attr{Key: "charset", Value: "utf-8"}),
				renderer.Element("title", nil, renderer.Text(title)),
			),
			renderer.Element("body", nil,
				renderer.Element("main", nil, body...),
				renderer.Element("footer", nil, renderer.Text("richtext "+richtext.Version().String())),
			),
		).Render(ctx, w)
	})
}

func link(href, text string) templ.Component {
	return renderer.Element("a", []renderer.Attr{{Key: "href", Value: href}}, renderer.Text(text))
}
