// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package outline prints the element structure of rendered HTML as an
// indented tree, one element or text run per line:
//
//	ol
//	  li
//	    p
//	      "first"
//
// Outlines make it easy to compare the shape of two renderings without
// caring about attribute quoting or escaping.
package outline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes c and returns the outline of its output.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("outline: render: %w", err)
	}
	return FromHTML(&buf)
}

// FromHTML parses an HTML fragment, as found inside <body>, and returns its outline.
func FromHTML(r io.Reader) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return "", fmt.Errorf("outline: parse: %w", err)
	}
	var sb strings.Builder
	for _, n := range nodes {
		write(&sb, n, 0)
	}
	return sb.String(), nil
}

func write(sb *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return
		}
		fmt.Fprintf(sb, "%s%q\n", indent, n.Data)
		return
	case html.ElementNode:
		sb.WriteString(indent)
		sb.WriteString(n.Data)
		for _, a := range n.Attr {
			fmt.Fprintf(sb, " %s=%q", a.Key, a.Val)
		}
		sb.WriteByte('\n')
	default:
		// comments and doctypes carry no structure
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		write(sb, c, depth+1)
	}
}
