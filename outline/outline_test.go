// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package outline_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext/outline"
)

func TestFromHTML(t *testing.T) {
	input := `<p>one <a href="https://example.com">two</a></p><!-- note --><table><tbody><tr><th colspan="2">h</th></tr></tbody></table><hr>`
	got, err := outline.FromHTML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	want := `p
  "one "
  a href="https://example.com"
    "two"
table
  tbody
    tr
      th colspan="2"
        "h"
hr
`
	if got != want {
		t.Fatalf("outline =\n%s\nwant\n%s", got, want)
	}
}

func TestFromHTML_TextOnly(t *testing.T) {
	got, err := outline.FromHTML(strings.NewReader("Hello world"))
	if err != nil {
		t.Fatalf("FromHTML: %v", err)
	}
	if want := "\"Hello world\"\n"; got != want {
		t.Fatalf("outline = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	c := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<ol><li>a</li><li>b</li></ol>`)
		return err
	})
	got, err := outline.Render(context.Background(), c)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "ol\n  li\n    \"a\"\n  li\n    \"b\"\n"
	if got != want {
		t.Fatalf("outline = %q, want %q", got, want)
	}
}

func TestRender_PropagatesError(t *testing.T) {
	c := templ.ComponentFunc(func(context.Context, io.Writer) error {
		return io.ErrUnexpectedEOF
	})
	if _, err := outline.Render(context.Background(), c); err == nil {
		t.Fatal("Render: want error")
	}
}
