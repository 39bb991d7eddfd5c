// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// UGCPolicy allows the markup produced by the default renderers, plus the
// usual user-generated-content elements, and strips everything else.
func UGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	return p
}

// Sanitized renders c into a buffer and writes the policy's cleaned copy.
func Sanitized(c templ.Component, p *bluemonday.Policy) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := c.Render(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(p.SanitizeBytes(buf.Bytes()))
		return err
	})
}
