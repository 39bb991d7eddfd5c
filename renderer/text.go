// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/unicode/norm"
)

const nbsp = "\u00a0"

// PreserveWhitespace renders text so that runs of two or more spaces stay
// visible (as non-breaking spaces) and each newline becomes a <br>.
func PreserveWhitespace(s string) templ.Component {
	s = keepSpaceRuns(s)
	lines := strings.Split(s, "\n")
	parts := make([]templ.Component, 0, 2*len(lines)-1)
	for i, line := range lines {
		if i > 0 {
			parts = append(parts, Void("br"))
		}
		parts = append(parts, Text(line))
	}
	return Fragment(parts...)
}

func keepSpaceRuns(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var sb strings.Builder
	run := 0
	flush := func() {
		if run == 1 {
			sb.WriteByte(' ')
		} else if run > 1 {
			sb.WriteString(strings.Repeat(nbsp, run))
		}
		run = 0
	}
	for _, r := range s {
		if r == ' ' {
			run++
			continue
		}
		flush()
		sb.WriteRune(r)
	}
	flush()
	return sb.String()
}

// TransformText returns a text renderer that applies fn to the raw value
// before handing it to next. A nil next renders escaped text.
func TransformText(fn func(string) string, next TextRenderer) TextRenderer {
	if next == nil {
		next = IdentityText
	}
	return func(s string) templ.Component {
		return next(fn(s))
	}
}

// NormalizedText returns a text renderer that puts values into the given
// Unicode normalization form, for example norm.NFC.
func NormalizedText(form norm.Form, next TextRenderer) TextRenderer {
	return TransformText(form.String, next)
}
