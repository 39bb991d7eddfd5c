// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package richtext defines the rich-text document tree exchanged by the
// content platform: a Document root holding blocks, inlines and text leaves,
// each tagged by its nodeType. The renderer package turns these trees into
// templ components.
package richtext
