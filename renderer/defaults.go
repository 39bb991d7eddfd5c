// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/mdhender/richtext"
)

// DefaultNodeRenderers returns a fresh copy of the built-in node renderers.
func DefaultNodeRenderers() map[richtext.NodeType]NodeRenderer {
	return map[richtext.NodeType]NodeRenderer{
		richtext.BlockDocument:        Transparent,
		richtext.BlockParagraph:       wrap("p"),
		richtext.BlockHeading1:        wrap("h1"),
		richtext.BlockHeading2:        wrap("h2"),
		richtext.BlockHeading3:        wrap("h3"),
		richtext.BlockHeading4:        wrap("h4"),
		richtext.BlockHeading5:        wrap("h5"),
		richtext.BlockHeading6:        wrap("h6"),
		richtext.BlockEmbeddedEntry:   wrap("div"),
		richtext.BlockUnorderedList:   wrap("ul"),
		richtext.BlockOrderedList:     wrap("ol"),
		richtext.BlockListItem:        wrap("li"),
		richtext.BlockQuote:           wrap("blockquote"),
		richtext.BlockHR:              horizontalRule,
		richtext.BlockTable:           table,
		richtext.BlockTableRow:        wrap("tr"),
		richtext.BlockTableCell:       tableCell("td"),
		richtext.BlockTableHeaderCell: tableCell("th"),
		richtext.InlineAssetHyperlink: linkedInline,
		richtext.InlineEntryHyperlink: linkedInline,
		richtext.InlineEmbeddedEntry:  linkedInline,
		richtext.InlineHyperlink:      hyperlink,
	}
}

// DefaultMarkRenderers returns a fresh copy of the built-in mark renderers.
func DefaultMarkRenderers() map[richtext.MarkType]MarkRenderer {
	return map[richtext.MarkType]MarkRenderer{
		richtext.MarkBold:      wrapMark("b"),
		richtext.MarkItalic:    wrapMark("i"),
		richtext.MarkUnderline: wrapMark("u"),
		richtext.MarkCode:      wrapMark("code"),
	}
}

// Transparent renders only the children of a node.
func Transparent(_ richtext.Node, children []templ.Component) templ.Component {
	return Fragment(children...)
}

// TransparentMark returns its child unchanged.
func TransparentMark(child templ.Component) templ.Component {
	return child
}

// IdentityText renders the raw text, escaped, with no other change.
func IdentityText(s string) templ.Component {
	return Text(s)
}

func wrap(tag string) NodeRenderer {
	return func(_ richtext.Node, children []templ.Component) templ.Component {
		return Element(tag, nil, children...)
	}
}

func wrapMark(tag string) MarkRenderer {
	return func(child templ.Component) templ.Component {
		return Element(tag, nil, child)
	}
}

// hr is void; whatever content the node carries is dropped.
func horizontalRule(_ richtext.Node, _ []templ.Component) templ.Component {
	return Void("hr")
}

func table(_ richtext.Node, children []templ.Component) templ.Component {
	return Element("table", nil, Element("tbody", nil, children...))
}

func tableCell(tag string) NodeRenderer {
	return func(node richtext.Node, children []templ.Component) templ.Component {
		data := dataOf(node)
		var attrs []Attr
		for _, key := range []string{"colspan", "rowspan"} {
			if n := data.Get(key).Int(); n > 1 {
				attrs = append(attrs, Attr{Key: key, Value: strconv.FormatInt(n, 10)})
			}
		}
		return Element(tag, attrs, children...)
	}
}

// linkedInline marks the spot of an entry or asset link. The target itself
// is not resolved; a missing link reference renders an empty id.
func linkedInline(node richtext.Node, _ []templ.Component) templ.Component {
	id := dataOf(node).TargetID()
	return Element("span", nil, Text("type: "+string(node.NodeType())+" id: "+id))
}

func hyperlink(node richtext.Node, children []templ.Component) templ.Component {
	href := string(templ.URL(dataOf(node).URI()))
	return Element("a", []Attr{{Key: "href", Value: href}}, children...)
}

func dataOf(node richtext.Node) richtext.Data {
	if c, ok := node.(richtext.Container); ok {
		return c.NodeData()
	}
	return nil
}
