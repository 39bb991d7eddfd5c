// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package richtext

import "slices"

// The tables below describe which node types may appear where in a
// well-formed document. They are informational: the renderer walks whatever
// tree it is given and never consults them.

// TopLevelBlocks are the block types allowed as direct children of the document.
var TopLevelBlocks = []NodeType{
	BlockParagraph,
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
	BlockOrderedList,
	BlockUnorderedList,
	BlockHR,
	BlockQuote,
	BlockEmbeddedEntry,
	BlockEmbeddedAsset,
	BlockTable,
}

// ListItemBlocks are the block types allowed inside a list item.
var ListItemBlocks = []NodeType{
	BlockParagraph,
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
	BlockOrderedList,
	BlockUnorderedList,
	BlockHR,
	BlockQuote,
	BlockEmbeddedEntry,
	BlockEmbeddedAsset,
}

var TableBlocks = []NodeType{
	BlockTable,
	BlockTableRow,
	BlockTableCell,
	BlockTableHeaderCell,
}

// VoidBlocks never have content.
var VoidBlocks = []NodeType{
	BlockHR,
	BlockEmbeddedEntry,
	BlockEmbeddedAsset,
}

var Headings = []NodeType{
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
}

// TextContainers are the block types that may contain text and inline nodes.
var TextContainers = append([]NodeType{BlockParagraph}, Headings...)

// Containers maps container block types to the child types they accept.
// The document itself is not listed; see TopLevelBlocks.
var Containers = map[NodeType][]NodeType{
	BlockOrderedList:     {BlockListItem},
	BlockUnorderedList:   {BlockListItem},
	BlockListItem:        ListItemBlocks,
	BlockQuote:           {BlockParagraph},
	BlockTable:           {BlockTableRow},
	BlockTableRow:        {BlockTableCell, BlockTableHeaderCell},
	BlockTableCell:       {BlockParagraph},
	BlockTableHeaderCell: {BlockParagraph},
}

// V1NodeTypes are the node types that existed before tables were introduced.
var V1NodeTypes = []NodeType{
	BlockDocument,
	BlockParagraph,
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
	BlockOrderedList,
	BlockUnorderedList,
	BlockListItem,
	BlockHR,
	BlockQuote,
	BlockEmbeddedEntry,
	BlockEmbeddedAsset,
	InlineHyperlink,
	InlineEntryHyperlink,
	InlineAssetHyperlink,
	InlineEmbeddedEntry,
	NodeText,
}

var blocks = []NodeType{
	BlockDocument,
	BlockParagraph,
	BlockHeading1,
	BlockHeading2,
	BlockHeading3,
	BlockHeading4,
	BlockHeading5,
	BlockHeading6,
	BlockOrderedList,
	BlockUnorderedList,
	BlockListItem,
	BlockHR,
	BlockQuote,
	BlockEmbeddedEntry,
	BlockEmbeddedAsset,
	BlockTable,
	BlockTableRow,
	BlockTableCell,
	BlockTableHeaderCell,
}

var inlines = []NodeType{
	InlineHyperlink,
	InlineEntryHyperlink,
	InlineAssetHyperlink,
	InlineEmbeddedEntry,
}

// IsBlock reports whether nt is one of the known block types.
func IsBlock(nt NodeType) bool { return slices.Contains(blocks, nt) }

// IsInline reports whether nt is one of the known inline types.
func IsInline(nt NodeType) bool { return slices.Contains(inlines, nt) }

// IsText reports whether nt is the text leaf type.
func IsText(nt NodeType) bool { return nt == NodeText }

func IsVoid(nt NodeType) bool { return slices.Contains(VoidBlocks, nt) }

func IsHeading(nt NodeType) bool { return slices.Contains(Headings, nt) }

// Accepts reports whether a well-formed document may place a child of type
// child directly under a parent of type parent. Text containers accept text
// and inline nodes; inline nodes accept text.
func Accepts(parent, child NodeType) bool {
	switch {
	case parent == BlockDocument:
		return slices.Contains(TopLevelBlocks, child)
	case slices.Contains(TextContainers, parent):
		return child == NodeText || IsInline(child)
	case IsInline(parent):
		return child == NodeText
	}
	if allowed, ok := Containers[parent]; ok {
		return slices.Contains(allowed, child)
	}
	return false
}
