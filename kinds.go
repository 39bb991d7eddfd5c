// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package richtext

// NodeType is the discriminant carried in the "nodeType" field of every node.
type NodeType string

// Block node types. Blocks contain inline or block nodes.
const (
	BlockDocument  NodeType = "document"
	BlockParagraph NodeType = "paragraph"

	BlockHeading1 NodeType = "heading-1"
	BlockHeading2 NodeType = "heading-2"
	BlockHeading3 NodeType = "heading-3"
	BlockHeading4 NodeType = "heading-4"
	BlockHeading5 NodeType = "heading-5"
	BlockHeading6 NodeType = "heading-6"

	BlockOrderedList   NodeType = "ordered-list"
	BlockUnorderedList NodeType = "unordered-list"
	BlockListItem      NodeType = "list-item"

	BlockHR    NodeType = "hr"
	BlockQuote NodeType = "blockquote"

	BlockEmbeddedEntry NodeType = "embedded-entry-block"
	BlockEmbeddedAsset NodeType = "embedded-asset-block"

	BlockTable           NodeType = "table"
	BlockTableRow        NodeType = "table-row"
	BlockTableCell       NodeType = "table-cell"
	BlockTableHeaderCell NodeType = "table-header-cell"
)

// Inline node types.
const (
	InlineHyperlink      NodeType = "hyperlink"
	InlineEntryHyperlink NodeType = "entry-hyperlink"
	InlineAssetHyperlink NodeType = "asset-hyperlink"
	InlineEmbeddedEntry  NodeType = "embedded-entry-inline"
)

// NodeText is the node type of text leaves.
const NodeText NodeType = "text"

// MarkType is the tag of a Mark. Callers may use tags beyond the four below.
type MarkType string

const (
	MarkBold      MarkType = "bold"
	MarkItalic    MarkType = "italic"
	MarkUnderline MarkType = "underline"
	MarkCode      MarkType = "code"
)

func (t NodeType) String() string { return string(t) }
func (t MarkType) String() string { return string(t) }
