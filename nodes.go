// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package richtext

// Node is the interface implemented by every element of a rich-text tree.
//
// The set of implementations is closed: *Text, *Block, *Inline and *Document.
// NodeType returns the discriminant from the "nodeType" field; it never changes
// after the node is constructed.
//
// Nodes are treated as immutable values. Nothing in this module modifies a
// node it has been handed.
type Node interface {
	NodeType() NodeType
	node()
}

// Container is implemented by every node that holds child nodes, which is
// every node except *Text.
type Container interface {
	Node
	NodeData() Data
	Children() []Node
}

// Mark is an inline style annotation attached to a Text node.
type Mark struct {
	Type MarkType `json:"type"`
}

// Text is a leaf node. Marks apply in order: Marks[0] is innermost.
type Text struct {
	Value string
	Marks []Mark
	Data  Data
}

// Block is a container node such as a paragraph, list or table cell.
// Nodes with an unrecognized type are also decoded as blocks.
type Block struct {
	Type    NodeType
	Data    Data
	Content []Node
}

// Inline is a container node that lives inside text containers,
// such as a hyperlink.
type Inline struct {
	Type    NodeType
	Data    Data
	Content []Node
}

// Document is the root of a rich-text tree.
type Document struct {
	Data    Data
	Content []Node
}

func (t *Text) NodeType() NodeType { return NodeText }
func (t *Text) node()              {}

func (b *Block) NodeType() NodeType { return b.Type }
func (b *Block) NodeData() Data     { return b.Data }
func (b *Block) Children() []Node   { return b.Content }
func (b *Block) node()              {}

func (i *Inline) NodeType() NodeType { return i.Type }
func (i *Inline) NodeData() Data     { return i.Data }
func (i *Inline) Children() []Node   { return i.Content }
func (i *Inline) node()              {}

func (d *Document) NodeType() NodeType { return BlockDocument }
func (d *Document) NodeData() Data     { return d.Data }
func (d *Document) Children() []Node   { return d.Content }
func (d *Document) node()              {}

// HasMark reports whether the text carries a mark of the given type.
func (t *Text) HasMark(mt MarkType) bool {
	for _, m := range t.Marks {
		if m.Type == mt {
			return true
		}
	}
	return false
}
