// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package richtext

import (
	"encoding/json"
	"fmt"
	"io"
)

// wireNode is the union of all fields any node may carry on the wire.
// Content nests wireNodes so a whole tree is read in one pass of the
// decoder; a JSON null child decodes to a nil pointer.
type wireNode struct {
	NodeType NodeType    `json:"nodeType"`
	Data     Data        `json:"data"`
	Content  []*wireNode `json:"content"`
	Value    string      `json:"value"`
	Marks    []Mark      `json:"marks"`
}

// DecodeDocument reads a single JSON document from r.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// DecodeNode decodes any node from its JSON form. The "nodeType" field selects
// the variant: "text" yields *Text, "document" yields *Document, the inline
// types yield *Inline, and everything else, including unknown types, yields
// *Block. A JSON null yields a nil Node.
func DecodeNode(raw []byte) (Node, error) {
	var w *wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode node: %w", err)
	}
	return w.node(), nil
}

// node converts the decoded tree. A nil receiver yields a nil Node.
func (w *wireNode) node() Node {
	if w == nil {
		return nil
	}
	switch {
	case w.NodeType == NodeText:
		return &Text{Value: w.Value, Marks: w.Marks, Data: w.Data}
	case w.NodeType == BlockDocument:
		return &Document{Data: w.Data, Content: w.content()}
	case IsInline(w.NodeType):
		return &Inline{Type: w.NodeType, Data: w.Data, Content: w.content()}
	default:
		return &Block{Type: w.NodeType, Data: w.Data, Content: w.content()}
	}
}

func (w *wireNode) content() []Node {
	if len(w.Content) == 0 {
		return nil
	}
	content := make([]Node, 0, len(w.Content))
	for _, c := range w.Content {
		content = append(content, c.node())
	}
	return content
}

// UnmarshalJSON decodes the root of a document. A nodeType other than
// "document" is rejected; a missing nodeType is accepted.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.NodeType != "" && w.NodeType != BlockDocument {
		return fmt.Errorf("root nodeType %q: want %q", w.NodeType, BlockDocument)
	}
	d.Data, d.Content = w.Data, w.content()
	return nil
}

func (t *Text) MarshalJSON() ([]byte, error) {
	marks := t.Marks
	if marks == nil {
		marks = []Mark{}
	}
	return json.Marshal(struct {
		NodeType NodeType `json:"nodeType"`
		Value    string   `json:"value"`
		Marks    []Mark   `json:"marks"`
		Data     Data     `json:"data"`
	}{NodeText, t.Value, marks, t.Data})
}

func (b *Block) MarshalJSON() ([]byte, error) {
	return marshalContainer(b.Type, b.Data, b.Content)
}

func (i *Inline) MarshalJSON() ([]byte, error) {
	return marshalContainer(i.Type, i.Data, i.Content)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return marshalContainer(BlockDocument, d.Data, d.Content)
}

func marshalContainer(nt NodeType, data Data, content []Node) ([]byte, error) {
	if content == nil {
		content = []Node{}
	}
	return json.Marshal(struct {
		NodeType NodeType `json:"nodeType"`
		Data     Data     `json:"data"`
		Content  []Node   `json:"content"`
	}{nt, data, content})
}
