// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package richtext

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Data is the type-specific payload of a node, such as the uri of a hyperlink
// or the link reference of an embedded entry. It is kept as the raw JSON
// object from the document and queried with gjson paths, so fields this
// module knows nothing about survive a decode/encode round trip.
//
// A nil Data behaves like an empty object.
type Data []byte

// NewData marshals v (usually a map[string]any) into a Data payload.
func NewData(v any) (Data, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	if !gjson.ValidBytes(buf) || !gjson.ParseBytes(buf).IsObject() {
		return nil, fmt.Errorf("data: payload must be a json object")
	}
	return Data(buf), nil
}

// MustData is like NewData but panics on error. Intended for fixtures.
func MustData(v any) Data {
	d, err := NewData(v)
	if err != nil {
		panic(err)
	}
	return d
}

// Get returns the value at path, using gjson path syntax ("target.sys.id").
// Missing fields yield a zero Result whose String() is "".
func (d Data) Get(path string) gjson.Result {
	if len(d) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(d, path)
}

// Set returns a copy of the payload with the value at path replaced.
// The receiver is not modified.
func (d Data) Set(path string, value any) (Data, error) {
	src := []byte("{}")
	if len(d) != 0 {
		src = append([]byte(nil), d...)
	}
	out, err := sjson.SetBytes(src, path, value)
	if err != nil {
		return nil, fmt.Errorf("data: set %q: %w", path, err)
	}
	return Data(out), nil
}

// URI returns the "uri" field used by hyperlinks.
func (d Data) URI() string {
	return d.Get("uri").String()
}

// TargetID returns the identifier of the linked entry or asset,
// or the empty string when the link reference is missing.
func (d Data) TargetID() string {
	return d.Get("target.sys.id").String()
}

// IsEmpty reports whether the payload has no fields.
func (d Data) IsEmpty() bool {
	if len(d) == 0 {
		return true
	}
	empty := true
	gjson.ParseBytes(d).ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

func (d Data) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}
	return d, nil
}

func (d *Data) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = nil
		return nil
	}
	*d = append((*d)[:0:0], b...)
	return nil
}
