// Package secretstore adapts the backing secret value store. The store is the
// only place raw secret values live; the engine addresses them through opaque
// references and detects payload shape at rotation time.
package secretstore

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Payload is a secret value read from the store: either an opaque string or a
// structured mapping of named fields. The shape is not statically known per
// credential, so it is detected when the payload is parsed.
type Payload struct {
	raw    string
	fields map[string]any
}

// ParsePayload detects the payload shape. A value that parses as a JSON
// object is structured; everything else is opaque text.
func ParsePayload(raw string) Payload {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err == nil && fields != nil {
		return Payload{raw: raw, fields: fields}
	}
	return Payload{raw: raw}
}

// NewOpaque builds an opaque payload from a plain value.
func NewOpaque(value string) Payload {
	return Payload{raw: value}
}

// Structured reports whether the payload is a field mapping.
func (p Payload) Structured() bool {
	return p.fields != nil
}

// Raw returns the serialized payload as it should be written to the store.
func (p Payload) Raw() string {
	if p.fields == nil {
		return p.raw
	}
	data, err := json.Marshal(p.fields)
	if err != nil {
		// Marshalling a map[string]any built from Unmarshal cannot fail;
		// fall back to the original text if it somehow does.
		return p.raw
	}
	return string(data)
}

// Field returns the string value of a named field. The bool is false when
// the payload is opaque, the field is absent, or the value is not a string.
func (p Payload) Field(name string) (string, bool) {
	if p.fields == nil {
		return "", false
	}
	v, ok := p.fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// HasField reports whether a named field exists, regardless of its type.
func (p Payload) HasField(name string) bool {
	if p.fields == nil {
		return false
	}
	_, ok := p.fields[name]
	return ok
}

// SetField sets a field, creating it if absent, and returns an updated
// payload. Calling SetField on an opaque payload promotes it to a structured
// one containing only that field.
func (p Payload) SetField(name, value string) Payload {
	fields := make(map[string]any, len(p.fields)+1)
	for k, v := range p.fields {
		fields[k] = v
	}
	fields[name] = value
	return Payload{fields: fields}
}

// FieldNames returns the sorted field names of a structured payload.
func (p Payload) FieldNames() []string {
	if p.fields == nil {
		return nil
	}
	names := make([]string, 0, len(p.fields))
	for k := range p.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String implements Stringer without exposing the value.
func (p Payload) String() string {
	if p.Structured() {
		return fmt.Sprintf("structured payload (%d fields)", len(p.fields))
	}
	return "opaque payload"
}
