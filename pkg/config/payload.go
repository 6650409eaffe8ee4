package config

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// FormDefinition is a named form's stored definition. Schema carries the JSON
// text exactly as persisted; for field-bound forms it may hold the full blob
// (see package definition).
type FormDefinition struct {
	Schema json.RawMessage `json:"schema"`
}

// NewFormDefinition compacts raw and wraps it. The input must be valid JSON.
func NewFormDefinition(raw []byte) (FormDefinition, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(raw)); err != nil {
		return FormDefinition{}, fmt.Errorf("config: compact schema: %w", err)
	}
	return FormDefinition{Schema: json.RawMessage(buf.Bytes())}, nil
}

// Clone returns a deep copy of the definition.
func (d FormDefinition) Clone() FormDefinition {
	return FormDefinition{Schema: append(json.RawMessage(nil), d.Schema...)}
}

// Payload maps form names to definitions. The zero value is an empty payload.
// Payload values never change once built; every mutation returns a new one.
type Payload struct {
	forms map[string]FormDefinition
}

// NewPayload builds a payload from a plain map, copying every entry.
func NewPayload(forms map[string]FormDefinition) Payload {
	if len(forms) == 0 {
		return Payload{}
	}
	out := make(map[string]FormDefinition, len(forms))
	for name, def := range forms {
		out[name] = def.Clone()
	}
	return Payload{forms: out}
}

// Len reports the number of forms.
func (p Payload) Len() int {
	return len(p.forms)
}

// Has reports whether name is a key of the payload.
func (p Payload) Has(name string) bool {
	_, ok := p.forms[name]
	return ok
}

// Get returns a copy of the definition stored under name.
func (p Payload) Get(name string) (FormDefinition, bool) {
	def, ok := p.forms[name]
	if !ok {
		return FormDefinition{}, false
	}
	return def.Clone(), true
}

// Names returns the form names in lexical order.
func (p Payload) Names() []string {
	names := make([]string, 0, len(p.forms))
	for name := range p.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the payload as a plain map.
func (p Payload) Map() map[string]FormDefinition {
	out := make(map[string]FormDefinition, len(p.forms))
	for name, def := range p.forms {
		out[name] = def.Clone()
	}
	return out
}

// With returns a new payload holding every existing entry plus def under
// name. An existing entry with the same name is replaced.
func (p Payload) With(name string, def FormDefinition) Payload {
	out := make(map[string]FormDefinition, len(p.forms)+1)
	for key, value := range p.forms {
		out[key] = value
	}
	out[name] = def.Clone()
	return Payload{forms: out}
}

// Without returns a new payload lacking name. When name is absent the
// receiver is returned unchanged.
func (p Payload) Without(name string) Payload {
	if !p.Has(name) {
		return p
	}
	out := make(map[string]FormDefinition, len(p.forms)-1)
	for key, value := range p.forms {
		if key == name {
			continue
		}
		out[key] = value
	}
	return Payload{forms: out}
}

// Equal reports whether both payloads hold the same names and byte-identical
// schema text.
func (p Payload) Equal(other Payload) bool {
	if len(p.forms) != len(other.forms) {
		return false
	}
	for name, def := range p.forms {
		od, ok := other.forms[name]
		if !ok || !bytes.Equal(def.Schema, od.Schema) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the payload as a plain JSON object.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.forms == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.forms)
}

// UnmarshalJSON decodes a JSON object. A JSON null yields an empty payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if p == nil {
		return errors.New("config: unmarshal into nil payload")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = Payload{}
		return nil
	}
	var forms map[string]FormDefinition
	if err := json.Unmarshal(trimmed, &forms); err != nil {
		return fmt.Errorf("config: decode payload: %w", err)
	}
	*p = NewPayload(forms)
	return nil
}

// DecodePayload parses stored payload bytes.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := p.UnmarshalJSON(data); err != nil {
		return Payload{}, err
	}
	return p, nil
}
