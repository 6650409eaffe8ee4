// Package definition decodes the stored form blob a field renderer binds to.
//
// A payload entry's schema member holds either a bare JSON Schema, a full
// blob object ({schema, UISchema, validate, initialData, name}), or either of
// those serialised as JSON text inside a JSON string. Decode accepts all
// three shapes.
package definition

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
)

// ErrParse marks every failure to decode a stored blob.
var ErrParse = errors.New("definition: parse blob")

// ErrNotFound is returned when the selected form is absent from the payload.
var ErrNotFound = errors.New("definition: form not found")

// Blob is a field-bound form definition.
type Blob struct {
	Schema      json.RawMessage `json:"schema"`
	UISchema    json.RawMessage `json:"UISchema,omitempty"`
	Validate    string          `json:"validate,omitempty"`
	InitialData any             `json:"initialData,omitempty"`
	Name        string          `json:"name,omitempty"`
}

// HasInitialData reports whether the blob carries initial data.
func (b Blob) HasInitialData() bool {
	return b.InitialData != nil
}

// Lookup selects name from payload and decodes it.
func Lookup(payload config.Payload, name string) (Blob, error) {
	def, ok := payload.Get(name)
	if !ok {
		return Blob{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	blob, err := Decode(def.Schema)
	if err != nil {
		return Blob{}, fmt.Errorf("form %q: %w", name, err)
	}
	return blob, nil
}

// Decode parses a stored schema member into a Blob.
func Decode(raw []byte) (Blob, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Blob{}, fmt.Errorf("%w: empty document", ErrParse)
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return Blob{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		trimmed = bytes.TrimSpace([]byte(text))
		if len(trimmed) == 0 {
			return Blob{}, fmt.Errorf("%w: empty document", ErrParse)
		}
	}

	if !json.Valid(trimmed) {
		return Blob{}, fmt.Errorf("%w: invalid JSON", ErrParse)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		// Booleans are valid JSON Schemas too.
		if bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte("false")) {
			return Blob{Schema: append(json.RawMessage(nil), trimmed...)}, nil
		}
		return Blob{}, fmt.Errorf("%w: schema must be an object", ErrParse)
	}

	if _, wrapped := members["schema"]; !wrapped {
		return Blob{Schema: append(json.RawMessage(nil), trimmed...)}, nil
	}

	var blob Blob
	if err := json.Unmarshal(trimmed, &blob); err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(bytes.TrimSpace(blob.Schema)) == 0 || bytes.Equal(bytes.TrimSpace(blob.Schema), []byte("null")) {
		return Blob{}, fmt.Errorf("%w: schema member is empty", ErrParse)
	}
	if bytes.Equal(bytes.TrimSpace(blob.UISchema), []byte("null")) {
		blob.UISchema = nil
	}
	return blob, nil
}

// Encode serialises blob as a JSON object.
func Encode(blob Blob) ([]byte, error) {
	if len(blob.Schema) == 0 {
		return nil, errors.New("definition: schema is required")
	}
	return json.Marshal(blob)
}

