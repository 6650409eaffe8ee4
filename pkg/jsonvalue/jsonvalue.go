// Package jsonvalue normalises decoded JSON values so they can be compared
// structurally and handed to validators that only understand the shapes a
// JSON decoder produces.
package jsonvalue

import (
	"bytes"
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

// Normalize round-trips value through JSON, yielding nil, bool, float64,
// string, []any or map[string]any leaves.
func Normalize(value any) (any, error) {
	switch value.(type) {
	case nil, bool, float64, string:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("jsonvalue: encode: %w", err)
	}
	return Decode(raw)
}

// Decode parses raw into a normalised value.
func Decode(raw []byte) (any, error) {
	var out any
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("jsonvalue: decode: %w", err)
	}
	return out, nil
}

// Equal reports whether a and b encode to the same JSON value. Values that
// cannot be encoded are never equal.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// IsZero reports whether value is null, false, the empty string or zero.
// Empty objects and arrays are not zero.
func IsZero(value any) bool {
	n, err := Normalize(value)
	if err != nil {
		return false
	}
	switch v := n.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case float64:
		return v == 0
	}
	return false
}

// Pretty renders value as indented JSON; "null" for nil.
func Pretty(value any) string {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(raw)
}
