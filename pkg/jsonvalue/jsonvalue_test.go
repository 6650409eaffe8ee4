package jsonvalue_test

import (
	"testing"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

func TestEqual(t *testing.T) {
	type pair struct {
		A int `json:"a"`
	}
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"same map", map[string]any{"a": 1.0}, map[string]any{"a": 1.0}, true},
		{"int vs float", map[string]any{"a": 1}, map[string]any{"a": 1.0}, true},
		{"struct vs map", pair{A: 2}, map[string]any{"a": 2.0}, true},
		{"different value", map[string]any{"a": 1.0}, map[string]any{"a": 2.0}, false},
		{"nil vs empty map", nil, map[string]any{}, false},
		{"both nil", nil, nil, true},
		{"slice order", []any{1.0, 2.0}, []any{2.0, 1.0}, false},
		{"unencodable", func() {}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := jsonvalue.Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"false", false, true},
		{"empty string", "", true},
		{"int zero", 0, true},
		{"float zero", 0.0, true},
		{"true", true, false},
		{"text", "x", false},
		{"number", 3, false},
		{"empty map", map[string]any{}, false},
		{"empty slice", []any{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := jsonvalue.IsZero(tc.value); got != tc.want {
				t.Fatalf("IsZero(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	if got := jsonvalue.Pretty(nil); got != "null" {
		t.Fatalf("Pretty(nil) = %q", got)
	}
	if got := jsonvalue.Pretty(map[string]any{"a": 2.0}); got != "{\n  \"a\": 2\n}" {
		t.Fatalf("unexpected pretty output %q", got)
	}
}
