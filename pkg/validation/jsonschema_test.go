package validation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

const articleSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": { "type": "string", "minLength": 2 },
    "rating": { "type": "integer", "maximum": 5 },
    "tags": { "type": "array", "items": { "type": "string" } }
  }
}`

func compile(t *testing.T, v validation.Validator, schema, hook string) validation.Compiled {
	t.Helper()
	compiled, err := v.Compile(context.Background(), []byte(schema), hook)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return compiled
}

func TestValidateValid(t *testing.T) {
	compiled := compile(t, validation.NewJSONSchema(), articleSchema, "")
	result := compiled.Validate(map[string]any{"title": "Go", "rating": 4, "tags": []string{"a"}})
	if !result.Valid {
		t.Fatalf("expected valid result, got %#v", result.Issues)
	}
	if result.Err() != nil {
		t.Fatalf("expected nil error")
	}
}

func TestValidateReportsFieldPaths(t *testing.T) {
	compiled := compile(t, validation.NewJSONSchema(), articleSchema, "")
	result := compiled.Validate(map[string]any{"title": "G", "rating": 9.0, "tags": []any{"ok", 3.0}})
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	var fields []string
	for _, issue := range result.Issues {
		fields = append(fields, issue.Field)
	}
	want := []string{"rating", "tags.1", "title"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("issue fields mismatch (-want +got):\n%s", diff)
	}
	var verr *validation.Error
	if !errors.As(result.Err(), &verr) || len(verr.Issues) != 3 {
		t.Fatalf("expected *validation.Error with three issues, got %v", result.Err())
	}
}

func TestValidateMissingRequired(t *testing.T) {
	compiled := compile(t, validation.NewJSONSchema(), articleSchema, "")
	result := compiled.Validate(map[string]any{})
	if result.Valid || len(result.Issues) != 1 {
		t.Fatalf("expected one issue, got %#v", result)
	}
	if result.Issues[0].Field != "" {
		t.Fatalf("required issue should sit on the root, got %q", result.Issues[0].Field)
	}
	if _, ok := result.FieldErrors()[""]; !ok {
		t.Fatalf("expected root field errors")
	}
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	v := validation.NewJSONSchema()
	for _, schema := range []string{``, `{not json`, `{"type":"object","properties":{"a":{"minLength":"oops"}}}`} {
		if _, err := v.Compile(context.Background(), []byte(schema), ""); !errors.Is(err, validation.ErrCompile) {
			t.Fatalf("%q: expected ErrCompile, got %v", schema, err)
		}
	}
}

func TestHooksRunAfterSchema(t *testing.T) {
	hooks := validation.NewHooks()
	hooks.MustRegister("nonEmpty", validation.RequireNonEmpty)
	hooks.MustRegister("noDrafts", func(value any) []validation.Issue {
		obj, _ := value.(map[string]any)
		if obj["status"] == "draft" {
			return []validation.Issue{{Path: "/status", Message: "drafts are not allowed"}}
		}
		return nil
	})
	v := validation.NewJSONSchema(validation.WithHooks(hooks))

	compiled := compile(t, v, `{"type":"object"}`, "nonEmpty")
	if result := compiled.Validate(map[string]any{}); result.Valid {
		t.Fatalf("expected nonEmpty hook to reject empty object")
	}

	compiled = compile(t, v, `{"type":"object"}`, "noDrafts")
	result := compiled.Validate(map[string]any{"status": "draft"})
	want := []validation.Issue{{Path: "/status", Field: "status", Message: "drafts are not allowed"}}
	if diff := cmp.Diff(want, result.Issues); diff != "" {
		t.Fatalf("hook issues mismatch (-want +got):\n%s", diff)
	}

	if _, err := v.Compile(context.Background(), []byte(`{}`), "missing"); !errors.Is(err, validation.ErrUnknownHook) {
		t.Fatalf("expected ErrUnknownHook, got %v", err)
	}
}

func TestHooksRegistry(t *testing.T) {
	hooks := validation.NewHooks()
	if err := hooks.Register("", validation.RequireNonEmpty); err == nil {
		t.Fatalf("expected error for empty name")
	}
	hooks.MustRegister("b", validation.RequireNonEmpty)
	hooks.MustRegister("a", validation.RequireNonEmpty)
	if err := hooks.Register("a", validation.RequireNonEmpty); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if diff := cmp.Diff([]string{"a", "b"}, hooks.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestWithDraft(t *testing.T) {
	v := validation.NewJSONSchema(validation.WithDraft("7"))
	compiled := compile(t, v, `{"type":"object","properties":{"n":{"type":"number","exclusiveMaximum":3}}}`, "")
	if result := compiled.Validate(map[string]any{"n": 3}); result.Valid {
		t.Fatalf("expected exclusiveMaximum to reject 3")
	}
}
