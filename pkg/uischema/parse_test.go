package uischema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/uischema"
)

func TestParseJSON(t *testing.T) {
	raw := []byte(`{
  "ui:order": ["title", "*"],
  "ui:title": "Article <b>form</b>",
  "title": {"ui:placeholder": "Headline", "ui:autofocus": true},
  "body": {"ui:widget": "textarea", "ui:options": {"rows": 8}, "ui:help": "Use <em>markdown</em><script>alert(1)</script>"},
  "author": {"name": {"ui:readonly": true}}
}`)
	hints, err := uischema.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if diff := cmp.Diff([]string{"title", "*"}, hints.Order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if hints.Title != "Article form" {
		t.Fatalf("title not stripped: %q", hints.Title)
	}
	title := hints.Child("title")
	if title.Placeholder != "Headline" || !title.AutoFocus {
		t.Fatalf("unexpected title hints %#v", title)
	}
	body := hints.Child("body")
	if body.Widget != "textarea" || body.Rows != 8 {
		t.Fatalf("unexpected body hints %#v", body)
	}
	if body.Help != "Use <em>markdown</em>" {
		t.Fatalf("help not sanitised: %q", body.Help)
	}
	if !hints.Child("author").Child("name").ReadOnly {
		t.Fatalf("expected nested readonly hint")
	}
	if hints.Child("missing") != nil {
		t.Fatalf("expected nil for unknown child")
	}
}

func TestParseYAML(t *testing.T) {
	raw := []byte("ui:order: [b, a]\nb:\n  ui:widget: hidden\n")
	hints, err := uischema.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !hints.Child("b").Hidden() {
		t.Fatalf("expected hidden widget")
	}
	if diff := cmp.Diff([]string{"b", "a"}, hints.Order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		hints, err := uischema.Parse([]byte(raw))
		if err != nil || hints != nil {
			t.Fatalf("%q: expected nil hints, got %#v %v", raw, hints, err)
		}
	}
	var nilHints *uischema.Hints
	if !nilHints.Empty() || nilHints.Hidden() {
		t.Fatalf("nil hints should be empty and visible")
	}
}

func TestParseErrors(t *testing.T) {
	for _, raw := range []string{`{"title": "plain string"}`, `{"ui:order": "title"}`, `[1,2]`} {
		if _, err := uischema.Parse([]byte(raw)); !errors.Is(err, uischema.ErrInvalid) {
			t.Fatalf("%q: expected ErrInvalid, got %v", raw, err)
		}
	}
}

func TestSanitizeMarkupLinks(t *testing.T) {
	got := uischema.SanitizeMarkup(`<a href="javascript:alert(1)">x</a> <a href="https://example.com">docs</a>`)
	if strings.Contains(got, "javascript") {
		t.Fatalf("unsafe link kept: %q", got)
	}
	if !strings.Contains(got, `href="https://example.com"`) || !strings.Contains(got, "nofollow") {
		t.Fatalf("safe link not kept: %q", got)
	}
}
