// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/uischema"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// Payload builds a configuration payload from name → raw stored JSON.
func Payload(t testing.TB, forms map[string]string) config.Payload {
	t.Helper()

	defs := make(map[string]config.FormDefinition, len(forms))
	for name, raw := range forms {
		def, err := config.NewFormDefinition([]byte(raw))
		if err != nil {
			t.Fatalf("testsupport: form %q: %v", name, err)
		}
		defs[name] = def
	}
	return config.NewPayload(defs)
}

// FormModel builds a form model from schema and optional UI schema text.
func FormModel(t testing.TB, schema, ui string) model.FormModel {
	t.Helper()

	var hints *uischema.Hints
	if ui != "" {
		parsed, err := uischema.Parse([]byte(ui))
		if err != nil {
			t.Fatalf("testsupport: parse ui schema: %v", err)
		}
		hints = parsed
	}
	form, err := model.Build([]byte(schema), hints)
	if err != nil {
		t.Fatalf("testsupport: build form model: %v", err)
	}
	return form
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t testing.TB, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
