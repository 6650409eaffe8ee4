// Package rjsf binds JSON Schema form definitions to JSON field values.
//
// The configuration screen lives in pkg/editor and the field-bound form in
// pkg/field; this package re-exports their constructors and offers a one-call
// HTML rendering of a stored form.
package rjsf

import (
	"context"
	"fmt"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/definition"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/field"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/renderers/html"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/uischema"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// Payload is the configuration payload: form name to definition.
type Payload = config.Payload

// FormDefinition is one stored form.
type FormDefinition = config.FormDefinition

// RenderOptions describes per-request values, errors and theme.
type RenderOptions = render.RenderOptions

// NewEditor returns a configuration screen bound to app.
func NewEditor(app host.App, options ...editor.Option) *editor.Editor {
	return editor.New(app, options...)
}

// NewFieldController returns a bound form for one field.
func NewFieldController(params field.Params, deps field.Deps, options ...field.Option) *field.Controller {
	return field.New(params, deps, options...)
}

// NewValidator returns the default JSON Schema validator.
func NewValidator(options ...validation.Option) *validation.JSONSchema {
	return validation.NewJSONSchema(options...)
}

// EmbeddedTemplates exposes the built-in page and widget templates so callers
// can copy or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the stylesheet the templates link to.
func AssetsFS() fs.FS {
	return html.AssetsFS()
}

// BuildForm derives the render model of a stored form.
func BuildForm(payload Payload, name string) (model.FormModel, error) {
	blob, err := definition.Lookup(payload, name)
	if err != nil {
		return model.FormModel{}, err
	}
	return buildForm(blob)
}

func buildForm(blob definition.Blob) (model.FormModel, error) {
	hints, err := uischema.Parse(blob.UISchema)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("rjsf: ui schema: %w", err)
	}
	return model.Build(blob.Schema, hints)
}

// RenderHTML renders the form name from payload prefilled with value. A nil
// value renders the form's initial data.
func RenderHTML(ctx context.Context, payload Payload, name string, value any, themeCfg *theme.RendererConfig) ([]byte, error) {
	blob, err := definition.Lookup(payload, name)
	if err != nil {
		return nil, err
	}
	form, err := buildForm(blob)
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = blob.InitialData
	}
	renderer, err := html.New()
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, form, render.RenderOptions{
		Values: render.FlattenValues(form, value),
		Theme:  themeCfg,
	})
}
