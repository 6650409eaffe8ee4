// Package jsonmodel renders the form model as JSON for clients that build
// their own controls.
package jsonmodel

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
)

// Name is the registry key of the renderer.
const Name = "json"

// Renderer writes {"form", "values", "errors", "hidden", "action"}.
type Renderer struct {
	indent bool
}

// Option configures Renderer.
type Option func(*Renderer)

// WithIndent pretty prints the output.
func WithIndent(enabled bool) Option {
	return func(r *Renderer) {
		r.indent = enabled
	}
}

// Ensure Renderer implements render.Renderer.
var _ render.Renderer = (*Renderer)(nil)

// New returns a JSON model renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "application/json; charset=utf-8"
}

type document struct {
	Form   model.FormModel      `json:"form"`
	Action string               `json:"action,omitempty"`
	Values map[string]any       `json:"values,omitempty"`
	Errors map[string][]string  `json:"errors,omitempty"`
	Hidden []render.HiddenField `json:"hidden,omitempty"`
}

func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc := document{
		Form:   form,
		Action: options.Action,
		Values: options.Values,
		Errors: options.Errors,
		Hidden: render.SortedHiddenFields(options.Hidden),
	}
	var (
		out []byte
		err error
	)
	if r.indent {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonmodel: encode: %w", err)
	}
	return out, nil
}
