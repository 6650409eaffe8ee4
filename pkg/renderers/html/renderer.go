// Package html renders form models and the two extension screens as HTML
// using pongo2 templates.
package html

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
	rendertemplate "github.com/jeanc18rlos/contentful-rjsf/pkg/render/template"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render/template/gotemplate"
)

// Partial keys themes can override through Manifest.Templates.
const (
	PartialInput    = "forms.input"
	PartialTextarea = "forms.textarea"
	PartialSelect   = "forms.select"
	PartialRadio    = "forms.radio"
	PartialCheckbox = "forms.checkbox"
	PartialJSON     = "forms.json"
	PartialObject   = "forms.object"
	PartialHidden   = "forms.hidden"
)

// DefaultPartials maps partial keys to the bundled templates.
func DefaultPartials() map[string]string {
	return map[string]string{
		PartialInput:    "input.tpl",
		PartialTextarea: "textarea.tpl",
		PartialSelect:   "select.tpl",
		PartialRadio:    "radio.tpl",
		PartialCheckbox: "checkbox.tpl",
		PartialJSON:     "json.tpl",
		PartialObject:   "object.tpl",
		PartialHidden:   "hidden.tpl",
	}
}

type Option func(*config)

type config struct {
	templateFS       fs.FS
	overrideDir      string
	templateRenderer rendertemplate.TemplateRenderer
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from dir before the bundled ones.
func WithTemplatesDir(dir string) Option {
	return func(cfg *config) {
		cfg.overrideDir = strings.TrimSpace(dir)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// Renderer renders forms and pages.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

// Ensure Renderer implements render.Renderer.
var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithOverrideDir(cfg.overrideDir),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render emits a <form> element for form.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	partials := DefaultPartials()
	if options.Theme != nil {
		for key, value := range options.Theme.Partials {
			if strings.TrimSpace(value) != "" {
				partials[key] = value
			}
		}
	}

	state := fieldState{
		values:   options.Values,
		errors:   options.Errors,
		partials: partials,
	}
	var fields bytes.Buffer
	if err := r.renderFields(&fields, form.Fields, state); err != nil {
		return nil, err
	}

	submit := options.SubmitLabel
	if submit == "" {
		submit = "Submit"
	}

	result, err := r.templates.RenderTemplate("form", map[string]any{
		"form": map[string]any{
			"title":       form.Title,
			"description": form.Description,
			"scalar":      form.Scalar,
		},
		"action":      options.Action,
		"submit":      submit,
		"fields_html": fields.String(),
		"form_errors": options.Errors[""],
		"hidden":      render.SortedHiddenFields(options.Hidden),
		"theme":       themeContext(options.Theme),
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render form: %w", err)
	}
	return []byte(result), nil
}

type fieldState struct {
	values   map[string]any
	errors   map[string][]string
	partials map[string]string
}

func (r *Renderer) renderFields(buf *bytes.Buffer, fields []model.Field, state fieldState) error {
	for _, field := range fields {
		view := newFieldView(field, state)
		if field.Widget == model.WidgetObject {
			var inner bytes.Buffer
			if err := r.renderFields(&inner, field.Nested, state); err != nil {
				return err
			}
			view.ChildrenHTML = inner.String()
		}

		key := partialFor(field.Widget)
		out, err := r.templates.RenderTemplate(state.partials[key], map[string]any{"field": view})
		if err != nil {
			return fmt.Errorf("html renderer: render field %q: %w", field.Path, err)
		}
		buf.WriteString(out)
	}
	return nil
}

func partialFor(widget model.Widget) string {
	switch widget {
	case model.WidgetTextarea:
		return PartialTextarea
	case model.WidgetSelect:
		return PartialSelect
	case model.WidgetRadio:
		return PartialRadio
	case model.WidgetCheckbox:
		return PartialCheckbox
	case model.WidgetJSON:
		return PartialJSON
	case model.WidgetObject:
		return PartialObject
	case model.WidgetHidden:
		return PartialHidden
	default:
		return PartialInput
	}
}

type themeView struct {
	Name         string `json:"name,omitempty"`
	Variant      string `json:"variant,omitempty"`
	CSSVarsStyle string `json:"css_vars_style,omitempty"`
	Stylesheet   string `json:"stylesheet,omitempty"`
}

func themeContext(cfg *theme.RendererConfig) themeView {
	if cfg == nil {
		return themeView{}
	}
	view := themeView{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		CSSVarsStyle: render.CSSVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		view.Stylesheet = cfg.AssetURL("stylesheet")
	}
	return view
}
