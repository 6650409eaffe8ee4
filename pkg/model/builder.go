package model

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	json "github.com/goccy/go-json"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/uischema"
)

// ErrInvalidSchema is returned for schema text that is not JSON.
var ErrInvalidSchema = errors.New("model: invalid schema")

// Build converts schema and hints into a FormModel. Schemas kin-openapi
// cannot represent (for example numeric exclusive bounds or unresolved $ref)
// degrade to a single JSON editor for the whole value instead of failing.
func Build(schema []byte, hints *uischema.Hints) (FormModel, error) {
	raw := bytes.TrimSpace(schema)
	if len(raw) == 0 || !json.Valid(raw) {
		return FormModel{}, ErrInvalidSchema
	}

	var root openapi3.Schema
	if err := root.UnmarshalJSON(raw); err != nil {
		return fallbackModel(hints), nil
	}

	form := FormModel{
		Title:       firstNonEmpty(hintTitle(hints), uischema.SanitizeText(root.Title)),
		Description: firstNonEmpty(hintDescription(hints), uischema.SanitizeMarkup(root.Description)),
	}

	order := parseKeyOrder(raw)
	if schemaType(&root) == FieldTypeObject && len(root.Properties) > 0 {
		form.Fields = buildProperties(&root, "", hints, order)
		return form, nil
	}

	field := buildField(&root, "", "", false, hints, order)
	field.Label = ""
	form.Scalar = true
	form.Fields = []Field{field}
	return form, nil
}

func fallbackModel(hints *uischema.Hints) FormModel {
	return FormModel{
		Title:  hintTitle(hints),
		Scalar: true,
		Fields: []Field{{
			Type:   FieldTypeAny,
			Widget: WidgetJSON,
			Help:   "Edit the value as JSON.",
		}},
	}
}

func buildProperties(schema *openapi3.Schema, prefix string, hints *uischema.Hints, order *keyOrder) []Field {
	names := make(map[string]struct{}, len(schema.Properties))
	for name := range schema.Properties {
		names[name] = struct{}{}
	}
	var uiOrder []string
	if hints != nil {
		uiOrder = hints.Order
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	fields := make([]Field, 0, len(names))
	for _, name := range orderedNames(names, order, uiOrder) {
		ref := schema.Properties[name]
		_, req := required[name]
		child := hints.Child(name)
		if ref == nil || ref.Value == nil {
			fields = append(fields, Field{
				Name:     name,
				Path:     joinPath(prefix, name),
				Type:     FieldTypeAny,
				Widget:   WidgetJSON,
				Label:    firstNonEmpty(hintTitle(child), humanize(name)),
				Required: req,
			})
			continue
		}
		fields = append(fields, buildField(ref.Value, name, joinPath(prefix, name), req, child, order.child(name)))
	}
	return fields
}

func buildField(schema *openapi3.Schema, name, path string, required bool, hints *uischema.Hints, order *keyOrder) Field {
	field := Field{
		Name:        name,
		Path:        path,
		Type:        schemaType(schema),
		Format:      schema.Format,
		Label:       firstNonEmpty(hintTitle(hints), uischema.SanitizeText(schema.Title), humanize(name)),
		Description: firstNonEmpty(hintDescription(hints), uischema.SanitizeMarkup(schema.Description)),
		Required:    required,
		ReadOnly:    schema.ReadOnly,
		Default:     schema.Default,
		Min:         schema.Min,
		Max:         schema.Max,
		MinLength:   schema.MinLength,
		MaxLength:   schema.MaxLength,
		Pattern:     schema.Pattern,
	}
	if hints != nil {
		field.Help = hints.Help
		field.Placeholder = hints.Placeholder
		field.ClassNames = hints.ClassNames
		field.Disabled = hints.Disabled
		field.ReadOnly = field.ReadOnly || hints.ReadOnly
		field.AutoFocus = hints.AutoFocus
		field.Rows = hints.Rows
	}
	if len(schema.Enum) > 0 {
		field.Options = enumOptions(schema.Enum, hints)
	}

	field.Widget = resolveWidget(field, schema, hints)
	if field.Widget == WidgetObject {
		field.Nested = buildProperties(schema, path, hints, order)
	}
	return field
}

func schemaType(schema *openapi3.Schema) FieldType {
	if schema == nil {
		return FieldTypeAny
	}
	var types []string
	if schema.Type != nil {
		types = schema.Type.Slice()
	}
	for _, t := range types {
		switch t {
		case "null":
			continue
		case "string":
			return FieldTypeString
		case "integer":
			return FieldTypeInteger
		case "number":
			return FieldTypeNumber
		case "boolean":
			return FieldTypeBoolean
		case "array":
			return FieldTypeArray
		case "object":
			return FieldTypeObject
		}
	}
	if len(schema.Properties) > 0 {
		return FieldTypeObject
	}
	return FieldTypeAny
}

var hintWidgets = map[string]Widget{
	"text":     WidgetText,
	"textarea": WidgetTextarea,
	"password": WidgetPassword,
	"email":    WidgetEmail,
	"uri":      WidgetURL,
	"url":      WidgetURL,
	"date":     WidgetDate,
	"datetime": WidgetDateTime,
	"color":    WidgetColor,
	"updown":   WidgetNumber,
	"range":    WidgetNumber,
	"checkbox": WidgetCheckbox,
	"select":   WidgetSelect,
	"radio":    WidgetRadio,
	"hidden":   WidgetHidden,
	"json":     WidgetJSON,
}

var formatWidgets = map[string]Widget{
	"email":     WidgetEmail,
	"uri":       WidgetURL,
	"url":       WidgetURL,
	"date":      WidgetDate,
	"date-time": WidgetDateTime,
	"color":     WidgetColor,
	"password":  WidgetPassword,
}

func resolveWidget(field Field, schema *openapi3.Schema, hints *uischema.Hints) Widget {
	if hints != nil && hints.Widget != "" {
		if widget, ok := hintWidgets[strings.ToLower(hints.Widget)]; ok && widgetFits(widget, field) {
			return widget
		}
	}
	if len(field.Options) > 0 {
		return WidgetSelect
	}
	switch field.Type {
	case FieldTypeString:
		if widget, ok := formatWidgets[strings.ToLower(schema.Format)]; ok {
			return widget
		}
		return WidgetText
	case FieldTypeInteger, FieldTypeNumber:
		return WidgetNumber
	case FieldTypeBoolean:
		return WidgetCheckbox
	case FieldTypeObject:
		if len(schema.Properties) > 0 {
			return WidgetObject
		}
		return WidgetJSON
	default:
		return WidgetJSON
	}
}

// widgetFits rejects hint widgets that cannot carry the field's value.
func widgetFits(widget Widget, field Field) bool {
	switch widget {
	case WidgetHidden, WidgetJSON:
		return true
	case WidgetSelect, WidgetRadio:
		return len(field.Options) > 0 || field.Type == FieldTypeBoolean
	case WidgetCheckbox:
		return field.Type == FieldTypeBoolean
	case WidgetNumber:
		return field.Type == FieldTypeInteger || field.Type == FieldTypeNumber
	default:
		return field.Type == FieldTypeString
	}
}

func enumOptions(values []any, hints *uischema.Hints) []Option {
	var labels []any
	if hints != nil {
		labels, _ = hints.Options["enumNames"].([]any)
	}
	options := make([]Option, 0, len(values))
	for i, value := range values {
		label := fmt.Sprint(value)
		if value == nil {
			label = "null"
		}
		if i < len(labels) {
			if s, ok := labels[i].(string); ok && strings.TrimSpace(s) != "" {
				label = uischema.SanitizeText(s)
			}
		}
		options = append(options, Option{Value: value, Label: label})
	}
	return options
}

func hintTitle(h *uischema.Hints) string {
	if h == nil {
		return ""
	}
	return h.Title
}

func hintDescription(h *uischema.Hints) string {
	if h == nil {
		return ""
	}
	return h.Description
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// humanize turns "publishedAt" or "published_at" into "Published at".
func humanize(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	prevLower := false
	for i, r := range name {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
