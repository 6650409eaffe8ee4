package render

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
)

// RootInputName is the input name carrying the value of a scalar form.
const RootInputName = "$root"

// InputName returns the HTML input name for field.
func InputName(field model.Field) string {
	if field.Path == "" {
		return RootInputName
	}
	return field.Path
}

// FlattenValues spreads a decoded form value over the form's field paths.
// Object fields rendered as fieldsets are descended into; every other field
// receives its value as is. Scalar forms key the root value by "".
func FlattenValues(form model.FormModel, value any) map[string]any {
	out := make(map[string]any)
	if form.Scalar {
		if value != nil {
			out[""] = value
		}
		return out
	}
	flattenFields(form.Fields, value, out)
	return out
}

func flattenFields(fields []model.Field, value any, out map[string]any) {
	object, _ := value.(map[string]any)
	if object == nil {
		return
	}
	for _, field := range fields {
		child, ok := object[field.Name]
		if !ok {
			continue
		}
		if field.Widget == model.WidgetObject {
			flattenFields(field.Nested, child, out)
			continue
		}
		out[field.Path] = child
	}
}

// CollectValues rebuilds a form value from posted inputs. Inputs are decoded
// by field type; text that does not parse is kept as a string so schema
// validation reports it. Empty inputs are omitted, except unchecked
// checkboxes which submit false.
func CollectValues(form model.FormModel, posted url.Values) any {
	if form.Scalar {
		if len(form.Fields) == 0 {
			return nil
		}
		value, ok := collectField(form.Fields[0], posted)
		if !ok {
			return nil
		}
		return value
	}
	return collectObject(form.Fields, posted)
}

func collectObject(fields []model.Field, posted url.Values) map[string]any {
	out := make(map[string]any)
	for _, field := range fields {
		if field.Widget == model.WidgetObject {
			if nested := collectObject(field.Nested, posted); len(nested) > 0 {
				out[field.Name] = nested
			}
			continue
		}
		if value, ok := collectField(field, posted); ok {
			out[field.Name] = value
		}
	}
	return out
}

func collectField(field model.Field, posted url.Values) (any, bool) {
	name := InputName(field)
	raw, present := posted[name]

	if field.Widget == model.WidgetCheckbox {
		if !present {
			return false, true
		}
		for _, v := range raw {
			if v == "true" || v == "on" || v == "1" {
				return true, true
			}
		}
		return false, true
	}
	if !present || len(raw) == 0 {
		return nil, false
	}
	text := raw[len(raw)-1]
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	if len(field.Options) > 0 {
		for _, option := range field.Options {
			if OptionValue(option.Value) == text {
				return option.Value, true
			}
		}
		return text, true
	}

	switch {
	case field.Widget == model.WidgetDateTime:
		if t, err := time.ParseInLocation("2006-01-02T15:04", text, time.UTC); err == nil {
			return t.Format(time.RFC3339), true
		}
		return text, true
	case field.Widget == model.WidgetJSON:
		decoded, err := jsonvalue.Decode([]byte(text))
		if err != nil {
			return text, true
		}
		return decoded, true
	case field.Type == model.FieldTypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return n, true
		}
		return text, true
	case field.Type == model.FieldTypeNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return n, true
		}
		return text, true
	case field.Type == model.FieldTypeBoolean:
		if b, err := strconv.ParseBool(text); err == nil {
			return b, true
		}
		return text, true
	default:
		return text, true
	}
}

// OptionValue is the string an enumerated value is posted as.
func OptionValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
