package html

import (
	"strconv"
	"strings"
	"time"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/render"
)

type optionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// fieldView is the template data for one control.
type fieldView struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Path         string       `json:"path"`
	Label        string       `json:"label,omitempty"`
	Description  string       `json:"description,omitempty"`
	Help         string       `json:"help,omitempty"`
	Placeholder  string       `json:"placeholder,omitempty"`
	ClassNames   string       `json:"class_names,omitempty"`
	Widget       string       `json:"widget"`
	InputType    string       `json:"input_type,omitempty"`
	Required     bool         `json:"required,omitempty"`
	ReadOnly     bool         `json:"readonly,omitempty"`
	Disabled     bool         `json:"disabled,omitempty"`
	AutoFocus    bool         `json:"autofocus,omitempty"`
	Rows         int          `json:"rows,omitempty"`
	Value        string       `json:"value"`
	Checked      bool         `json:"checked,omitempty"`
	Options      []optionView `json:"options,omitempty"`
	Errors       []string     `json:"errors,omitempty"`
	Min          string       `json:"min,omitempty"`
	Max          string       `json:"max,omitempty"`
	Step         string       `json:"step,omitempty"`
	MinLength    uint64       `json:"min_length,omitempty"`
	MaxLength    string       `json:"max_length,omitempty"`
	Pattern      string       `json:"pattern,omitempty"`
	ChildrenHTML string       `json:"children_html,omitempty"`
}

var inputTypes = map[model.Widget]string{
	model.WidgetText:     "text",
	model.WidgetPassword: "password",
	model.WidgetEmail:    "email",
	model.WidgetURL:      "url",
	model.WidgetDate:     "date",
	model.WidgetDateTime: "datetime-local",
	model.WidgetColor:    "color",
	model.WidgetNumber:   "number",
}

func newFieldView(field model.Field, state fieldState) fieldView {
	view := fieldView{
		ID:          fieldID(field.Path),
		Name:        render.InputName(field),
		Path:        field.Path,
		Label:       field.Label,
		Description: field.Description,
		Help:        field.Help,
		Placeholder: field.Placeholder,
		ClassNames:  field.ClassNames,
		Widget:      string(field.Widget),
		InputType:   inputTypes[field.Widget],
		Required:    field.Required,
		ReadOnly:    field.ReadOnly,
		Disabled:    field.Disabled,
		AutoFocus:   field.AutoFocus,
		Rows:        field.Rows,
		MinLength:   field.MinLength,
		Pattern:     field.Pattern,
	}
	if field.Path != "" {
		view.Errors = state.errors[field.Path]
	}
	if field.Min != nil {
		view.Min = formatNumber(*field.Min)
	}
	if field.Max != nil {
		view.Max = formatNumber(*field.Max)
	}
	if field.MaxLength != nil {
		view.MaxLength = strconv.FormatUint(*field.MaxLength, 10)
	}
	if field.Widget == model.WidgetNumber {
		view.Step = "any"
		if field.Type == model.FieldTypeInteger {
			view.Step = "1"
		}
	}
	if view.Rows == 0 && (field.Widget == model.WidgetJSON || field.Widget == model.WidgetTextarea) {
		view.Rows = 6
	}

	value, ok := state.values[field.Path]
	if !ok {
		value = field.Default
	}
	switch field.Widget {
	case model.WidgetCheckbox:
		view.Checked, _ = value.(bool)
	case model.WidgetJSON:
		if value != nil {
			view.Value = jsonvalue.Pretty(value)
		}
	case model.WidgetDateTime:
		view.Value = toDateTimeLocal(value)
	default:
		if value != nil {
			view.Value = render.OptionValue(value)
		}
	}

	if len(field.Options) > 0 {
		view.Options = make([]optionView, 0, len(field.Options))
		for _, option := range field.Options {
			posted := render.OptionValue(option.Value)
			view.Options = append(view.Options, optionView{
				Value:    posted,
				Label:    option.Label,
				Selected: value != nil && jsonvalue.Equal(option.Value, value),
			})
		}
	}
	return view
}

func fieldID(path string) string {
	if path == "" {
		return "rjsf_root"
	}
	return "rjsf_" + strings.NewReplacer(".", "_", "/", "_", " ", "_").Replace(path)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// toDateTimeLocal converts an RFC 3339 timestamp to the datetime-local
// input format. Other values pass through unchanged.
func toDateTimeLocal(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC().Format("2006-01-02T15:04")
	}
	return text
}
