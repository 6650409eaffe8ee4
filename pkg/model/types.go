package model

// FieldType is the simplified JSON type of a field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
	FieldTypeAny     FieldType = "any"
)

// Widget names the control a renderer should emit.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetPassword Widget = "password"
	WidgetEmail    Widget = "email"
	WidgetURL      Widget = "url"
	WidgetDate     Widget = "date"
	WidgetDateTime Widget = "datetime"
	WidgetColor    Widget = "color"
	WidgetNumber   Widget = "number"
	WidgetCheckbox Widget = "checkbox"
	WidgetSelect   Widget = "select"
	WidgetRadio    Widget = "radio"
	WidgetHidden   Widget = "hidden"
	WidgetObject   Widget = "object"
	WidgetJSON     Widget = "json"
)

// Option is one choice of an enumerated field.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Field models one control. Path is the dotted location inside the form
// value; the root of a scalar form has an empty Path.
type Field struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        FieldType `json:"type"`
	Widget      Widget    `json:"widget"`
	Format      string    `json:"format,omitempty"`
	Label       string    `json:"label,omitempty"`
	Description string    `json:"description,omitempty"`
	Help        string    `json:"help,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	ClassNames  string    `json:"classNames,omitempty"`
	Required    bool      `json:"required,omitempty"`
	ReadOnly    bool      `json:"readOnly,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
	AutoFocus   bool      `json:"autoFocus,omitempty"`
	Rows        int       `json:"rows,omitempty"`
	Default     any       `json:"default,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	MinLength   uint64    `json:"minLength,omitempty"`
	MaxLength   *uint64   `json:"maxLength,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
	Nested      []Field   `json:"nested,omitempty"`
}

// FormModel is the top-level tree handed to renderers.
type FormModel struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	// Scalar is set when the schema root is not an object; Fields then holds
	// a single root field with an empty Path.
	Scalar bool `json:"scalar,omitempty"`
}

// Walk visits every field depth first.
func (m FormModel) Walk(fn func(Field)) {
	var visit func([]Field)
	visit = func(fields []Field) {
		for _, f := range fields {
			fn(f)
			visit(f.Nested)
		}
	}
	visit(m.Fields)
}
