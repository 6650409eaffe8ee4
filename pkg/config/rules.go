package config

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

// Field keys used by ValidationError.
const (
	FieldFormName   = "formName"
	FieldFormSchema = "formSchema"
)

// MaxFormNameLength bounds form names.
const MaxFormNameLength = 30

// Validation messages surfaced next to the offending input.
const (
	MsgNameRequired   = "Form Name is required"
	MsgNameTooLong    = "Form Name must be less than 30 characters"
	MsgNameWhitespace = "Form Name cannot contain spaces"
	MsgNameExists     = "Form Name already exists"
	MsgSchemaRequired = "Form Schema is required"
	MsgSchemaInvalid  = "Form Schema must be valid JSON"
)

// ValidationError carries the first failing message per input. Messages for
// different inputs are independent: a bad name never hides a bad schema.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "config: invalid form"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "config: invalid form: " + strings.Join(parts, "; ")
}

// Message returns the message for field, or "".
func (e *ValidationError) Message(field string) string {
	if e == nil {
		return ""
	}
	return e.Fields[field]
}

// ValidateFormName checks name against the creation rules in order:
// required, length, whitespace, uniqueness within existing.
func ValidateFormName(name string, existing Payload) string {
	if strings.TrimSpace(name) == "" {
		return MsgNameRequired
	}
	if utf8.RuneCountInString(name) > MaxFormNameLength {
		return MsgNameTooLong
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return MsgNameWhitespace
	}
	if existing.Has(name) {
		return MsgNameExists
	}
	return ""
}

// ValidateSchemaText checks that raw is present and parses as JSON.
func ValidateSchemaText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return MsgSchemaRequired
	}
	if !json.Valid([]byte(trimmed)) {
		return MsgSchemaInvalid
	}
	return ""
}

// ValidateNewForm runs both rule sets and returns nil when the pair may be
// inserted into existing.
func ValidateNewForm(name, rawSchema string, existing Payload) *ValidationError {
	fields := make(map[string]string, 2)
	if msg := ValidateFormName(name, existing); msg != "" {
		fields[FieldFormName] = msg
	}
	if msg := ValidateSchemaText(rawSchema); msg != "" {
		fields[FieldFormSchema] = msg
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// CreateForm validates the pair and returns existing plus the new entry.
// On failure existing is returned untouched together with the error.
func CreateForm(existing Payload, name, rawSchema string) (Payload, error) {
	if verr := ValidateNewForm(name, rawSchema, existing); verr != nil {
		return existing, verr
	}
	def, err := NewFormDefinition([]byte(rawSchema))
	if err != nil {
		return existing, &ValidationError{Fields: map[string]string{FieldFormSchema: MsgSchemaInvalid}}
	}
	return existing.With(name, def), nil
}
