package uischema

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks UI schema documents that cannot be interpreted.
var ErrInvalid = errors.New("uischema: invalid document")

// Parse decodes a UI schema document. JSON is tried first, then YAML. An
// empty or null document yields nil hints.
func Parse(raw []byte) (*Hints, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		if yerr := yaml.Unmarshal(trimmed, &doc); yerr != nil || doc == nil {
			return nil, fmt.Errorf("%w: expected a JSON or YAML object", ErrInvalid)
		}
	}
	return fromMap(doc, "")
}

func fromMap(doc map[string]any, path string) (*Hints, error) {
	hints := &Hints{}
	for key, value := range doc {
		if !strings.HasPrefix(key, "ui:") {
			child, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be an object", ErrInvalid, joinPath(path, key))
			}
			parsed, err := fromMap(child, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			if hints.Children == nil {
				hints.Children = make(map[string]*Hints)
			}
			hints.Children[key] = parsed
			continue
		}
		if err := applyDirective(hints, strings.TrimPrefix(key, "ui:"), value, joinPath(path, key)); err != nil {
			return nil, err
		}
	}
	return hints, nil
}

func applyDirective(h *Hints, name string, value any, path string) error {
	switch name {
	case "widget":
		h.Widget = strings.TrimSpace(asString(value))
	case "field":
		if h.Widget == "" {
			h.Widget = strings.TrimSpace(asString(value))
		}
	case "title":
		h.Title = SanitizeText(asString(value))
	case "description":
		h.Description = SanitizeMarkup(asString(value))
	case "help":
		h.Help = SanitizeMarkup(asString(value))
	case "placeholder":
		h.Placeholder = SanitizeText(asString(value))
	case "classNames":
		h.ClassNames = SanitizeText(asString(value))
	case "disabled":
		h.Disabled = asBool(value)
	case "readonly":
		h.ReadOnly = asBool(value)
	case "autofocus":
		h.AutoFocus = asBool(value)
	case "order":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s must be an array", ErrInvalid, path)
		}
		for _, item := range items {
			if s := strings.TrimSpace(asString(item)); s != "" {
				h.Order = append(h.Order, s)
			}
		}
	case "options":
		opts, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s must be an object", ErrInvalid, path)
		}
		h.Options = opts
		if rows, ok := opts["rows"].(float64); ok && rows > 0 {
			h.Rows = int(rows)
		}
		if rows, ok := opts["rows"].(int); ok && rows > 0 {
			h.Rows = rows
		}
	default:
		if h.Options == nil {
			h.Options = make(map[string]any)
		}
		h.Options[name] = value
	}
	return nil
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
