package render

import (
	"strconv"
	"strings"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/model"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// ErrorMapping splits validation issues into field-level messages keyed by
// dotted field path and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Options returns the mapping in the RenderOptions.Errors shape.
func (m ErrorMapping) Options() map[string][]string {
	if len(m.Fields) == 0 && len(m.Form) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m.Fields)+1)
	for path, messages := range m.Fields {
		out[path] = append([]string(nil), messages...)
	}
	if len(m.Form) > 0 {
		out[""] = append([]string(nil), m.Form...)
	}
	return out
}

// MapIssues attaches each issue to the deepest field of form its instance
// location points into. Issues at the root, or pointing at a path the form
// does not render, become form-level messages so nothing is lost.
func MapIssues(form model.FormModel, issues []validation.Issue) ErrorMapping {
	var mapping ErrorMapping
	if len(issues) == 0 {
		return mapping
	}

	paths := make(map[string]struct{})
	form.Walk(func(f model.Field) {
		if f.Path != "" {
			paths[f.Path] = struct{}{}
		}
	})

	for _, issue := range issues {
		message := strings.TrimSpace(issue.Message)
		if message == "" {
			continue
		}
		path := longestMatchingPath(pointerSegments(issue.Path), paths)
		if path == "" {
			mapping.Form = appendUnique(mapping.Form, message)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		mapping.Fields[path] = appendUnique(mapping.Fields[path], message)
	}
	return mapping
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	var out []string
	for _, message := range append(append([]string(nil), existing...), extras...) {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			out = appendUnique(out, trimmed)
		}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

// pointerSegments splits a JSON pointer, unescaping ~1 and ~0.
func pointerSegments(pointer string) []string {
	clean := strings.Trim(strings.TrimPrefix(strings.TrimSpace(pointer), "#"), "/")
	if clean == "" {
		return nil
	}
	parts := strings.Split(clean, "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return parts
}

func longestMatchingPath(segments []string, paths map[string]struct{}) string {
	// Array indexes never name a rendered field.
	named := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			break
		}
		named = append(named, segment)
	}
	for end := len(named); end > 0; end-- {
		candidate := strings.Join(named[:end], ".")
		if _, ok := paths[candidate]; ok {
			return candidate
		}
	}
	return ""
}
