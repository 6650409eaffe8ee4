package validation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

// ErrCompile marks schemas that cannot be compiled.
var ErrCompile = errors.New("validation: compile schema")

// Validator compiles a form schema together with an optional hook name.
type Validator interface {
	Compile(ctx context.Context, schema []byte, hook string) (Compiled, error)
}

// Compiled validates decoded JSON values.
type Compiled interface {
	Validate(value any) Result
}

// Option configures JSONSchema.
type Option func(*JSONSchema)

// WithDraft selects the default draft for schemas without "$schema". Known
// names: "4", "6", "7", "2019-09", "2020-12".
func WithDraft(name string) Option {
	return func(v *JSONSchema) {
		if draft, ok := draftByName(name); ok {
			v.draft = draft
		}
	}
}

// WithHooks sets the registry used to resolve "validate" references.
func WithHooks(hooks *Hooks) Option {
	return func(v *JSONSchema) {
		v.hooks = hooks
	}
}

// WithFormatAssertions turns "format" into an assertion instead of an
// annotation.
func WithFormatAssertions(enabled bool) Option {
	return func(v *JSONSchema) {
		v.assertFormat = enabled
	}
}

// JSONSchema is the default Validator.
type JSONSchema struct {
	draft        *jsonschema.Draft
	hooks        *Hooks
	assertFormat bool
	seq          atomic.Uint64
}

// Ensure JSONSchema implements Validator.
var _ Validator = (*JSONSchema)(nil)

// NewJSONSchema returns a validator defaulting to Draft 2020-12.
func NewJSONSchema(options ...Option) *JSONSchema {
	v := &JSONSchema{draft: jsonschema.Draft2020}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Compile compiles schema; hook, when non-empty, must be registered.
func (v *JSONSchema) Compile(ctx context.Context, schema []byte, hook string) (Compiled, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(schema)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: schema is empty", ErrCompile)
	}

	var fn Hook
	if name := strings.TrimSpace(hook); name != "" {
		found, err := v.hooks.Lookup(name)
		if err != nil {
			return nil, err
		}
		fn = found
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = v.draft
	compiler.AssertFormat = v.assertFormat

	url := fmt.Sprintf("mem://forms/%d.json", v.seq.Add(1))
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompile, err)
	}
	return &compiledSchema{schema: compiled, hook: fn}, nil
}

type compiledSchema struct {
	schema *jsonschema.Schema
	hook   Hook
}

func (c *compiledSchema) Validate(value any) Result {
	normalized, err := jsonvalue.Normalize(value)
	if err != nil {
		return Result{Issues: []Issue{{Message: err.Error()}}}
	}

	result := Result{Valid: true}
	if err := c.schema.Validate(normalized); err != nil {
		result = Result{Issues: issuesFromError(err)}
	}
	if c.hook != nil {
		if extra := c.hook(normalized); len(extra) > 0 {
			for i := range extra {
				if extra[i].Field == "" && extra[i].Path != "" {
					extra[i].Field = fieldFromInstancePointer(extra[i].Path)
				}
			}
			result = result.Merge(Result{Issues: extra})
		}
	}
	return result
}

func issuesFromError(err error) []Issue {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Issue{{Message: strings.TrimSpace(err.Error())}}
	}
	var issues []Issue
	collectLeaves(verr, &issues)
	if len(issues) == 0 {
		issues = []Issue{{
			Path:    verr.InstanceLocation,
			Field:   fieldFromInstancePointer(verr.InstanceLocation),
			Message: verr.Message,
		}}
	}
	sortIssues(issues)
	return issues
}

func collectLeaves(verr *jsonschema.ValidationError, out *[]Issue) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		*out = append(*out, Issue{
			Path:    verr.InstanceLocation,
			Field:   fieldFromInstancePointer(verr.InstanceLocation),
			Message: strings.TrimSpace(verr.Message),
		})
		return
	}
	for _, cause := range verr.Causes {
		collectLeaves(cause, out)
	}
}

func draftByName(name string) (*jsonschema.Draft, bool) {
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "4", "draft4", "draft-04":
		return jsonschema.Draft4, true
	case "6", "draft6", "draft-06":
		return jsonschema.Draft6, true
	case "7", "draft7", "draft-07":
		return jsonschema.Draft7, true
	case "2019-09", "draft2019":
		return jsonschema.Draft2019, true
	case "2020-12", "draft2020", "":
		return jsonschema.Draft2020, true
	default:
		return nil, false
	}
}
