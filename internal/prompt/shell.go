package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/definition"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/editor"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/validation"
)

// Configurer persists the editor's payload, as the host's save button does.
type Configurer interface {
	Configure(ctx context.Context) (host.ConfigureResult, error)
}

// Menu entries, in display order.
const (
	ActionList     = "List forms"
	ActionCreate   = "Add a form"
	ActionDelete   = "Delete a form"
	ActionShow     = "Show a form"
	ActionCheck    = "Check a value against a form"
	ActionSave     = "Save"
	ActionQuit     = "Quit"
	noFormsMessage = "No forms yet."
)

var actions = []string{ActionList, ActionCreate, ActionDelete, ActionShow, ActionCheck, ActionSave, ActionQuit}

// Shell walks an operator through the configuration screen.
type Shell struct {
	driver    Driver
	editor    *editor.Editor
	saver     Configurer
	validator validation.Validator
	logger    *slog.Logger
	dirty     bool
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ShellOption {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValidator sets the validator used by the value check.
func WithValidator(v validation.Validator) ShellOption {
	return func(s *Shell) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewShell returns a shell over a loaded editor. saver persists the payload.
func NewShell(driver Driver, ed *editor.Editor, saver Configurer, options ...ShellOption) *Shell {
	s := &Shell{
		driver: driver,
		editor: ed,
		saver:  saver,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.validator == nil {
		s.validator = validation.NewJSONSchema()
	}
	return s
}

// Run shows the menu until the operator quits. Unsaved changes are confirmed
// before quitting.
func (s *Shell) Run(ctx context.Context) error {
	for {
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message: "What would you like to do?",
			Options: actions,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			return fmt.Errorf("prompt: unknown action %d", idx)
		}

		action := actions[idx]
		if action == ActionQuit {
			leave, err := s.confirmQuit(ctx)
			if err != nil {
				return err
			}
			if leave {
				return nil
			}
			continue
		}
		if err := s.Do(ctx, action); err != nil {
			return err
		}
	}
}

// Do runs a single menu action.
func (s *Shell) Do(ctx context.Context, action string) error {
	switch action {
	case ActionList:
		return s.list(ctx)
	case ActionCreate:
		return s.create(ctx)
	case ActionDelete:
		return s.remove(ctx)
	case ActionShow:
		return s.show(ctx)
	case ActionCheck:
		return s.check(ctx)
	case ActionSave:
		return s.save(ctx)
	default:
		return fmt.Errorf("prompt: unknown action %q", action)
	}
}

// Dirty reports whether the payload changed since the last save.
func (s *Shell) Dirty() bool {
	return s.dirty
}

func (s *Shell) list(ctx context.Context) error {
	names := s.editor.Payload().Names()
	if len(names) == 0 {
		return s.driver.Info(ctx, noFormsMessage)
	}
	return s.driver.Info(ctx, strings.Join(names, "\n"))
}

func (s *Shell) create(ctx context.Context) error {
	name, err := s.driver.Input(ctx, InputConfig{
		Message: "Form Name",
		Validator: func(value string) error {
			if msg := config.ValidateFormName(value, s.editor.Payload()); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	schema, err := s.driver.TextArea(ctx, TextAreaConfig{
		Message: "Form Schema",
		Help:    "A JSON Schema document.",
		Validator: func(value string) error {
			if msg := config.ValidateSchemaText(value); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	if err := s.editor.CreateForm(name, schema); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return s.driver.Info(ctx, rejection(verr))
		}
		return err
	}
	s.dirty = true
	return s.driver.Info(ctx, fmt.Sprintf("Added %q. Remember to save.", name))
}

func (s *Shell) remove(ctx context.Context) error {
	name, ok, err := s.pick(ctx, "Form to delete")
	if err != nil || !ok {
		return err
	}
	sure, err := s.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Delete %q?", name)})
	if err != nil || !sure {
		return err
	}
	s.editor.DeleteForm(name)
	s.dirty = true
	return s.driver.Info(ctx, fmt.Sprintf("Deleted %q. Remember to save.", name))
}

func (s *Shell) show(ctx context.Context) error {
	name, ok, err := s.pick(ctx, "Form to show")
	if err != nil || !ok {
		return err
	}
	def, _ := s.editor.Payload().Get(name)
	schema, err := jsonvalue.Decode(def.Schema)
	if err != nil {
		return s.driver.Info(ctx, string(def.Schema))
	}
	return s.driver.Info(ctx, jsonvalue.Pretty(schema))
}

func (s *Shell) check(ctx context.Context) error {
	name, ok, err := s.pick(ctx, "Form to check against")
	if err != nil || !ok {
		return err
	}
	raw, err := s.driver.TextArea(ctx, TextAreaConfig{Message: "Value (JSON)"})
	if err != nil {
		return err
	}
	result, err := Check(ctx, s.validator, s.editor.Payload(), name, []byte(raw))
	if err != nil {
		return s.driver.Info(ctx, err.Error())
	}
	return s.driver.Info(ctx, DescribeResult(result))
}

func (s *Shell) save(ctx context.Context) error {
	result, err := s.saver.Configure(ctx)
	if err != nil {
		s.logger.Error("save failed", "err", err)
		return s.driver.Info(ctx, fmt.Sprintf("Unable to save configuration: %v", err))
	}
	s.dirty = false
	return s.driver.Info(ctx, fmt.Sprintf("Configuration saved (%d forms).", result.Parameters.Len()))
}

func (s *Shell) confirmQuit(ctx context.Context) (bool, error) {
	if !s.dirty {
		return true, nil
	}
	return s.driver.Confirm(ctx, ConfirmConfig{
		Message: "Discard unsaved changes?",
		Default: false,
	})
}

func rejection(verr *config.ValidationError) string {
	var lines []string
	for _, field := range []string{config.FieldFormName, config.FieldFormSchema} {
		if msg := verr.Message(field); msg != "" {
			lines = append(lines, msg)
		}
	}
	return strings.Join(lines, "\n")
}

// pick asks for one of the saved forms. ok is false when there are none.
func (s *Shell) pick(ctx context.Context, message string) (string, bool, error) {
	names := s.editor.Payload().Names()
	if len(names) == 0 {
		return "", false, s.driver.Info(ctx, noFormsMessage)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: names})
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(names) {
		return "", false, fmt.Errorf("prompt: unknown form %d", idx)
	}
	return names[idx], true, nil
}

// Check validates the JSON value raw against the form name in payload.
func Check(ctx context.Context, v validation.Validator, payload config.Payload, name string, raw []byte) (validation.Result, error) {
	blob, err := definition.Lookup(payload, name)
	if err != nil {
		return validation.Result{}, err
	}
	compiled, err := v.Compile(ctx, blob.Schema, blob.Validate)
	if err != nil {
		return validation.Result{}, err
	}
	value, err := jsonvalue.Decode(raw)
	if err != nil {
		return validation.Result{}, fmt.Errorf("prompt: value is not valid JSON: %w", err)
	}
	return compiled.Validate(value), nil
}

// DescribeResult formats a validation result for the terminal.
func DescribeResult(result validation.Result) string {
	if result.Valid {
		return "Value is valid."
	}
	var b strings.Builder
	b.WriteString("Value is invalid:")
	for _, issue := range result.Issues {
		b.WriteString("\n  - ")
		if issue.Field != "" {
			b.WriteString(issue.Field)
			b.WriteString(": ")
		}
		b.WriteString(issue.Message)
	}
	return b.String()
}
