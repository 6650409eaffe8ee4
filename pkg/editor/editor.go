// Package editor implements the configuration screen: it loads the persisted
// payload from the host, lets the operator create and delete named form
// definitions, and hands the current payload back when the host saves.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// ErrNotLoaded is returned when an operation requires Load to have run.
var ErrNotLoaded = errors.New("editor: payload not loaded")

// Observer receives editor events; metrics collectors implement it.
type Observer interface {
	FormCreated(name string)
	FormDeleted(name string)
	CreateRejected(err *config.ValidationError)
	Saved(forms int)
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(obs Observer) Option {
	return func(e *Editor) {
		e.observer = obs
	}
}

// Editor owns the in-memory payload for one configuration screen mount.
type Editor struct {
	app      host.App
	logger   *slog.Logger
	observer Observer

	payload     config.Payload
	loaded      bool
	unsubscribe func()
	closeOnce   sync.Once
}

// New returns an Editor bound to app. Call Load before mutating.
func New(app host.App, options ...Option) *Editor {
	e := &Editor{
		app:    app,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Load fetches the persisted payload, registers the save handler and tells
// the host the screen is ready. A host without parameters yields an empty
// payload.
func (e *Editor) Load(ctx context.Context) (config.Payload, error) {
	if e.app == nil {
		return config.Payload{}, errors.New("editor: host app is required")
	}
	current, err := e.app.GetParameters(ctx)
	if err != nil {
		return config.Payload{}, fmt.Errorf("editor: get parameters: %w", err)
	}
	if current != nil {
		e.payload = *current
	} else {
		e.payload = config.Payload{}
	}
	e.loaded = true

	if e.unsubscribe == nil {
		e.unsubscribe = e.app.OnConfigure(e.OnSave)
	}

	if err := e.app.SetReady(ctx); err != nil {
		return e.payload, fmt.Errorf("editor: set ready: %w", err)
	}
	e.logger.Debug("editor loaded", "forms", e.payload.Len())
	return e.payload, nil
}

// Payload returns the current payload.
func (e *Editor) Payload() config.Payload {
	return e.payload
}

// CreateForm validates name and rawSchemaText and inserts the parsed schema.
// Validation failures come back as *config.ValidationError and leave the
// payload untouched.
func (e *Editor) CreateForm(name, rawSchemaText string) error {
	if !e.loaded {
		return ErrNotLoaded
	}
	next, err := config.CreateForm(e.payload, name, rawSchemaText)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) && e.observer != nil {
			e.observer.CreateRejected(verr)
		}
		e.logger.Debug("form rejected", "form", name, "err", err)
		return err
	}
	e.payload = next
	if e.observer != nil {
		e.observer.FormCreated(name)
	}
	e.logger.Info("form created", "form", name, "forms", e.payload.Len())
	return nil
}

// DeleteForm removes name. Deleting an absent name does nothing.
func (e *Editor) DeleteForm(name string) {
	if !e.payload.Has(name) {
		return
	}
	e.payload = e.payload.Without(name)
	if e.observer != nil {
		e.observer.FormDeleted(name)
	}
	e.logger.Info("form deleted", "form", name, "forms", e.payload.Len())
}

// OnSave is the configure handler: it returns the payload verbatim and the
// host's current state unchanged.
func (e *Editor) OnSave(ctx context.Context) (host.ConfigureResult, error) {
	if !e.loaded {
		return host.ConfigureResult{}, ErrNotLoaded
	}
	state, err := e.app.GetCurrentState(ctx)
	if err != nil {
		return host.ConfigureResult{}, fmt.Errorf("editor: get current state: %w", err)
	}
	if e.observer != nil {
		e.observer.Saved(e.payload.Len())
	}
	e.logger.Info("configuration saved", "forms", e.payload.Len())
	return host.ConfigureResult{
		Parameters:  e.payload,
		TargetState: state,
	}, nil
}

// Close removes the save handler. Further calls do nothing.
func (e *Editor) Close() {
	e.closeOnce.Do(func() {
		if e.unsubscribe != nil {
			e.unsubscribe()
		}
	})
}
