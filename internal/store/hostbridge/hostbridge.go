// Package hostbridge exposes a store.Backend through the host contract so the
// editor and the field renderer run unchanged over persisted state.
package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// ErrNoConfigureHandler is returned by Configure when no screen is mounted.
var ErrNoConfigureHandler = errors.New("hostbridge: no configure handler registered")

type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for read failures that the host contract cannot
// return to the caller.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// App is a host.App over a backend.
type App struct {
	backend store.Backend
	logger  *slog.Logger

	mu        sync.Mutex
	ready     bool
	nextID    int
	configure []configureEntry
}

type configureEntry struct {
	id      int
	handler host.ConfigureHandler
}

var _ host.App = (*App)(nil)

// NewApp wraps backend.
func NewApp(backend store.Backend, opts ...Option) *App {
	o := applyOptions(opts)
	return &App{backend: backend, logger: o.logger}
}

func (a *App) GetParameters(ctx context.Context) (*config.Payload, error) {
	return a.backend.Parameters(ctx)
}

func (a *App) SetReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	a.ready = true
	a.mu.Unlock()
	return nil
}

// Ready reports whether a screen signalled readiness.
func (a *App) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *App) OnConfigure(handler host.ConfigureHandler) func() {
	if handler == nil {
		return func() {}
	}
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.configure = append(a.configure, configureEntry{id: id, handler: handler})
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, entry := range a.configure {
				if entry.id == id {
					a.configure = append(a.configure[:i], a.configure[i+1:]...)
					return
				}
			}
		})
	}
}

func (a *App) GetCurrentState(ctx context.Context) (host.State, error) {
	return a.backend.State(ctx)
}

// Configure runs the most recently registered handler and persists what it
// returns. It is what the host's save button does.
func (a *App) Configure(ctx context.Context) (host.ConfigureResult, error) {
	a.mu.Lock()
	if len(a.configure) == 0 {
		a.mu.Unlock()
		return host.ConfigureResult{}, ErrNoConfigureHandler
	}
	handler := a.configure[len(a.configure)-1].handler
	a.mu.Unlock()

	result, err := handler(ctx)
	if err != nil {
		return host.ConfigureResult{}, err
	}
	if err := a.backend.SaveParameters(ctx, result.Parameters); err != nil {
		return host.ConfigureResult{}, fmt.Errorf("hostbridge: save parameters: %w", err)
	}
	if err := a.backend.SaveState(ctx, result.TargetState); err != nil {
		return host.ConfigureResult{}, fmt.Errorf("hostbridge: save state: %w", err)
	}
	a.logger.Info("installation persisted", "forms", result.Parameters.Len())
	return result, nil
}

// Field is a host.Field bound to one backend key. Writes are tagged with the
// field's origin and the field does not hear its own writes back.
type Field struct {
	backend store.Backend
	key     string
	origin  string
	logger  *slog.Logger

	mu      sync.Mutex
	invalid bool
}

var _ host.Field = (*Field)(nil)

// NewField binds key. origin must be unique per bound renderer.
func NewField(backend store.Backend, key, origin string, opts ...Option) *Field {
	o := applyOptions(opts)
	return &Field{backend: backend, key: key, origin: origin, logger: o.logger}
}

// Key returns the backend key.
func (f *Field) Key() string {
	return f.key
}

// GetValue reads the stored value. Read failures are logged and yield nil.
func (f *Field) GetValue() any {
	value, err := f.backend.FieldValue(context.Background(), f.key)
	if err != nil {
		f.logger.Error("hostbridge: read field value", "key", f.key, "err", err)
		return nil
	}
	return value
}

func (f *Field) SetValue(ctx context.Context, value any) error {
	return f.backend.SetFieldValue(ctx, f.key, value, f.origin)
}

func (f *Field) SetInvalid(invalid bool) error {
	f.mu.Lock()
	f.invalid = invalid
	f.mu.Unlock()
	return nil
}

// Invalid reports the last SetInvalid flag.
func (f *Field) Invalid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalid
}

func (f *Field) OnValueChanged(listener func(value any)) func() {
	if listener == nil {
		return func() {}
	}
	return f.backend.Watch(f.key, func(change store.Change) {
		if change.Origin == f.origin {
			return
		}
		listener(change.Value)
	})
}
