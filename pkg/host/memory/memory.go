// Package memory implements the host contract in process. It backs the
// package tests and gives embedders a host that needs no content platform.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// ErrNoConfigureHandler is returned by Configure when nothing is registered.
var ErrNoConfigureHandler = errors.New("memory host: no configure handler registered")

// App is an in-memory installation.
type App struct {
	mu         sync.Mutex
	parameters *config.Payload
	state      host.State
	ready      bool
	configure  []configureEntry
	nextID     int
}

type configureEntry struct {
	id      int
	handler host.ConfigureHandler
}

// Ensure App satisfies the host contract.
var _ host.App = (*App)(nil)

// NewApp returns an installation holding parameters (nil means never
// configured) and the opaque host state.
func NewApp(parameters *config.Payload, state host.State) *App {
	app := &App{state: append(host.State(nil), state...)}
	if parameters != nil {
		p := *parameters
		app.parameters = &p
	}
	return app
}

func (a *App) GetParameters(ctx context.Context) (*config.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.parameters == nil {
		return nil, nil
	}
	p := *a.parameters
	return &p, nil
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

// Ready reports whether SetReady was called.
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

// ConfigureHandlers reports how many configure handlers are registered.
func (a *App) ConfigureHandlers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.configure)
}

func (a *App) GetCurrentState(ctx context.Context) (host.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append(host.State(nil), a.state...), nil
}

// Configure plays the host's save button: it runs the most recently
// registered handler and persists the returned parameters and state.
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

	a.mu.Lock()
	p := result.Parameters
	a.parameters = &p
	a.state = append(host.State(nil), result.TargetState...)
	a.mu.Unlock()
	return result, nil
}

// Field is an in-memory content field.
type Field struct {
	mu        sync.Mutex
	value     any
	invalid   bool
	writes    int
	failNext  error
	listeners host.Listeners[any]
}

// Ensure Field satisfies the host contract.
var _ host.Field = (*Field)(nil)

// NewField returns a field holding value.
func NewField(value any) *Field {
	return &Field{value: value}
}

func (f *Field) GetValue() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Field) SetValue(ctx context.Context, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.value = value
	f.writes++
	return nil
}

func (f *Field) SetInvalid(invalid bool) error {
	f.mu.Lock()
	f.invalid = invalid
	f.mu.Unlock()
	return nil
}

func (f *Field) OnValueChanged(listener func(value any)) func() {
	return f.listeners.Add(listener)
}

// Invalid reports the last SetInvalid flag.
func (f *Field) Invalid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalid
}

// Writes counts successful SetValue calls.
func (f *Field) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Listeners reports how many change listeners are registered.
func (f *Field) Listeners() int {
	return f.listeners.Len()
}

// FailNextWrite makes the next SetValue return err without storing.
func (f *Field) FailNextWrite(err error) {
	f.mu.Lock()
	f.failNext = err
	f.mu.Unlock()
}

// ExternalSet stores value as if another collaborator changed it and
// notifies change listeners.
func (f *Field) ExternalSet(value any) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
	f.listeners.Emit(value)
}

// Level classifies a notification.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Notification is one recorded notifier message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier records messages for later display.
type Notifier struct {
	mu       sync.Mutex
	messages []Notification
}

// Ensure Notifier satisfies the host contract.
var _ host.Notifier = (*Notifier)(nil)

func (n *Notifier) Error(message string) {
	n.record(LevelError, message)
}

func (n *Notifier) Success(message string) {
	n.record(LevelSuccess, message)
}

func (n *Notifier) record(level Level, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, Notification{Level: level, Message: message})
	n.mu.Unlock()
}

// Messages returns a copy of every recorded notification.
func (n *Notifier) Messages() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.messages...)
}

// Drain returns and clears the recorded notifications.
func (n *Notifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.messages
	n.messages = nil
	return out
}
