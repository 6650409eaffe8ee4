// Package store persists installation parameters, host state and field
// values for the HTTP host and the CLI. Backends fan field changes out to
// in-process watchers; every change carries the origin of its writer so a
// writer can ignore its own echo.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("store: closed")

// OriginExternal tags changes that did not come from a bound field, such as
// raw API writes or edits to the backing file by another process.
const OriginExternal = "external"

// Change describes a new field value.
type Change struct {
	Key    string
	Value  any
	Origin string
}

// Backend is the persistence contract shared by every driver.
type Backend interface {
	// Parameters returns the saved payload, or nil when nothing was saved.
	Parameters(ctx context.Context) (*config.Payload, error)
	SaveParameters(ctx context.Context, payload config.Payload) error
	State(ctx context.Context) (host.State, error)
	SaveState(ctx context.Context, state host.State) error
	// FieldValue returns the stored value for key, nil when unset.
	FieldValue(ctx context.Context, key string) (any, error)
	SetFieldValue(ctx context.Context, key string, value any, origin string) error
	// Watch registers fn for changes to key. The returned func removes it.
	Watch(key string, fn func(Change)) (unsubscribe func())
	Close() error
}

// FieldKey identifies one field of one entry.
func FieldKey(entry, field string) string {
	return strings.TrimSpace(entry) + "/" + strings.TrimSpace(field)
}

// Hub fans changes out to per-key watchers. The zero value is ready to use.
type Hub struct {
	mu   sync.Mutex
	keys map[string]*host.Listeners[Change]
}

// Watch registers fn for key.
func (h *Hub) Watch(key string, fn func(Change)) func() {
	h.mu.Lock()
	if h.keys == nil {
		h.keys = make(map[string]*host.Listeners[Change])
	}
	listeners, ok := h.keys[key]
	if !ok {
		listeners = &host.Listeners[Change]{}
		h.keys[key] = listeners
	}
	h.mu.Unlock()
	return listeners.Add(fn)
}

// Publish delivers change to the watchers of change.Key on the caller's
// goroutine.
func (h *Hub) Publish(change Change) {
	h.mu.Lock()
	listeners := h.keys[change.Key]
	h.mu.Unlock()
	if listeners != nil {
		listeners.Emit(change)
	}
}

// Watchers reports how many watchers are registered for key.
func (h *Hub) Watchers(key string) int {
	h.mu.Lock()
	listeners := h.keys[key]
	h.mu.Unlock()
	if listeners == nil {
		return 0
	}
	return listeners.Len()
}
