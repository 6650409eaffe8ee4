// Package memstore keeps everything in process memory.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

// Store is an in-memory backend.
type Store struct {
	mu         sync.RWMutex
	parameters *config.Payload
	state      host.State
	fields     map[string]any
	closed     bool
	hub        store.Hub
}

var _ store.Backend = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{fields: make(map[string]any)}
}

func (s *Store) Parameters(ctx context.Context) (*config.Payload, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.parameters == nil {
		return nil, nil
	}
	p := *s.parameters
	return &p, nil
}

func (s *Store) SaveParameters(ctx context.Context, payload config.Payload) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.parameters = &payload
	s.mu.Unlock()
	return nil
}

func (s *Store) State(ctx context.Context) (host.State, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(host.State(nil), s.state...), nil
}

func (s *Store) SaveState(ctx context.Context, state host.State) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.state = append(host.State(nil), state...)
	s.mu.Unlock()
	return nil
}

func (s *Store) FieldValue(ctx context.Context, key string) (any, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields[key], nil
}

func (s *Store) SetFieldValue(ctx context.Context, key string, value any, origin string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	normalized, err := jsonvalue.Normalize(value)
	if err != nil {
		return fmt.Errorf("memstore: set %q: %w", key, err)
	}
	s.mu.Lock()
	s.fields[key] = normalized
	s.mu.Unlock()

	s.hub.Publish(store.Change{Key: key, Value: normalized, Origin: origin})
	return nil
}

func (s *Store) Watch(key string, fn func(store.Change)) func() {
	return s.hub.Watch(key, fn)
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}
