package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// base is the part every session shares. mu serialises all work on the
// session, including change notifications arriving from the store.
type base struct {
	id       string
	mu       sync.Mutex
	closed   bool
	lastUsed time.Time
}

func (b *base) handle() *base { return b }

type session interface {
	handle() *base
	// shutdown releases the session's resources. It runs once, with the
	// session mutex held.
	shutdown()
}

func newSessionID() string {
	return uuid.NewString()
}

// registry holds live sessions of one kind.
type registry[S session] struct {
	mu    sync.Mutex
	items map[string]S
	now   func() time.Time
}

func newRegistry[S session](now func() time.Time) *registry[S] {
	return &registry[S]{items: make(map[string]S), now: now}
}

func (r *registry[S]) put(s S) {
	b := s.handle()
	r.mu.Lock()
	b.lastUsed = r.now()
	r.items[b.id] = s
	r.mu.Unlock()
}

// get returns the session and marks it used.
func (r *registry[S]) get(id string) (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if ok {
		s.handle().lastUsed = r.now()
	}
	return s, ok
}

func (r *registry[S]) remove(id string) (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return s, ok
}

// expire removes and returns sessions idle for longer than ttl.
func (r *registry[S]) expire(ttl time.Duration) []S {
	if ttl <= 0 {
		return nil
	}
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []S
	for id, s := range r.items {
		if s.handle().lastUsed.Before(cutoff) {
			out = append(out, s)
			delete(r.items, id)
		}
	}
	return out
}

// all returns a snapshot of the live sessions.
func (r *registry[S]) all() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	return out
}

func (r *registry[S]) drain() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, 0, len(r.items))
	for id, s := range r.items {
		out = append(out, s)
		delete(r.items, id)
	}
	return out
}

func (r *registry[S]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// closeSession shuts s down once.
func closeSession[S session](s S) {
	b := s.handle()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	s.shutdown()
}
