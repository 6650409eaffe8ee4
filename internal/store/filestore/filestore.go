// Package filestore keeps the installation and field values in one JSON
// document on disk. Writes replace the file atomically; an optional fsnotify
// watcher re-reads the document when another process edits it and notifies
// field watchers whose value changed.
package filestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

type document struct {
	Parameters *config.Payload            `json:"parameters,omitempty"`
	State      json.RawMessage            `json:"state,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
}

func (d document) clone() document {
	out := document{State: append(json.RawMessage(nil), d.State...)}
	if d.Parameters != nil {
		p := *d.Parameters
		out.Parameters = &p
	}
	if len(d.Fields) > 0 {
		out.Fields = make(map[string]json.RawMessage, len(d.Fields))
		for key, raw := range d.Fields {
			out.Fields[key] = append(json.RawMessage(nil), raw...)
		}
	}
	return out
}

type Option func(*Store)

// WithWatch enables reloading the document when it changes on disk.
func WithWatch(enabled bool) Option {
	return func(s *Store) { s.watch = enabled }
}

// WithDebounce sets how long file events settle before a reload.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the logger for the store and its watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is a file backed store.Backend.
type Store struct {
	path     string
	watch    bool
	debounce time.Duration
	logger   *slog.Logger
	hub      store.Hub

	mu     sync.RWMutex
	doc    document
	hash   string
	closed bool

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	pendingMu sync.Mutex
	pending   time.Time
}

var _ store.Backend = (*Store)(nil)

// Open loads the document at path, creating its directory when needed. A
// missing file is an empty installation.
func Open(path string, options ...Option) (*Store, error) {
	s := &Store{
		path:     filepath.Clean(path),
		debounce: 250 * time.Millisecond,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}
	doc, hash, err := s.read()
	if err != nil {
		return nil, err
	}
	s.doc, s.hash = doc, hash

	if s.watch {
		if err := s.startWatcher(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) read() (document, string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, "", nil
	}
	if err != nil {
		return document{}, "", fmt.Errorf("filestore: read %s: %w", s.path, err)
	}
	var doc document
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return document{}, "", fmt.Errorf("filestore: decode %s: %w", s.path, err)
		}
	}
	return doc, hashOf(raw), nil
}

// commit encodes doc, replaces the file atomically and records it as current.
// Callers hold s.mu.
func (s *Store) commit(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: replace %s: %w", s.path, err)
	}

	s.doc = doc
	s.hash = hashOf(raw)
	return nil
}

func (s *Store) Parameters(ctx context.Context) (*config.Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	if s.doc.Parameters == nil {
		return nil, nil
	}
	p := *s.doc.Parameters
	return &p, nil
}

func (s *Store) SaveParameters(ctx context.Context, payload config.Payload) error {
	return s.update(ctx, func(doc *document) {
		doc.Parameters = &payload
	})
}

func (s *Store) State(ctx context.Context) (host.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	if len(s.doc.State) == 0 {
		return nil, nil
	}
	return append(host.State(nil), s.doc.State...), nil
}

func (s *Store) SaveState(ctx context.Context, state host.State) error {
	return s.update(ctx, func(doc *document) {
		doc.State = append(json.RawMessage(nil), state...)
	})
}

func (s *Store) FieldValue(ctx context.Context, key string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.doc.Fields[key]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, store.ErrClosed
	}
	if !ok {
		return nil, nil
	}
	value, err := jsonvalue.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetFieldValue(ctx context.Context, key string, value any, origin string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("filestore: encode %q: %w", key, err)
	}
	normalized, err := jsonvalue.Decode(raw)
	if err != nil {
		return fmt.Errorf("filestore: encode %q: %w", key, err)
	}
	err = s.update(ctx, func(doc *document) {
		if doc.Fields == nil {
			doc.Fields = make(map[string]json.RawMessage)
		}
		doc.Fields[key] = raw
	})
	if err != nil {
		return err
	}
	s.hub.Publish(store.Change{Key: key, Value: normalized, Origin: origin})
	return nil
}

func (s *Store) update(ctx context.Context, mutate func(*document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	next := s.doc.clone()
	mutate(&next)
	return s.commit(next)
}

func (s *Store) Watch(key string, fn func(store.Change)) func() {
	return s.hub.Watch(key, fn)
}

// Close stops the watcher. Calling it again has no effect.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	if s.fsWatcher != nil {
		err := s.fsWatcher.Close()
		s.fsWatcher = nil
		return err
	}
	return nil
}

func (s *Store) startWatcher() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: create fsnotify: %w", err)
	}
	// Watch the directory so atomic replacements are seen.
	dir := filepath.Dir(s.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("filestore: watch %s: %w", dir, err)
	}
	s.fsWatcher = fsw

	s.wg.Add(1)
	go s.loop(fsw)
	return nil
}

func (s *Store) loop(fsw *fsnotify.Watcher) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.pendingMu.Lock()
				s.pending = time.Now()
				s.pendingMu.Unlock()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.logger.Error("filestore watcher error", "err", err)

		case <-ticker.C:
			s.pendingMu.Lock()
			ready := !s.pending.IsZero() && time.Since(s.pending) >= s.debounce
			if ready {
				s.pending = time.Time{}
			}
			s.pendingMu.Unlock()
			if ready {
				s.reload()
			}
		}
	}
}

// reload re-reads the document and notifies watchers of field values that
// differ from the last known content.
func (s *Store) reload() {
	changes, err := s.refresh()
	if err != nil {
		s.logger.Error("filestore: reload failed", "path", s.path, "err", err)
		return
	}
	if changes == nil {
		return
	}
	s.logger.Info("filestore reloaded", "path", s.path, "changed_fields", len(changes))
	for _, change := range changes {
		s.hub.Publish(change)
	}
}

// refresh reads the file under s.mu so a commit cannot land between the read
// and the swap. It returns nil when the file is unchanged.
func (s *Store) refresh() ([]store.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil
	}
	doc, hash, err := s.read()
	if err != nil {
		return nil, err
	}
	if hash == s.hash {
		return nil, nil
	}
	previous := s.doc
	s.doc, s.hash = doc, hash
	return append([]store.Change{}, diffFields(previous.Fields, doc.Fields)...), nil
}

func diffFields(before, after map[string]json.RawMessage) []store.Change {
	keys := make(map[string]struct{}, len(before)+len(after))
	for key := range before {
		keys[key] = struct{}{}
	}
	for key := range after {
		keys[key] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)

	var changes []store.Change
	for _, key := range names {
		oldValue, _ := jsonvalue.Decode(before[key])
		newValue, err := jsonvalue.Decode(after[key])
		if err != nil {
			continue
		}
		if jsonvalue.Equal(oldValue, newValue) {
			continue
		}
		changes = append(changes, store.Change{Key: key, Value: newValue, Origin: store.OriginExternal})
	}
	return changes
}

func hashOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
