// Package sqlite persists the installation and field values in a SQLite
// database through the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/jeanc18rlos/contentful-rjsf/internal/store"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/config"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/host"
	"github.com/jeanc18rlos/contentful-rjsf/pkg/jsonvalue"
)

// Store is a SQLite backend. Change notifications fan out in process only.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	hub    store.Hub

	mu     sync.RWMutex
	closed bool
}

var _ store.Backend = (*Store)(nil)

type Option func(*Store)

// WithLogger sets the logger used for driver diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens (or creates) the database at path and migrates it.
func Open(path string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// Enable WAL mode for concurrent readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: set WAL mode: %w", err)
	}
	s, err := NewFromDB(db, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing database handle.
func NewFromDB(db *sql.DB, options ...Option) (*Store, error) {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS installation (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			parameters TEXT,
			state      TEXT,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS field_values (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			origin     TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *Store) Parameters(ctx context.Context) (*config.Payload, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT parameters FROM installation WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: read parameters: %w", err)
	}
	payload, err := config.DecodePayload([]byte(raw.String))
	if err != nil {
		return nil, fmt.Errorf("sqlite store: %w", err)
	}
	return &payload, nil
}

func (s *Store) SaveParameters(ctx context.Context, payload config.Payload) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	raw, err := payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("sqlite store: encode parameters: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO installation (id, parameters, updated_at)
		VALUES (1, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET parameters = excluded.parameters, updated_at = excluded.updated_at`,
		string(raw))
	if err != nil {
		return fmt.Errorf("sqlite store: save parameters: %w", err)
	}
	return nil
}

func (s *Store) State(ctx context.Context) (host.State, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT state FROM installation WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: read state: %w", err)
	}
	return host.State(raw.String), nil
}

func (s *Store) SaveState(ctx context.Context, state host.State) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	var value any
	if len(state) > 0 {
		value = string(state)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO installation (id, state, updated_at)
		VALUES (1, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		value)
	if err != nil {
		return fmt.Errorf("sqlite store: save state: %w", err)
	}
	return nil
}

func (s *Store) FieldValue(ctx context.Context, key string) (any, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM field_values WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: read %q: %w", key, err)
	}
	value, err := jsonvalue.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("sqlite store: read %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetFieldValue(ctx context.Context, key string, value any, origin string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("sqlite store: encode %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO field_values (key, value, origin, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, origin = excluded.origin, updated_at = excluded.updated_at`,
		key, string(raw), origin)
	if err != nil {
		return fmt.Errorf("sqlite store: write %q: %w", key, err)
	}

	normalized, err := jsonvalue.Decode(raw)
	if err != nil {
		return fmt.Errorf("sqlite store: write %q: %w", key, err)
	}
	s.logger.Debug("field value stored", "key", key, "origin", origin)
	s.hub.Publish(store.Change{Key: key, Value: normalized, Origin: origin})
	return nil
}

func (s *Store) Watch(key string, fn func(store.Change)) func() {
	return s.hub.Watch(key, fn)
}

// Close closes the database. Calling it again has no effect.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
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
