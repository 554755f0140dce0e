package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DefaultFileName is the database file created by OpenDir.
	DefaultFileName = "ababil.db"

	keyEnvironments      = "ababil_environments"
	keyActiveEnvironment = "ababil_active_environment"
	keyCollections       = "ababil_collections"
	keyRequests          = "ababil_requests"

	schema = `CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
)

// ErrNotFound is returned when an id or name matches nothing.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed key-value store of JSON documents.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	queryTimeout time.Duration
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the database named by a connection string.
// Supported formats:
//   - sqlite://path/to/ababil.db
//   - sqlite:./ababil.db
//   - path/to/ababil.db
//   - :memory:
func Open(connectionString string, opts ...Option) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer and :memory: databases are
	// per connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &Store{
		db:           db,
		queryTimeout: 30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenDir opens DefaultFileName inside dir, creating the directory.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return Open(filepath.Join(dir, DefaultFileName), opts...)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	switch {
	case connStr == "":
		return "", fmt.Errorf("empty connection string")
	case strings.HasPrefix(connStr, "sqlite://"):
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	case strings.HasPrefix(connStr, "sqlite:"):
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	case strings.Contains(connStr, "://"):
		scheme, _, _ := strings.Cut(connStr, "://")
		return "", fmt.Errorf("unsupported database scheme: %s", scheme)
	}
	return connStr, nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// txn is a read-modify-write unit over the kv table.
type txn struct {
	ctx context.Context
	tx  *sql.Tx
}

// view runs fn in a read-only transaction.
func (s *Store) view(fn func(t *txn) error) error {
	return s.run(fn, true)
}

// update runs fn in a transaction that is committed when fn returns nil.
func (s *Store) update(fn func(t *txn) error) error {
	return s.run(fn, false)
}

func (s *Store) run(fn func(t *txn) error, readOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&txn{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if readOnly {
		return tx.Rollback()
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// get decodes the document under key into v. A missing key leaves v
// untouched and reports false.
func (t *txn) get(key string, v any) (bool, error) {
	var raw string
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("corrupt document %s: %w", key, err)
	}
	return true, nil
}

func (t *txn) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (t *txn) del(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// getString reads a raw string document.
func (t *txn) getString(key string) (string, error) {
	var s string
	if _, err := t.get(key, &s); err != nil {
		return "", err
	}
	return s, nil
}
