package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/nestdoc/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Imported rows from the legacy nested_data table
const currentSchemaVersion = 1

// DefaultBusyTimeout bounds how long a statement waits for a lock held by
// another connection to the same file.
const DefaultBusyTimeout = 5 * time.Second

// Store is a durable key to JSON document store on SQLite.
type Store struct {
	db     *sql.DB
	path   string
	sql    *querysql.SQLCompiler
	log    *slog.Logger
	keys   KeyGenerator
	strict bool
	closed atomic.Bool
}

// Option configures a Store.
type Option func(*options)

type options struct {
	busyTimeout time.Duration
	logger      *slog.Logger
	keys        KeyGenerator
	strict      bool
}

// WithBusyTimeout sets how long statements wait on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithKeyGenerator sets the generator used by Add.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(o *options) { o.keys = g }
}

// WithStrictArrayLength makes ArrayLength report ErrPathNotPresent and
// ErrNotArray instead of returning 0.
func WithStrictArrayLength(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// Open creates or opens a document store at path.
// Applies required pragmas, schema and migrations automatically.
//
// This function is idempotent - safe to call multiple times on one file.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		busyTimeout: DefaultBusyTimeout,
		logger:      slog.New(slog.DiscardHandler),
		keys:        UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("connect: %w", err)}
	}

	// One connection: statements through this Store are serialized, and
	// ":memory:" databases stay a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.busyTimeout); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("apply pragmas: %w", err)}
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("apply schema: %w", err)}
	}

	o.logger.Info("document store opened", "path", path, "busy_timeout", o.busyTimeout)

	return &Store{
		db:     db,
		path:   path,
		sql:    querysql.NewSQLCompiler(),
		log:    o.logger,
		keys:   o.keys,
		strict: o.strict,
	}, nil
}

// Close closes the database connection.
// Every later operation returns ErrConnectionClosed. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil || s.closed.Swap(true) {
		return nil
	}
	s.log.Info("document store closed", "path", s.path)
	if err := s.db.Close(); err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// handle returns the open database or ErrConnectionClosed.
func (s *Store) handle() (*sql.DB, error) {
	if s.db == nil || s.closed.Load() {
		return nil, ErrConnectionClosed
	}
	return s.db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 copies records from a legacy nested_data table, the layout
// written by earlier tools, into documents. Rows whose data is not valid JSON
// and keys already present in documents are skipped. The legacy table is
// left in place.
func migrateToV1(db *sql.DB) error {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'nested_data'",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if n == 0 {
		return nil
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO documents (key, data, created_at)
		SELECT key, json(data), COALESCE(created_at, CURRENT_TIMESTAMP)
		FROM nested_data
		WHERE key IS NOT NULL AND key <> '' AND json_valid(data)
		ORDER BY id
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// exec runs a mutating statement and logs it at debug level.
func (s *Store) exec(ctx context.Context, op, key string, query string, args ...any) (sql.Result, error) {
	db, err := s.handle()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("exec", "op", op, "key", key)
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap(op, key, err)
	}
	return res, nil
}
