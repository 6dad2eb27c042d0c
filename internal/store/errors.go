package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/nestdoc/internal/jsonpath"
	"github.com/roach88/nestdoc/internal/value"
)

var (
	// ErrNotFound is returned when no record exists for a key.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidDocument is returned when a value cannot be stored as JSON.
	ErrInvalidDocument = value.ErrInvalidDocument

	// ErrInvalidPath is returned when a JSON path does not parse.
	ErrInvalidPath = jsonpath.ErrInvalidPath

	// ErrPathNotPresent is returned by strict reads when a path does not
	// resolve within an existing document.
	ErrPathNotPresent = errors.New("path not present")

	// ErrNotArray is returned by strict array length when the path resolves
	// to something other than an array.
	ErrNotArray = errors.New("value at path is not an array")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrConnectionClosed is returned by every operation after Close.
	ErrConnectionClosed = errors.New("connection closed")
)

// StorageError wraps a failure of the storage engine itself: I/O, lock
// timeout, corruption, or a constraint unrelated to document validity.
type StorageError struct {
	// Op names the store operation, e.g. "put" or "update path".
	Op string

	// Key is the addressed key, empty for store-wide operations.
	Key string

	// Err is the driver error.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: storage error: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: storage error: %v", e.Op, e.Err)
}

// Unwrap returns the driver error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError returns true if err is or wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// wrap classifies a driver error for op on key.
func (s *Store) wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}

	// database/sql does not export its closed-database error.
	if strings.Contains(err.Error(), "sql: database is closed") {
		return fmt.Errorf("%s: %w", op, ErrConnectionClosed)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck ||
			strings.Contains(sqliteErr.Error(), "malformed JSON") {
			return fmt.Errorf("%s %q: %w: %v", op, key, ErrInvalidDocument, err)
		}
		if strings.Contains(sqliteErr.Error(), "JSON path error") {
			return fmt.Errorf("%s %q: %w: %v", op, key, ErrInvalidPath, err)
		}
	}

	s.log.Error("storage error", "op", op, "key", key, "error", err)
	return &StorageError{Op: op, Key: key, Err: err}
}
