package store

import (
	"context"
	"fmt"

	"github.com/roach88/nestdoc/internal/value"
)

// Put stores doc under key, fully replacing any existing document.
//
// The document is serialized to canonical JSON before it reaches SQLite; a
// value that cannot be serialized fails with ErrInvalidDocument and leaves
// any existing record untouched. The upsert is a single statement.
func (s *Store) Put(ctx context.Context, key string, doc value.Value) error {
	if err := checkKey("put", key); err != nil {
		return err
	}

	docJSON, err := marshalDocument(doc)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	query, args := s.sql.Upsert(key, docJSON)
	if _, err := s.exec(ctx, "put", key, query, args...); err != nil {
		return err
	}
	return nil
}

// PutAny converts a Go value with value.FromGo and stores it with Put.
// Channels, functions and other values JSON cannot represent fail with
// ErrInvalidDocument.
func (s *Store) PutAny(ctx context.Context, key string, doc any) error {
	v, err := value.FromGo(doc)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return s.Put(ctx, key, v)
}

// Add stores doc under a newly generated key and returns the key.
// Unlike Put it never replaces: a generated key that already exists fails
// with a StorageError.
func (s *Store) Add(ctx context.Context, doc value.Value) (string, error) {
	docJSON, err := marshalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}

	key, err := s.keys.Generate()
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	if err := checkKey("add", key); err != nil {
		return "", err
	}

	query, args := s.sql.Insert(key, docJSON)
	if _, err := s.exec(ctx, "add", key, query, args...); err != nil {
		return "", err
	}
	return key, nil
}

// UpdatePath replaces the subtree at path within the document for key.
//
// Missing object members along the path are created (json_set semantics).
// A scalar in the way of the path leaves the document unchanged and is not
// an error.
// The update is one UPDATE statement, so concurrent updaters of the same
// key never lose each other's writes. Returns ErrNotFound if key does not
// exist and ErrInvalidPath if path does not parse.
func (s *Store) UpdatePath(ctx context.Context, key, path string, v value.Value) error {
	if err := checkKey("update path", key); err != nil {
		return err
	}
	p, err := parsePath("update path", path)
	if err != nil {
		return err
	}

	docJSON, err := marshalDocument(v)
	if err != nil {
		return fmt.Errorf("update path %q %s: %w", key, path, err)
	}

	query, args := s.sql.UpdatePath(key, p, docJSON)
	res, err := s.exec(ctx, "update path", key, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return s.wrap("update path", key, err)
	}
	if n == 0 {
		return fmt.Errorf("update path %q: %w", key, ErrNotFound)
	}
	return nil
}
