package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/nestdoc/internal/querysql"
	"github.com/roach88/nestdoc/internal/value"
)

// Stat describes a stored record without its document.
type Stat struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
	Digest    string    `json:"digest"`
}

// Get returns the document stored under key.
// Returns ErrNotFound if no record exists.
func (s *Store) Get(ctx context.Context, key string) (value.Value, error) {
	db, err := s.handle()
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	query, args := s.sql.Lookup(key)
	var data string
	if err := db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
		}
		return nil, s.wrap("get", key, err)
	}

	return unmarshalDocument(data)
}

// ExtractPath returns the value at path within the document for key.
//
// The boolean is false when the path does not resolve. A JSON null at the
// path is present and returned as value.Null{}. Returns ErrNotFound only
// when the key itself is absent.
func (s *Store) ExtractPath(ctx context.Context, key, path string) (value.Value, bool, error) {
	db, err := s.handle()
	if err != nil {
		return nil, false, fmt.Errorf("extract path: %w", err)
	}
	p, err := parsePath("extract path", path)
	if err != nil {
		return nil, false, err
	}

	query, args := s.sql.ExtractPath(key, p)
	var data sql.NullString
	if err := db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("extract path %q: %w", key, ErrNotFound)
		}
		return nil, false, s.wrap("extract path", key, err)
	}
	if !data.Valid {
		return nil, false, nil
	}

	v, err := unmarshalDocument(data.String)
	if err != nil {
		return nil, false, fmt.Errorf("extract path %q %s: %w", key, path, err)
	}
	return v, true, nil
}

// ExtractPathStrict is ExtractPath with an absent path reported as
// ErrPathNotPresent.
func (s *Store) ExtractPathStrict(ctx context.Context, key, path string) (value.Value, error) {
	v, ok, err := s.ExtractPath(ctx, key, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("extract path %q %s: %w", key, path, ErrPathNotPresent)
	}
	return v, nil
}

// ArrayLength returns the length of the array at path within the document
// for key. Returns ErrNotFound when the key is absent.
//
// By default a missing path or a non-array target yields 0. With
// WithStrictArrayLength it behaves like ArrayLengthStrict.
func (s *Store) ArrayLength(ctx context.Context, key, path string) (int, error) {
	n, present, isArray, err := s.arrayLength(ctx, key, path)
	if err != nil {
		return 0, err
	}
	if s.strict {
		return strictLength(key, path, n, present, isArray)
	}
	return n, nil
}

// ArrayLengthStrict returns ErrPathNotPresent for a missing path and
// ErrNotArray for a non-array target, so an empty array is distinguishable.
func (s *Store) ArrayLengthStrict(ctx context.Context, key, path string) (int, error) {
	n, present, isArray, err := s.arrayLength(ctx, key, path)
	if err != nil {
		return 0, err
	}
	return strictLength(key, path, n, present, isArray)
}

func strictLength(key, path string, n int, present, isArray bool) (int, error) {
	switch {
	case !present:
		return 0, fmt.Errorf("array length %q %s: %w", key, path, ErrPathNotPresent)
	case !isArray:
		return 0, fmt.Errorf("array length %q %s: %w", key, path, ErrNotArray)
	}
	return n, nil
}

func (s *Store) arrayLength(ctx context.Context, key, path string) (n int, present, isArray bool, err error) {
	db, err := s.handle()
	if err != nil {
		return 0, false, false, fmt.Errorf("array length: %w", err)
	}
	p, err := parsePath("array length", path)
	if err != nil {
		return 0, false, false, err
	}

	query, args := s.sql.ArrayLength(key, p)
	var kind sql.NullString
	var length sql.NullInt64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&kind, &length); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, false, fmt.Errorf("array length %q: %w", key, ErrNotFound)
		}
		return 0, false, false, s.wrap("array length", key, err)
	}

	if !kind.Valid {
		return 0, false, false, nil
	}
	if kind.String != "array" {
		return 0, true, false, nil
	}
	return int(length.Int64), true, true, nil
}

// QueryPath returns every document whose value at path equals want under
// JSON equality: same type and value, with numbers compared numerically.
// Documents where path does not resolve do not match.
//
// This is a full scan. Results are ordered by key ascending.
func (s *Store) QueryPath(ctx context.Context, path string, want value.Value) ([]Record, error) {
	p, err := parsePath("query path", path)
	if err != nil {
		return nil, err
	}
	if want == nil {
		return nil, fmt.Errorf("query path: %w: nil value", ErrInvalidDocument)
	}
	return s.selectRecords(ctx, "query path", querysql.PathEquals{Path: p, Value: want})
}

// SearchText returns every document whose stored JSON text contains term.
//
// The match is a substring search over the serialized document, not over
// its values: a term can match an object key, a number's digits, or JSON
// punctuation. ASCII letters match either case. An empty term matches every
// document. Results are ordered by key ascending.
func (s *Store) SearchText(ctx context.Context, term string) ([]Record, error) {
	return s.selectRecords(ctx, "search text", querysql.TextContains{Term: term})
}

func (s *Store) selectRecords(ctx context.Context, op string, filter querysql.Predicate) ([]Record, error) {
	db, err := s.handle()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.sql.Select(filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("query", "op", op)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap(op, "", err)
	}
	defer rows.Close()

	recheck := querysql.NeedsRecheck(filter)
	records := []Record{}
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, s.wrap(op, "", err)
		}
		doc, err := unmarshalDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", op, key, err)
		}
		if recheck && !querysql.Matches(filter, key, doc, []byte(data)) {
			continue
		}
		records = append(records, Record{Key: key, Data: doc})
	}

	if err := rows.Err(); err != nil {
		return nil, s.wrap(op, "", err)
	}
	return records, nil
}

// Keys returns stored keys that start with prefix, ordered ascending.
// An empty prefix returns every key.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	query, args, err := s.sql.Keys(querysql.KeyPrefix{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrap("keys", "", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, s.wrap("keys", "", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("keys", "", err)
	}
	return keys, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.handle()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	query, args := s.sql.Count()
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.wrap("count", "", err)
	}
	return n, nil
}

// Stat returns metadata for the record under key.
// Returns ErrNotFound if no record exists.
func (s *Store) Stat(ctx context.Context, key string) (Stat, error) {
	db, err := s.handle()
	if err != nil {
		return Stat{}, fmt.Errorf("stat: %w", err)
	}

	query, args := s.sql.Stat(key)
	var data string
	st := Stat{Key: key}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&data, &st.CreatedAt, &st.Size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stat{}, fmt.Errorf("stat %q: %w", key, ErrNotFound)
		}
		return Stat{}, s.wrap("stat", key, err)
	}

	doc, err := unmarshalDocument(data)
	if err != nil {
		return Stat{}, fmt.Errorf("stat %q: %w", key, err)
	}
	if st.Digest, err = value.Digest(doc); err != nil {
		return Stat{}, fmt.Errorf("stat %q: %w", key, err)
	}
	return st, nil
}
