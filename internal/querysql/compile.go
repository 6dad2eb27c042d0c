package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/nestdoc/internal/jsonpath"
	"github.com/roach88/nestdoc/internal/value"
)

// DefaultTable is the table holding documents.
const DefaultTable = "documents"

// SQLCompiler compiles document operations to parameterized SQL for SQLite.
//
// All values are bound as parameters, never interpolated.
// All multi-row selects include ORDER BY key COLLATE BINARY.
type SQLCompiler struct {
	Table string
}

// NewSQLCompiler creates a compiler for the default documents table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// Upsert inserts or fully replaces the document under key.
// INSERT OR REPLACE deletes the old row, so created_at restarts.
func (c *SQLCompiler) Upsert(key, docJSON string) (string, []any) {
	return fmt.Sprintf("INSERT OR REPLACE INTO %s (key, data) VALUES (?, json(?))", c.Table),
		[]any{key, docJSON}
}

// Insert inserts a new document and fails on an existing key.
func (c *SQLCompiler) Insert(key, docJSON string) (string, []any) {
	return fmt.Sprintf("INSERT INTO %s (key, data) VALUES (?, json(?))", c.Table),
		[]any{key, docJSON}
}

// Lookup selects the document text for key.
func (c *SQLCompiler) Lookup(key string) (string, []any) {
	return fmt.Sprintf("SELECT data FROM %s WHERE key = ?", c.Table), []any{key}
}

// UpdatePath sets the subtree at path to docJSON in a single statement.
// Zero rows affected means the key does not exist.
func (c *SQLCompiler) UpdatePath(key string, path jsonpath.Path, docJSON string) (string, []any) {
	return fmt.Sprintf("UPDATE %s SET data = json_set(data, ?, json(?)) WHERE key = ?", c.Table),
		[]any{path.String(), docJSON, key}
}

// ExtractPath selects the JSON text at path for key.
// The column is NULL when the path does not resolve and 'null' for JSON null.
func (c *SQLCompiler) ExtractPath(key string, path jsonpath.Path) (string, []any) {
	return fmt.Sprintf("SELECT data -> ? FROM %s WHERE key = ?", c.Table),
		[]any{path.String(), key}
}

// ArrayLength selects the JSON type and array length at path for key.
// Both columns are NULL when the path does not resolve; the length is 0
// when the target is not an array.
func (c *SQLCompiler) ArrayLength(key string, path jsonpath.Path) (string, []any) {
	p := path.String()
	return fmt.Sprintf("SELECT json_type(data, ?), json_array_length(data, ?) FROM %s WHERE key = ?", c.Table),
		[]any{p, p, key}
}

// Stat selects metadata for key.
func (c *SQLCompiler) Stat(key string) (string, []any) {
	return fmt.Sprintf("SELECT data, created_at, length(CAST(data AS BLOB)) FROM %s WHERE key = ?", c.Table),
		[]any{key}
}

// Count selects the number of stored documents.
func (c *SQLCompiler) Count() (string, []any) {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", c.Table), nil
}

// Keys selects keys matching filter, ordered by key.
func (c *SQLCompiler) Keys(filter Predicate) (string, []any, error) {
	where, params, err := c.compilePredicate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return fmt.Sprintf("SELECT key FROM %s WHERE %s ORDER BY %s", c.Table, where, stableOrderKey()),
		params, nil
}

// Select selects (key, data) rows matching filter, ordered by key.
// The surrogate id column is never selected.
func (c *SQLCompiler) Select(filter Predicate) (string, []any, error) {
	where, params, err := c.compilePredicate(filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return fmt.Sprintf("SELECT key, data FROM %s WHERE %s ORDER BY %s", c.Table, where, stableOrderKey()),
		params, nil
}

// stableOrderKey returns the ORDER BY clause shared by every multi-row select.
func stableOrderKey() string {
	return "key COLLATE BINARY ASC"
}

// compilePredicate compiles a Predicate to a WHERE clause fragment.
func (c *SQLCompiler) compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case PathEquals:
		return compilePathEquals(pred)
	case TextContains:
		// LIKE folds ASCII case only.
		return `data LIKE ? ESCAPE '\'`, []any{"%" + escapeLike(pred.Term) + "%"}, nil
	case KeyPrefix:
		if pred.Prefix == "" {
			return "1 = 1", nil, nil
		}
		// substr counts characters, not bytes.
		return "substr(key, 1, ?) = ?", []any{utf8.RuneCountInString(pred.Prefix), pred.Prefix}, nil
	case And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, ps, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// escapeLike escapes LIKE wildcards so term matches literally.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// compilePathEquals dispatches on the wanted value's kind. json_type
// distinguishes true/false/null, which json_extract collapses to 1/0/NULL.
func compilePathEquals(pe PathEquals) (string, []any, error) {
	p := pe.Path.String()

	switch v := pe.Value.(type) {
	case value.Null:
		return "json_type(data, ?) = 'null'", []any{p}, nil
	case value.Bool:
		if v {
			return "json_type(data, ?) = 'true'", []any{p}, nil
		}
		return "json_type(data, ?) = 'false'", []any{p}, nil
	case value.Int:
		return "json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) = ?",
			[]any{p, p, int64(v)}, nil
	case value.Float:
		return "json_type(data, ?) IN ('integer', 'real') AND json_extract(data, ?) = ?",
			[]any{p, p, float64(v)}, nil
	case value.String:
		return "json_type(data, ?) = 'text' AND json_extract(data, ?) = ?",
			[]any{p, p, string(v)}, nil
	case value.Array:
		return "json_type(data, ?) = 'array'", []any{p}, nil
	case value.Object:
		return "json_type(data, ?) = 'object'", []any{p}, nil
	default:
		return "", nil, fmt.Errorf("unsupported value type for path filter: %T", pe.Value)
	}
}
