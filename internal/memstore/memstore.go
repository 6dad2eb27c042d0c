package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/nestdoc/internal/jsonpath"
	"github.com/roach88/nestdoc/internal/querysql"
	"github.com/roach88/nestdoc/internal/store"
	"github.com/roach88/nestdoc/internal/value"
)

// MemoryStore implements store.DocumentStore in memory.
// Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte // canonical JSON text
	keys   store.KeyGenerator
	strict bool
	closed bool
}

var _ store.DocumentStore = (*MemoryStore)(nil)

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithKeyGenerator sets the generator used by Add.
func WithKeyGenerator(g store.KeyGenerator) Option {
	return func(m *MemoryStore) { m.keys = g }
}

// WithStrictArrayLength makes ArrayLength behave like ArrayLengthStrict.
func WithStrictArrayLength(strict bool) Option {
	return func(m *MemoryStore) { m.strict = strict }
}

// New creates an empty store.
func New(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		docs: make(map[string][]byte),
		keys: store.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close discards all documents. Closing twice is a no-op.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.docs = nil
	return nil
}

// Put stores doc under key, replacing any existing document.
func (m *MemoryStore) Put(ctx context.Context, key string, doc value.Value) error {
	if key == "" {
		return fmt.Errorf("put: %w: key must not be empty", store.ErrInvalidKey)
	}
	data, err := value.Marshal(doc)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("put: %w", store.ErrConnectionClosed)
	}
	m.docs[key] = data
	return nil
}

// PutAny converts a Go value with value.FromGo and stores it with Put.
func (m *MemoryStore) PutAny(ctx context.Context, key string, doc any) error {
	v, err := value.FromGo(doc)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return m.Put(ctx, key, v)
}

// Add stores doc under a newly generated key and returns the key.
// A generated key that already exists fails without replacing.
func (m *MemoryStore) Add(ctx context.Context, doc value.Value) (string, error) {
	data, err := value.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	key, err := m.keys.Generate()
	if err != nil {
		return "", fmt.Errorf("add: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("add: %w: key must not be empty", store.ErrInvalidKey)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("add: %w", store.ErrConnectionClosed)
	}
	if _, exists := m.docs[key]; exists {
		return "", &store.StorageError{Op: "add", Key: key, Err: fmt.Errorf("key already exists")}
	}
	m.docs[key] = data
	return key, nil
}

// Get returns the document stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (value.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.load("get", key)
}

// UpdatePath replaces the subtree at path within the document for key.
// The read-modify-write holds the write lock throughout.
func (m *MemoryStore) UpdatePath(ctx context.Context, key, path string, v value.Value) error {
	if key == "" {
		return fmt.Errorf("update path: %w: key must not be empty", store.ErrInvalidKey)
	}
	p, err := jsonpath.Parse(path)
	if err != nil {
		return fmt.Errorf("update path: %w", err)
	}
	if _, err := value.Marshal(v); err != nil {
		return fmt.Errorf("update path %q %s: %w", key, path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, err := m.load("update path", key)
	if err != nil {
		return err
	}

	updated, changed := jsonpath.Set(doc, p, v)
	if !changed {
		return nil
	}
	data, err := value.Marshal(updated)
	if err != nil {
		return fmt.Errorf("update path %q %s: %w", key, path, err)
	}
	m.docs[key] = data
	return nil
}

// ExtractPath returns the value at path and whether it is present.
func (m *MemoryStore) ExtractPath(ctx context.Context, key, path string) (value.Value, bool, error) {
	p, err := jsonpath.Parse(path)
	if err != nil {
		return nil, false, fmt.Errorf("extract path: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, err := m.load("extract path", key)
	if err != nil {
		return nil, false, err
	}
	v, ok := jsonpath.Get(doc, p)
	return v, ok, nil
}

// ExtractPathStrict reports an absent path as store.ErrPathNotPresent.
func (m *MemoryStore) ExtractPathStrict(ctx context.Context, key, path string) (value.Value, error) {
	v, ok, err := m.ExtractPath(ctx, key, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("extract path %q %s: %w", key, path, store.ErrPathNotPresent)
	}
	return v, nil
}

// ArrayLength returns the length of the array at path, or 0 when the path
// is missing or not an array unless the store is strict.
func (m *MemoryStore) ArrayLength(ctx context.Context, key, path string) (int, error) {
	if m.strict {
		return m.ArrayLengthStrict(ctx, key, path)
	}
	n, _, _, err := m.arrayLength(key, path)
	return n, err
}

// ArrayLengthStrict distinguishes a missing path and a non-array target.
func (m *MemoryStore) ArrayLengthStrict(ctx context.Context, key, path string) (int, error) {
	n, present, isArray, err := m.arrayLength(key, path)
	if err != nil {
		return 0, err
	}
	switch {
	case !present:
		return 0, fmt.Errorf("array length %q %s: %w", key, path, store.ErrPathNotPresent)
	case !isArray:
		return 0, fmt.Errorf("array length %q %s: %w", key, path, store.ErrNotArray)
	}
	return n, nil
}

func (m *MemoryStore) arrayLength(key, path string) (int, bool, bool, error) {
	p, err := jsonpath.Parse(path)
	if err != nil {
		return 0, false, false, fmt.Errorf("array length: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, err := m.load("array length", key)
	if err != nil {
		return 0, false, false, err
	}
	n, present, isArray := jsonpath.ArrayLength(doc, p)
	return n, present, isArray, nil
}

// QueryPath returns documents whose value at path equals want, ordered by key.
func (m *MemoryStore) QueryPath(ctx context.Context, path string, want value.Value) ([]store.Record, error) {
	p, err := jsonpath.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("query path: %w", err)
	}
	if want == nil {
		return nil, fmt.Errorf("query path: %w: nil value", store.ErrInvalidDocument)
	}
	return m.scan("query path", querysql.PathEquals{Path: p, Value: want})
}

// SearchText returns documents whose canonical text contains term, ordered
// by key. ASCII letters match regardless of case.
func (m *MemoryStore) SearchText(ctx context.Context, term string) ([]store.Record, error) {
	return m.scan("search text", querysql.TextContains{Term: term})
}

// Keys returns stored keys with prefix in ascending byte order.
func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("keys: %w", store.ErrConnectionClosed)
	}

	filter := querysql.KeyPrefix{Prefix: prefix}
	keys := []string{}
	for _, key := range m.sortedKeys() {
		if querysql.Matches(filter, key, nil, nil) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Count returns the number of stored documents.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, fmt.Errorf("count: %w", store.ErrConnectionClosed)
	}
	return len(m.docs), nil
}

func (m *MemoryStore) scan(op string, filter querysql.Predicate) ([]store.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("%s: %w", op, store.ErrConnectionClosed)
	}

	records := []store.Record{}
	for _, key := range m.sortedKeys() {
		data := m.docs[key]
		doc, err := value.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", op, key, err)
		}
		if querysql.Matches(filter, key, doc, data) {
			records = append(records, store.Record{Key: key, Data: doc})
		}
	}
	return records, nil
}

// load decodes the document for key. Callers hold m.mu.
func (m *MemoryStore) load(op, key string) (value.Value, error) {
	if m.closed {
		return nil, fmt.Errorf("%s: %w", op, store.ErrConnectionClosed)
	}
	data, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", op, key, store.ErrNotFound)
	}
	return value.Decode(data)
}

// sortedKeys returns all keys in ascending byte order. Callers hold m.mu.
func (m *MemoryStore) sortedKeys() []string {
	keys := make([]string, 0, len(m.docs))
	for key := range m.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
