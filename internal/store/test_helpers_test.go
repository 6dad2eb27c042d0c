package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/nestdoc/internal/value"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustPut stores a document given as JSON text.
func mustPut(t *testing.T, s *Store, key, doc string) {
	t.Helper()
	if err := s.Put(context.Background(), key, value.MustDecode(doc)); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

// mustGet returns the stored document as canonical JSON text.
func mustGet(t *testing.T, s *Store, key string) string {
	t.Helper()
	doc, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return string(value.MustMarshal(doc))
}

func recordKeys(records []Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
