package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceKeyGenerator_Sequence(t *testing.T) {
	gen := NewSequenceKeyGenerator("user")

	for _, want := range []string{"user-0001", "user-0002", "user-0003"} {
		key, err := gen.Generate()
		require.NoError(t, err)
		assert.Equal(t, want, key)
	}
}

func TestSequenceKeyGenerator_DefaultPrefix(t *testing.T) {
	key, err := NewSequenceKeyGenerator("").Generate()
	require.NoError(t, err)
	assert.Equal(t, "doc-0001", key)
}

func TestSequenceKeyGenerator_Independent(t *testing.T) {
	a := NewSequenceKeyGenerator("a")
	b := NewSequenceKeyGenerator("a")

	_, _ = a.Generate()
	key, err := b.Generate()
	require.NoError(t, err)
	assert.Equal(t, "a-0001", key, "generators must not share state")
}

func TestSequenceKeyGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceKeyGenerator("k")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key, err := gen.Generate()
				assert.NoError(t, err)
				mu.Lock()
				seen[key] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every generated key must be unique")
}
