// Package storetest holds a conformance suite for store.DocumentStore
// implementations. Both the SQLite store and memstore run it, so the two
// backends cannot drift apart.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nestdoc/internal/store"
	"github.com/roach88/nestdoc/internal/value"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.DocumentStore

// Run runs every conformance check against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	checks := []struct {
		name string
		fn   func(t *testing.T, s store.DocumentStore)
	}{
		{"PutGetRoundTrip", testPutGetRoundTrip},
		{"PutReplaces", testPutReplaces},
		{"PutInvalidDocumentKeepsRecord", testPutInvalidDocumentKeepsRecord},
		{"PutInvalidUTF8KeepsRecord", testPutInvalidUTF8KeepsRecord},
		{"GetNotFound", testGetNotFound},
		{"UpdatePathNested", testUpdatePathNested},
		{"UpdatePathAutoVivify", testUpdatePathAutoVivify},
		{"UpdatePathScalarInWay", testUpdatePathScalarInWay},
		{"UpdatePathNotFound", testUpdatePathNotFound},
		{"UpdatePathInvalidPath", testUpdatePathInvalidPath},
		{"QuoteInUnquotedMember", testQuoteInUnquotedMember},
		{"UpdatePathConcurrent", testUpdatePathConcurrent},
		{"ExtractPathNullVersusAbsent", testExtractPathNullVersusAbsent},
		{"ArrayLength", testArrayLength},
		{"QueryPath", testQueryPath},
		{"SearchText", testSearchText},
		{"KeysAndCount", testKeysAndCount},
		{"Add", testAdd},
		{"Closed", testClosed},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { s.Close() })
			c.fn(t, s)
		})
	}
}

func put(t *testing.T, s store.DocumentStore, key, doc string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), key, value.MustDecode(doc)))
}

func get(t *testing.T, s store.DocumentStore, key string) string {
	t.Helper()
	doc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return string(value.MustMarshal(doc))
}

func keysOf(records []store.Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

func testPutGetRoundTrip(t *testing.T, s store.DocumentStore) {
	doc := `{"a":[1,2.5,"x",null,true],"b":{"c":{"d":"deep"}},"e":"Zoë 😀"}`
	put(t, s, "k", doc)
	assert.Equal(t, doc, get(t, s, "k"))
}

func testPutReplaces(t *testing.T, s store.DocumentStore) {
	put(t, s, "k", `{"a":1,"b":2}`)
	put(t, s, "k", `{"c":3}`)
	assert.Equal(t, `{"c":3}`, get(t, s, "k"))
}

func testPutInvalidDocumentKeepsRecord(t *testing.T, s store.DocumentStore) {
	put(t, s, "k", `{"a":1}`)

	err := s.PutAny(context.Background(), "k", map[string]any{"f": func() {}})
	require.ErrorIs(t, err, store.ErrInvalidDocument)
	assert.Equal(t, `{"a":1}`, get(t, s, "k"))
}

func testPutInvalidUTF8KeepsRecord(t *testing.T, s store.DocumentStore) {
	put(t, s, "k", `{"a":1}`)

	err := s.Put(context.Background(), "k", value.Object{"s": value.String("a\xffb")})
	require.ErrorIs(t, err, store.ErrInvalidDocument)
	assert.Equal(t, `{"a":1}`, get(t, s, "k"))
}

func testGetNotFound(t *testing.T, s store.DocumentStore) {
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdatePathNested(t *testing.T, s store.DocumentStore) {
	put(t, s, "u", `{"a":1,"b":{"c":2}}`)
	require.NoError(t, s.UpdatePath(context.Background(), "u", "$.b.c", value.Int(5)))
	assert.Equal(t, `{"a":1,"b":{"c":5}}`, get(t, s, "u"))
}

func testUpdatePathAutoVivify(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "u", `{"a":1,"list":[1]}`)

	require.NoError(t, s.UpdatePath(ctx, "u", "$.x.y", value.Int(1)))
	require.NoError(t, s.UpdatePath(ctx, "u", "$.list[#]", value.Int(2)))
	require.NoError(t, s.UpdatePath(ctx, "u", "$.arr[0]", value.String("first")))
	// The parent of $.a.b is a number, so nothing changes
	require.NoError(t, s.UpdatePath(ctx, "u", "$.a.b", value.Int(9)))

	assert.Equal(t, `{"a":1,"arr":["first"],"list":[1,2],"x":{"y":1}}`, get(t, s, "u"))
}

func testUpdatePathScalarInWay(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "u", `{"a":1,"l":[1]}`)

	require.NoError(t, s.UpdatePath(ctx, "u", "$.a.b", value.Int(9)))
	require.NoError(t, s.UpdatePath(ctx, "u", "$.a.b.c", value.Int(9)))
	require.NoError(t, s.UpdatePath(ctx, "u", "$.l.b", value.Int(9)))
	assert.Equal(t, `{"a":1,"l":[1]}`, get(t, s, "u"))
}

func testUpdatePathNotFound(t *testing.T, s store.DocumentStore) {
	err := s.UpdatePath(context.Background(), "missing", "$.a", value.Int(1))
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testUpdatePathInvalidPath(t *testing.T, s store.DocumentStore) {
	put(t, s, "u", `{}`)
	err := s.UpdatePath(context.Background(), "u", "a.b", value.Int(1))
	assert.ErrorIs(t, err, store.ErrInvalidPath)
}

func testQuoteInUnquotedMember(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "u", `{"a\"b":1}`)

	_, _, err := s.ExtractPath(ctx, "u", `$.a"b`)
	assert.ErrorIs(t, err, store.ErrInvalidPath)
	assert.ErrorIs(t, s.UpdatePath(ctx, "u", `$.a"b`, value.Int(2)), store.ErrInvalidPath)
	assert.Equal(t, `{"a\"b":1}`, get(t, s, "u"))
}

func testUpdatePathConcurrent(t *testing.T, s store.DocumentStore) {
	put(t, s, "shared", `{}`)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("$.w%02d", i)
			assert.NoError(t, s.UpdatePath(context.Background(), "shared", path, value.Int(int64(i))))
		}(i)
	}
	wg.Wait()

	doc, err := s.Get(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, doc.(value.Object), writers)
}

func testExtractPathNullVersusAbsent(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "u", `{"a":null,"b":{"c":[10,20]}}`)

	v, ok, err := s.ExtractPath(ctx, "u", "$.a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value.Null{}, v)

	_, ok, err = s.ExtractPath(ctx, "u", "$.z")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = s.ExtractPath(ctx, "u", "$.b.c[#-1]")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, value.Int(20), v)

	_, err = s.ExtractPathStrict(ctx, "u", "$.z")
	assert.ErrorIs(t, err, store.ErrPathNotPresent)

	_, _, err = s.ExtractPath(ctx, "missing", "$.a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testArrayLength(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "u", `{"items":[1,2,3],"empty":[],"name":"x"}`)

	n, err := s.ArrayLength(ctx, "u", "$.items")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, path := range []string{"$.empty", "$.name", "$.missing"} {
		n, err := s.ArrayLength(ctx, "u", path)
		require.NoError(t, err, path)
		assert.Zero(t, n, path)
	}

	_, err = s.ArrayLengthStrict(ctx, "u", "$.missing")
	assert.ErrorIs(t, err, store.ErrPathNotPresent)
	_, err = s.ArrayLengthStrict(ctx, "u", "$.name")
	assert.ErrorIs(t, err, store.ErrNotArray)
	_, err = s.ArrayLength(ctx, "missing", "$.items")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testQueryPath(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "user:2", `{"address":{"city":"Shelbyville"}}`)
	put(t, s, "user:1", `{"address":{"city":"Springfield"}}`)
	put(t, s, "user:3", `{"address":{"city":"Springfield"},"n":1}`)
	put(t, s, "user:4", `{"n":1.0,"tags":["a",{"y":2,"x":1}]}`)

	records, err := s.QueryPath(ctx, "$.address.city", value.String("Springfield"))
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:3"}, keysOf(records))

	records, err = s.QueryPath(ctx, "$.n", value.Float(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"user:3", "user:4"}, keysOf(records))

	records, err = s.QueryPath(ctx, "$.tags", value.MustDecode(`["a",{"x":1,"y":2}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"user:4"}, keysOf(records))

	records, err = s.QueryPath(ctx, "$.address.city", value.String("Ogdenville"))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func testSearchText(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "b", `{"hobbies":["photography"]}`)
	put(t, s, "a", `{"bio":"Photography fan"}`)
	put(t, s, "c", `{"hobbies":["chess"]}`)

	records, err := s.SearchText(ctx, "photography")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keysOf(records))

	records, err = s.SearchText(ctx, "PHOTO")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keysOf(records))

	put(t, s, "d", `{"tag":"50% off"}`)
	records, err = s.SearchText(ctx, "0%")
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, keysOf(records))
	records, err = s.SearchText(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = s.SearchText(ctx, "hobbies")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keysOf(records))
}

func testKeysAndCount(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	for _, k := range []string{"user:2", "order:1", "user:1"} {
		put(t, s, k, `{}`)
	}

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"order:1", "user:1", "user:2"}, keys)

	keys, err = s.Keys(ctx, "user:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:1", "user:2"}, keys)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testAdd(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	key, err := s.Add(ctx, value.MustDecode(`{"n":1}`))
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, `{"n":1}`, get(t, s, key))
}

func testClosed(t *testing.T, s store.DocumentStore) {
	ctx := context.Background()
	put(t, s, "k", `{}`)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrConnectionClosed)
	assert.ErrorIs(t, s.Put(ctx, "k", value.Null{}), store.ErrConnectionClosed)
	_, err = s.SearchText(ctx, "")
	assert.ErrorIs(t, err, store.ErrConnectionClosed)
}
