package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/nestdoc/internal/value"
)

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want ErrNotFound", err)
	}
}

func TestGet_PreservesUnicode(t *testing.T) {
	s := createTestStore(t)

	doc := `{"emoji":"😀","html":"<a&b>","ls":"x\u2028y","name":"Zoë"}`
	mustPut(t, s, "u", doc)

	got, err := s.Get(context.Background(), "u")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !value.Equal(got, value.MustDecode(doc)) {
		t.Errorf("Get() = %s, want %s", value.MustMarshal(got), doc)
	}
}

func TestGet_NumberNormalization(t *testing.T) {
	s := createTestStore(t)

	doc := value.NewObject(
		value.O("i", value.Int(9007199254740993)),
		value.O("whole", value.Float(5)),
		value.O("f", value.Float(0.1)),
	)
	if err := s.Put(context.Background(), "n", doc); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got := mustGet(t, s, "n")
	if got != `{"f":0.1,"i":9007199254740993,"whole":5}` {
		t.Errorf("Get() = %s", got)
	}
}

func TestExtractPath(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "u", `{"user":{"address":{"city":"Springfield"}},"tags":["a","b"],"gone":null}`)

	tests := []struct {
		path    string
		want    string
		present bool
	}{
		{"$.user.address.city", `"Springfield"`, true},
		{"$.user.address", `{"city":"Springfield"}`, true},
		{"$.tags[1]", `"b"`, true},
		{"$.tags[#-1]", `"b"`, true},
		{"$.gone", `null`, true},
		{"$", `{"gone":null,"tags":["a","b"],"user":{"address":{"city":"Springfield"}}}`, true},
		{"$.user.phone", "", false},
		{"$.tags[5]", "", false},
		{"$.tags.x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok, err := s.ExtractPath(context.Background(), "u", tt.path)
			if err != nil {
				t.Fatalf("ExtractPath() failed: %v", err)
			}
			if ok != tt.present {
				t.Fatalf("ExtractPath() present = %v, want %v", ok, tt.present)
			}
			if !ok {
				return
			}
			if s := string(value.MustMarshal(got)); s != tt.want {
				t.Errorf("ExtractPath() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestExtractPath_KeyNotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.ExtractPath(context.Background(), "nope", "$.a")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ExtractPath(nope) error = %v, want ErrNotFound", err)
	}
}

func TestExtractPathStrict(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "u", `{"a":null}`)
	ctx := context.Background()

	v, err := s.ExtractPathStrict(ctx, "u", "$.a")
	if err != nil {
		t.Fatalf("ExtractPathStrict($.a) failed: %v", err)
	}
	if _, ok := v.(value.Null); !ok {
		t.Errorf("ExtractPathStrict($.a) = %T, want value.Null", v)
	}

	_, err = s.ExtractPathStrict(ctx, "u", "$.b")
	if !errors.Is(err, ErrPathNotPresent) {
		t.Errorf("ExtractPathStrict($.b) error = %v, want ErrPathNotPresent", err)
	}
}

func TestArrayLength(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "u", `{"items":[1,2,3],"empty":[],"name":"x","nested":{"list":[[1],[2,3]]}}`)

	tests := []struct {
		path string
		want int
	}{
		{"$.items", 3},
		{"$.empty", 0},
		{"$.nested.list", 2},
		{"$.nested.list[1]", 2},
		{"$.name", 0},
		{"$.missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := s.ArrayLength(context.Background(), "u", tt.path)
			if err != nil {
				t.Fatalf("ArrayLength() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ArrayLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestArrayLength_KeyNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ArrayLength(context.Background(), "nope", "$.items")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ArrayLength(nope) error = %v, want ErrNotFound", err)
	}
}

func TestArrayLengthStrict(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "u", `{"items":[1,2,3],"empty":[],"name":"x"}`)
	ctx := context.Background()

	if n, err := s.ArrayLengthStrict(ctx, "u", "$.empty"); err != nil || n != 0 {
		t.Errorf("ArrayLengthStrict($.empty) = %d, %v; want 0, nil", n, err)
	}
	if _, err := s.ArrayLengthStrict(ctx, "u", "$.missing"); !errors.Is(err, ErrPathNotPresent) {
		t.Errorf("ArrayLengthStrict($.missing) error = %v, want ErrPathNotPresent", err)
	}
	if _, err := s.ArrayLengthStrict(ctx, "u", "$.name"); !errors.Is(err, ErrNotArray) {
		t.Errorf("ArrayLengthStrict($.name) error = %v, want ErrNotArray", err)
	}
}

func TestArrayLength_StrictOption(t *testing.T) {
	s := createTestStore(t, WithStrictArrayLength(true))
	mustPut(t, s, "u", `{"items":[1,2,3]}`)
	ctx := context.Background()

	if n, err := s.ArrayLength(ctx, "u", "$.items"); err != nil || n != 3 {
		t.Errorf("ArrayLength($.items) = %d, %v; want 3, nil", n, err)
	}
	if _, err := s.ArrayLength(ctx, "u", "$.missing"); !errors.Is(err, ErrPathNotPresent) {
		t.Errorf("ArrayLength($.missing) error = %v, want ErrPathNotPresent", err)
	}
}

func TestQueryPath_MatchesByNestedValue(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "user:2", `{"name":"Bob","address":{"city":"Shelbyville"}}`)
	mustPut(t, s, "user:1", `{"name":"Alice","address":{"city":"Springfield"}}`)
	mustPut(t, s, "user:3", `{"name":"Carol","address":{"city":"Springfield"}}`)
	mustPut(t, s, "user:4", `{"name":"Dan"}`)

	records, err := s.QueryPath(context.Background(), "$.address.city", value.String("Springfield"))
	if err != nil {
		t.Fatalf("QueryPath() failed: %v", err)
	}

	if got := recordKeys(records); !equalStrings(got, []string{"user:1", "user:3"}) {
		t.Errorf("QueryPath() keys = %v, want [user:1 user:3]", got)
	}
	if got := string(value.MustMarshal(records[0].Data)); got != `{"address":{"city":"Springfield"},"name":"Alice"}` {
		t.Errorf("QueryPath() first document = %s", got)
	}
}

func TestQueryPath_JSONEquality(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "int", `{"v":1}`)
	mustPut(t, s, "float", `{"v":1.0}`)
	mustPut(t, s, "str", `{"v":"1"}`)
	mustPut(t, s, "true", `{"v":true}`)
	mustPut(t, s, "null", `{"v":null}`)
	mustPut(t, s, "absent", `{"w":1}`)
	mustPut(t, s, "arr", `{"v":[1,{"b":2,"a":1}]}`)
	mustPut(t, s, "obj", `{"v":{"a":1,"b":[true]}}`)
	ctx := context.Background()

	tests := []struct {
		name string
		want value.Value
		keys []string
	}{
		{"number", value.Int(1), []string{"float", "int"}},
		{"float number", value.Float(1.0), []string{"float", "int"}},
		{"string", value.String("1"), []string{"str"}},
		{"bool", value.Bool(true), []string{"true"}},
		{"null", value.Null{}, []string{"null"}},
		{"array", value.MustDecode(`[1,{"a":1,"b":2}]`), []string{"arr"}},
		{"object", value.MustDecode(`{"b":[true],"a":1}`), []string{"obj"}},
		{"no match", value.String("nope"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.QueryPath(ctx, "$.v", tt.want)
			if err != nil {
				t.Fatalf("QueryPath() failed: %v", err)
			}
			if got := recordKeys(records); !equalStrings(got, tt.keys) {
				t.Errorf("QueryPath() keys = %v, want %v", got, tt.keys)
			}
		})
	}
}

func TestQueryPath_ObjectAfterUpdate(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "u", `{"v":{"b":2}}`)

	// json_set appends the new member after b
	if err := s.UpdatePath(context.Background(), "u", "$.v.a", value.Int(1)); err != nil {
		t.Fatalf("UpdatePath() failed: %v", err)
	}

	records, err := s.QueryPath(context.Background(), "$.v", value.MustDecode(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("QueryPath() failed: %v", err)
	}
	if got := recordKeys(records); !equalStrings(got, []string{"u"}) {
		t.Errorf("QueryPath() keys = %v, want [u]", got)
	}
}

func TestQueryPath_InvalidInput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.QueryPath(ctx, "city", value.String("x")); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("QueryPath(bad path) error = %v, want ErrInvalidPath", err)
	}
	if _, err := s.QueryPath(ctx, "$.city", nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("QueryPath(nil) error = %v, want ErrInvalidDocument", err)
	}
}

func TestSearchText(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "user:2", `{"hobbies":["photography","chess"]}`)
	mustPut(t, s, "user:1", `{"bio":"loves Photography and hiking"}`)
	mustPut(t, s, "user:3", `{"hobbies":["hiking"]}`)
	ctx := context.Background()

	records, err := s.SearchText(ctx, "photography")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if got := recordKeys(records); !equalStrings(got, []string{"user:1", "user:2"}) {
		t.Errorf("SearchText(photography) keys = %v, want [user:1 user:2]", got)
	}

	records, err = s.SearchText(ctx, "hiking")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if got := recordKeys(records); !equalStrings(got, []string{"user:1", "user:3"}) {
		t.Errorf("SearchText(hiking) keys = %v, want [user:1 user:3]", got)
	}
}

func TestSearchText_WildcardsAreLiteral(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "a", `{"tag":"50% off"}`)
	mustPut(t, s, "b", `{"tag":"500 off"}`)
	mustPut(t, s, "c", `{"path":"c:\\tmp","snake_case":true}`)
	ctx := context.Background()

	tests := []struct {
		term string
		want []string
	}{
		{"0%", []string{"a"}},
		{"%", []string{"a"}},
		{"_", []string{"c"}},
		{`\\`, []string{"c"}},
		{"SNAKE_CASE", []string{"c"}},
		{"0 OFF", []string{"b"}},
	}
	for _, tt := range tests {
		records, err := s.SearchText(ctx, tt.term)
		if err != nil {
			t.Fatalf("SearchText(%q) failed: %v", tt.term, err)
		}
		if got := recordKeys(records); !equalStrings(got, tt.want) {
			t.Errorf("SearchText(%q) keys = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestSearchText_FoldsASCIIOnly(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "k", `{"city":"ÜBERLINGEN"}`)
	ctx := context.Background()

	records, err := s.SearchText(ctx, "Überlingen")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("SearchText(Überlingen) returned %d records, want 1", len(records))
	}

	records, err = s.SearchText(ctx, "überlingen")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("SearchText(überlingen) returned %d records, want 0", len(records))
	}
}

func TestSearchText_MatchesSerializedText(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "k", `{"hobbies":[]}`)
	ctx := context.Background()

	// Object keys and punctuation are part of the searched text
	for _, term := range []string{"hobbies", `":[]`} {
		records, err := s.SearchText(ctx, term)
		if err != nil {
			t.Fatalf("SearchText(%q) failed: %v", term, err)
		}
		if len(records) != 1 {
			t.Errorf("SearchText(%q) returned %d records, want 1", term, len(records))
		}
	}
}

func TestSearchText_EmptyTermMatchesAll(t *testing.T) {
	s := createTestStore(t)
	mustPut(t, s, "b", `1`)
	mustPut(t, s, "a", `{}`)

	records, err := s.SearchText(context.Background(), "")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if got := recordKeys(records); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("SearchText(\"\") keys = %v, want [a b]", got)
	}
}

func TestSearchText_NoMatchIsEmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	records, err := s.SearchText(context.Background(), "anything")
	if err != nil {
		t.Fatalf("SearchText() failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("SearchText() = %#v, want empty non-nil slice", records)
	}
}

func TestKeys_Prefix(t *testing.T) {
	s := createTestStore(t)
	for _, k := range []string{"user:2", "order:1", "user:1", "user", "über:1"} {
		mustPut(t, s, k, `{}`)
	}
	ctx := context.Background()

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"order:1", "user", "user:1", "user:2", "über:1"}},
		{"user:", []string{"user:1", "user:2"}},
		{"über", []string{"über:1"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		got, err := s.Keys(ctx, tt.prefix)
		if err != nil {
			t.Fatalf("Keys(%q) failed: %v", tt.prefix, err)
		}
		if !equalStrings(got, tt.want) {
			t.Errorf("Keys(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestStat(t *testing.T) {
	s := createTestStore(t)
	before := time.Now().UTC().Add(-2 * time.Second)
	mustPut(t, s, "u", `{"b":2,"a":1}`)

	st, err := s.Stat(context.Background(), "u")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if st.Key != "u" {
		t.Errorf("Stat().Key = %q", st.Key)
	}
	if st.Size != len(`{"a":1,"b":2}`) {
		t.Errorf("Stat().Size = %d, want %d", st.Size, len(`{"a":1,"b":2}`))
	}
	if st.CreatedAt.Before(before) {
		t.Errorf("Stat().CreatedAt = %v, want after %v", st.CreatedAt, before)
	}

	digest, err := value.Digest(value.MustDecode(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("Digest() failed: %v", err)
	}
	if st.Digest != digest {
		t.Errorf("Stat().Digest = %s, want %s", st.Digest, digest)
	}

	if _, err := s.Stat(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat(nope) error = %v, want ErrNotFound", err)
	}
}

func TestCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Count() on empty store = %d, %v", n, err)
	}

	mustPut(t, s, "a", `1`)
	mustPut(t, s, "b", `2`)
	mustPut(t, s, "a", `3`)

	n, err = s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}
