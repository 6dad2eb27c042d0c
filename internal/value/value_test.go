package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = String("test")
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestKind(t *testing.T) {
	tests := []struct {
		v    Value
		kind Kind
		name string
	}{
		{Null{}, KindNull, "null"},
		{Bool(false), KindBool, "bool"},
		{Int(1), KindInt, "int"},
		{Float(1.5), KindFloat, "float"},
		{String(""), KindString, "string"},
		{Array{}, KindArray, "array"},
		{Object{}, KindObject, "object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.name, tt.kind.String())
		})
	}
	assert.True(t, KindInt.IsNumber())
	assert.True(t, KindFloat.IsNumber())
	assert.False(t, KindString.IsNumber())
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	// 'A' = 65, 'a' = 97
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestObjectSortedKeysSurrogatePairs(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF21
	// in UTF-16 even though its UTF-8 bytes sort after.
	obj := Object{
		"\U0001F600": Int(1),
		"\uFF21":     Int(2),
	}

	assert.Equal(t, []string{"\U0001F600", "\uFF21"}, obj.SortedKeys())
}

func TestNewObjectLaterPairWins(t *testing.T) {
	obj := NewObject(O("a", Int(1)), O("a", Int(2)), O("b", Null{}))

	assert.Equal(t, Object{"a": Int(2), "b": Null{}}, obj)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null{}, Null{}, true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"int", Int(3), Int(3), true},
		{"int float same", Int(5), Float(5), true},
		{"float int same", Float(5), Int(5), true},
		{"int float differ", Int(5), Float(5.5), false},
		{"large int vs float", Int(9007199254740993), Float(9007199254740992), false},
		{"string", String("x"), String("x"), true},
		{"string vs int", String("1"), Int(1), false},
		{"null vs empty string", Null{}, String(""), false},
		{"array order matters", Array{Int(1), Int(2)}, Array{Int(2), Int(1)}, false},
		{"array length", Array{Int(1)}, Array{Int(1), Int(1)}, false},
		{"object key order irrelevant",
			NewObject(O("a", Int(1)), O("b", Int(2))),
			NewObject(O("b", Int(2)), O("a", Int(1))), true},
		{"object missing key", Object{"a": Int(1)}, Object{"b": Int(1)}, false},
		{"nested", Object{"a": Array{Object{"b": Float(2)}}}, Object{"a": Array{Object{"b": Int(2)}}}, true},
		{"nil both", nil, nil, true},
		{"nil one", nil, Null{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
