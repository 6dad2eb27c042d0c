package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"null", Null{}, "null"},
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(math.MaxInt64), "9223372036854775807"},
		{"min int64", Int(math.MinInt64), "-9223372036854775808"},
		{"float", Float(1.5), "1.5"},
		{"integral float", Float(5), "5"},
		{"large float", Float(1e21), "1e+21"},
		{"small float", Float(1e-7), "1e-7"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array", Array{Int(1), String("b"), Null{}}, `[1,"b",null]`},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalSortedNestedKeys(t *testing.T) {
	obj := Object{
		"z": Object{"b": Int(1), "a": Int(2)},
		"a": Int(3),
	}

	out, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(out))
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	out, err := Marshal(String("<a href=\"x\">&</a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a href=\"x\">&</a>"`, string(out))
}

func TestMarshalLineSeparatorsLiteral(t *testing.T) {
	out, err := Marshal(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(out))
}

func TestMarshalEscapedBackslashBeforeU2028Text(t *testing.T) {
	// Literal backslash followed by the text "u2028" must stay escaped.
	out, err := Marshal(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(out))

	back, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, String(`\u2028`), back)
}

func TestMarshalNonASCIILiteral(t *testing.T) {
	out, err := Marshal(Object{"city": String("Zürich")})
	require.NoError(t, err)
	assert.Equal(t, `{"city":"Zürich"}`, string(out))
}

func TestMarshalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Marshal(Object{"x": Array{Float(f)}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	}
}

func TestMarshalRejectsInvalidUTF8(t *testing.T) {
	inputs := []Value{
		String("a\xffb"),
		Object{"s": String("\xc3")},
		Object{"bad\xfekey": Int(1)},
		Array{Object{"a": Array{String("ok"), String("\xed\xa0\x80")}}},
	}

	for _, v := range inputs {
		_, err := Marshal(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	}

	out, err := Marshal(String("Zoë 😀"))
	require.NoError(t, err)
	assert.Equal(t, `"Zoë 😀"`, string(out))
}

func TestMarshalRejectsNil(t *testing.T) {
	_, err := Marshal(Array{nil})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDecodeNumberNormalization(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"5", Int(5)},
		{"-0", Int(0)},
		{"5.0", Float(5)},
		{"5.5", Float(5.5)},
		{"1e3", Float(1000)},
		{"9223372036854775807", Int(math.MaxInt64)},
		{"9223372036854775808", Float(9223372036854775808)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DecodeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind(), got.Kind())
			assert.True(t, Equal(tt.want, got))
		})
	}
}

func TestDecodeIntegralFloatRoundTripsAsInt(t *testing.T) {
	out, err := Marshal(Float(5))
	require.NoError(t, err)

	got, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, Int(5), got)
	assert.True(t, Equal(Float(5), got))
}

func TestDecodeRoundTrip(t *testing.T) {
	doc := Object{
		"user": Object{
			"name": String("John Doe"),
			"address": Object{
				"city":    String("Springfield"),
				"zipcode": String("12345"),
			},
			"preferences": Object{
				"theme":         String("dark"),
				"notifications": Object{"email": Bool(true), "push": Bool(false)},
			},
			"hobbies": Array{String("reading"), String("hiking"), String("photography")},
			"score":   Float(4.25),
			"age":     Int(42),
			"manager": Null{},
		},
	}

	out, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Decode(out)
	require.NoError(t, err)
	assert.True(t, Equal(doc, back))
	assert.Equal(t, doc, back)
}

func TestDecodeErrors(t *testing.T) {
	for _, input := range []string{"", "{", `{"a":1} {"b":2}`, "nope", "[1,]"} {
		t.Run(input, func(t *testing.T) {
			_, err := DecodeString(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestJSONMarshalerIntegration(t *testing.T) {
	rec := struct {
		Key  string `json:"key"`
		Data Value  `json:"data"`
	}{
		Key:  "u1",
		Data: Object{"b": Null{}, "a": Array{Float(1.5), Int(2)}},
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"u1","data":{"a":[1.5,2],"b":null}}`, string(out))
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{"n":1,"f":1.25,"s":"x"}`), &obj))
	assert.Equal(t, Object{"n": Int(1), "f": Float(1.25), "s": String("x")}, obj)

	err := json.Unmarshal([]byte(`[1]`), &obj)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestArrayUnmarshalJSON(t *testing.T) {
	var arr Array
	require.NoError(t, json.Unmarshal([]byte(`[1,"a",null]`), &arr))
	assert.Equal(t, Array{Int(1), String("a"), Null{}}, arr)
}
