package value

import (
	"errors"
	"math"
	"slices"
	"unicode/utf16"
)

// ErrInvalidDocument is returned when a value cannot be represented as JSON.
var ErrInvalidDocument = errors.New("invalid document")

// Value is a sealed interface over the JSON value kinds.
type Value interface {
	Kind() Kind
	value() // Sealed - only this package implements it
}

// Kind identifies the JSON kind of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// IsNumber reports whether the kind is Int or Float.
func (k Kind) IsNumber() bool {
	return k == KindInt || k == KindFloat
}

// Null represents a JSON null. Using an explicit type keeps nil out of documents.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}

// Bool represents a JSON boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// Int represents an integral JSON number.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}

// Float represents a non-integral or out-of-range JSON number.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (Float) value()     {}

// String represents a JSON string.
type String string

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Array represents a JSON array.
type Array []Value

func (Array) Kind() Kind { return KindArray }
func (Array) value()     {}

// Object represents a JSON object.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) Kind() Kind { return KindObject }
func (Object) value()     {}

// Pair is a key-value pair for Object construction.
type Pair struct {
	Key   string
	Value Value
}

// O is a shorthand for Pair.
// Example: NewObject(O("city", String("Springfield")), O("zip", Int(12345)))
func O(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewObject creates an Object from pairs. Later pairs win on duplicate keys.
func NewObject(pairs ...Pair) Object {
	obj := make(Object, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

// NewArray creates an Array from values.
func NewArray(vals ...Value) Array {
	return Array(vals)
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's native string order compares UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Equal reports whether a and b are the same JSON value.
// Int and Float compare numerically; object key order is irrelevant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind().IsNumber() && b.Kind().IsNumber() {
		return numericEqual(a, b)
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case String:
		return av == b.(String)
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv := b.(Object)
		if len(av) != len(bv) {
			return false
		}
		for k, ae := range av {
			be, ok := bv[k]
			if !ok || !Equal(ae, be) {
				return false
			}
		}
		return true
	}
	return false
}

func numericEqual(a, b Value) bool {
	ai, aInt := a.(Int)
	bi, bInt := b.(Int)
	if aInt && bInt {
		return ai == bi
	}
	af, bf := toFloat(a), toFloat(b)
	if aInt {
		// Guard against precision loss for large ints compared to floats.
		return bf == math.Trunc(bf) && bf >= -(1<<63) && bf < 1<<63 && int64(bf) == int64(ai)
	}
	if bInt {
		return af == math.Trunc(af) && af >= -(1<<63) && af < 1<<63 && int64(af) == int64(bi)
	}
	return af == bf
}

func toFloat(v Value) float64 {
	switch n := v.(type) {
	case Int:
		return float64(n)
	case Float:
		return float64(n)
	}
	return math.NaN()
}
