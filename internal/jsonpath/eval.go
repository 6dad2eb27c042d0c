package jsonpath

import (
	"github.com/roach88/nestdoc/internal/value"
)

// Get returns the value at p within doc.
// The boolean is false when the path does not resolve. A JSON null that is
// present returns (value.Null{}, true).
func Get(doc value.Value, p Path) (value.Value, bool) {
	cur := doc
	for _, seg := range p.Segments {
		switch sg := seg.(type) {
		case Member:
			obj, ok := cur.(value.Object)
			if !ok {
				return nil, false
			}
			next, ok := obj[sg.Name]
			if !ok {
				return nil, false
			}
			cur = next
		case Index, FromEnd:
			arr, ok := cur.(value.Array)
			if !ok {
				return nil, false
			}
			pos := position(sg, len(arr))
			if pos < 0 || pos >= len(arr) {
				return nil, false
			}
			cur = arr[pos]
		}
	}
	return cur, cur != nil
}

// Set returns a copy of doc with the value at p replaced by v.
// doc is not modified; unchanged subtrees are shared with the result.
// The boolean reports whether the document changed shape; when false the
// returned document is doc itself.
func Set(doc value.Value, p Path, v value.Value) (value.Value, bool) {
	return set(doc, p.Segments, v)
}

func set(cur value.Value, segs []Segment, v value.Value) (value.Value, bool) {
	if len(segs) == 0 {
		return v, true
	}

	switch sg := segs[0].(type) {
	case Member:
		obj, ok := cur.(value.Object)
		if !ok {
			return cur, false
		}
		var child value.Value
		if existing, found := obj[sg.Name]; found {
			child, ok = set(existing, segs[1:], v)
		} else {
			child, ok = create(segs[1:], v)
		}
		if !ok {
			return cur, false
		}
		out := make(value.Object, len(obj)+1)
		for k, e := range obj {
			out[k] = e
		}
		out[sg.Name] = child
		return out, true

	case Index, FromEnd:
		arr, ok := cur.(value.Array)
		if !ok {
			return cur, false
		}
		pos := position(sg, len(arr))
		switch {
		case pos >= 0 && pos < len(arr):
			child, ok := set(arr[pos], segs[1:], v)
			if !ok {
				return cur, false
			}
			out := make(value.Array, len(arr))
			copy(out, arr)
			out[pos] = child
			return out, true
		case pos == len(arr):
			child, ok := create(segs[1:], v)
			if !ok {
				return cur, false
			}
			out := make(value.Array, len(arr), len(arr)+1)
			copy(out, arr)
			return append(out, child), true
		}
	}
	return cur, false
}

// create builds the container chain for segs ending in v.
func create(segs []Segment, v value.Value) (value.Value, bool) {
	if len(segs) == 0 {
		return v, true
	}

	child, ok := create(segs[1:], v)
	if !ok {
		return nil, false
	}
	switch sg := segs[0].(type) {
	case Member:
		return value.Object{sg.Name: child}, true
	case Index:
		if sg.N == 0 {
			return value.Array{child}, true
		}
	case FromEnd:
		if sg.N == 0 {
			return value.Array{child}, true
		}
	}
	return nil, false
}

// position maps an array segment to an index for an array of length n.
func position(seg Segment, n int) int {
	switch sg := seg.(type) {
	case Index:
		return sg.N
	case FromEnd:
		return n - sg.N
	}
	return -1
}

// ArrayLength returns the length of the array at p.
// present is false when the path does not resolve; isArray is false when it
// resolves to something other than an array.
func ArrayLength(doc value.Value, p Path) (n int, present, isArray bool) {
	v, ok := Get(doc, p)
	if !ok {
		return 0, false, false
	}
	arr, ok := v.(value.Array)
	if !ok {
		return 0, true, false
	}
	return len(arr), true, true
}
