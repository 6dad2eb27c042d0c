package jsonpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path expression does not parse.
var ErrInvalidPath = errors.New("invalid JSON path")

// Segment is one step of a Path.
// This is a sealed interface: only Member, Index and FromEnd implement it.
type Segment interface {
	segment()
}

// Member selects an object member by name.
type Member struct {
	Name string
}

func (Member) segment() {}

// Index selects an array element counting from the front.
type Index struct {
	N int
}

func (Index) segment() {}

// FromEnd selects an array element counting from the back: [#-N].
// N == 0 is [#], the append position.
type FromEnd struct {
	N int
}

func (FromEnd) segment() {}

// Path is a parsed JSON path expression.
type Path struct {
	Segments []Segment
}

// Root is the path addressing the whole document.
var Root = Path{}

// IsRoot reports whether p addresses the whole document.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// Parse parses a path expression such as "$.user.address.city" or "$.tags[0]".
func Parse(s string) (Path, error) {
	if !strings.HasPrefix(s, "$") {
		return Path{}, fmt.Errorf("%w: %q must start with '$'", ErrInvalidPath, s)
	}

	var segs []Segment
	i := 1
	for i < len(s) {
		switch s[i] {
		case '.':
			seg, next, err := parseMember(s, i+1)
			if err != nil {
				return Path{}, err
			}
			segs = append(segs, seg)
			i = next
		case '[':
			seg, next, err := parseIndex(s, i+1)
			if err != nil {
				return Path{}, err
			}
			segs = append(segs, seg)
			i = next
		default:
			return Path{}, fmt.Errorf("%w: %q: unexpected %q at offset %d", ErrInvalidPath, s, s[i], i)
		}
	}
	return Path{Segments: segs}, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with constant paths.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// parseMember parses a member name starting at s[i] (just after the dot).
func parseMember(s string, i int) (Segment, int, error) {
	if i < len(s) && s[i] == '"' {
		end := strings.IndexByte(s[i+1:], '"')
		if end < 0 {
			return nil, 0, fmt.Errorf("%w: %q: unterminated quoted member", ErrInvalidPath, s)
		}
		return Member{Name: s[i+1 : i+1+end]}, i + end + 2, nil
	}

	j := i
	for j < len(s) && s[j] != '.' && s[j] != '[' {
		if s[j] == '"' {
			return nil, 0, fmt.Errorf("%w: %q: quote inside unquoted member at offset %d", ErrInvalidPath, s, j)
		}
		j++
	}
	if j == i {
		return nil, 0, fmt.Errorf("%w: %q: empty member name at offset %d", ErrInvalidPath, s, i)
	}
	return Member{Name: s[i:j]}, j, nil
}

// parseIndex parses an array subscript starting at s[i] (just after '[').
func parseIndex(s string, i int) (Segment, int, error) {
	end := strings.IndexByte(s[i:], ']')
	if end < 0 {
		return nil, 0, fmt.Errorf("%w: %q: unterminated subscript", ErrInvalidPath, s)
	}
	body := s[i : i+end]
	next := i + end + 1

	if body == "#" {
		return FromEnd{N: 0}, next, nil
	}
	if rest, ok := strings.CutPrefix(body, "#-"); ok {
		n, err := parseDigits(rest)
		if err != nil || n == 0 {
			return nil, 0, fmt.Errorf("%w: %q: bad subscript [%s]", ErrInvalidPath, s, body)
		}
		return FromEnd{N: n}, next, nil
	}
	n, err := parseDigits(body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q: bad subscript [%s]", ErrInvalidPath, s, body)
	}
	return Index{N: n}, next, nil
}

func parseDigits(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.Atoi(s)
}

// String renders p in the syntax Parse accepts.
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range p.Segments {
		switch sg := seg.(type) {
		case Member:
			b.WriteByte('.')
			if strings.ContainsAny(sg.Name, ".[\"") || sg.Name == "" {
				b.WriteByte('"')
				b.WriteString(sg.Name)
				b.WriteByte('"')
			} else {
				b.WriteString(sg.Name)
			}
		case Index:
			fmt.Fprintf(&b, "[%d]", sg.N)
		case FromEnd:
			if sg.N == 0 {
				b.WriteString("[#]")
			} else {
				fmt.Fprintf(&b, "[#-%d]", sg.N)
			}
		}
	}
	return b.String()
}

// Child returns a new path with seg appended.
func (p Path) Child(seg Segment) Path {
	segs := make([]Segment, len(p.Segments), len(p.Segments)+1)
	copy(segs, p.Segments)
	return Path{Segments: append(segs, seg)}
}
