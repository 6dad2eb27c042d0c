package querysql

import (
	"bytes"
	"strings"

	"github.com/roach88/nestdoc/internal/jsonpath"
	"github.com/roach88/nestdoc/internal/value"
)

// Predicate represents a filter over stored documents.
//
// This is a sealed interface: only PathEquals, TextContains, KeyPrefix and
// And implement it.
type Predicate interface {
	predicateNode()
}

// PathEquals matches documents whose value at Path equals Value under JSON
// equality: same type and value, numbers compared numerically. A document
// where Path does not resolve never matches.
type PathEquals struct {
	Path  jsonpath.Path
	Value value.Value
}

func (PathEquals) predicateNode() {}

// TextContains matches documents whose stored JSON text contains Term.
// ASCII letters match regardless of case; other characters match exactly.
// The match is not path-aware.
type TextContains struct {
	Term string
}

func (TextContains) predicateNode() {}

// KeyPrefix matches keys starting with Prefix. An empty prefix matches all.
type KeyPrefix struct {
	Prefix string
}

func (KeyPrefix) predicateNode() {}

// And matches when all predicates match. An empty And matches everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// NeedsRecheck reports whether matches of p must be confirmed in Go.
// True when p contains a PathEquals on an array or object value.
func NeedsRecheck(p Predicate) bool {
	switch pred := p.(type) {
	case PathEquals:
		k := pred.Value.Kind()
		return k == value.KindArray || k == value.KindObject
	case And:
		for _, sub := range pred.Predicates {
			if NeedsRecheck(sub) {
				return true
			}
		}
	}
	return false
}

// Matches evaluates p against an in-memory document.
// It is the reference semantics the compiled SQL must agree with.
func Matches(p Predicate, key string, doc value.Value, text []byte) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case PathEquals:
		got, ok := jsonpath.Get(doc, pred.Path)
		return ok && value.Equal(got, pred.Value)
	case TextContains:
		return containsFoldASCII(text, []byte(pred.Term))
	case KeyPrefix:
		return strings.HasPrefix(key, pred.Prefix)
	case And:
		for _, sub := range pred.Predicates {
			if !Matches(sub, key, doc, text) {
				return false
			}
		}
		return true
	}
	return false
}

// containsFoldASCII reports whether sub occurs in b, folding only A-Z.
func containsFoldASCII(b, sub []byte) bool {
	return bytes.Contains(lowerASCII(b), lowerASCII(sub))
}

func lowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
