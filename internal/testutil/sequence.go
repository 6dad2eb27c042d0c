// Package testutil holds deterministic stand-ins for the sources of
// variation in a run: event numbering and generated keys.
package testutil

import "sync/atomic"

// Sequence is a logical clock. Scenario traces number their events with it
// instead of wall-clock time, so the same scenario always produces
// byte-identical golden output. Safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next advances the sequence and returns the new value.
func (s *Sequence) Next() int64 {
	return s.n.Add(1)
}

// Current returns the last value handed out, 0 before the first Next.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

// Reset rewinds the sequence so the next call to Next returns 1.
func (s *Sequence) Reset() {
	s.n.Store(0)
}
