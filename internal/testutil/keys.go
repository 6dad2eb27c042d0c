package testutil

import (
	"fmt"

	"github.com/roach88/nestdoc/internal/store"
)

var _ store.KeyGenerator = (*SequenceKeyGenerator)(nil)

// SequenceKeyGenerator generates keys "<prefix>-0001", "<prefix>-0002", ...
//
// Unlike store.FixedGenerator it never runs out, which suits scenarios that
// add an unknown number of documents but still need deterministic keys.
//
// Thread-safety: SequenceKeyGenerator is safe for concurrent use.
type SequenceKeyGenerator struct {
	prefix string
	seq    *Sequence
}

// NewSequenceKeyGenerator creates a generator for prefix.
// If prefix is empty, keys start with "doc".
func NewSequenceKeyGenerator(prefix string) *SequenceKeyGenerator {
	if prefix == "" {
		prefix = "doc"
	}
	return &SequenceKeyGenerator{prefix: prefix, seq: NewSequence()}
}

// Generate returns the next key in the sequence.
//
// Implements store.KeyGenerator.
func (g *SequenceKeyGenerator) Generate() (string, error) {
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq.Next()), nil
}
