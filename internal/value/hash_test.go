package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestStable(t *testing.T) {
	a := NewObject(O("a", Int(1)), O("b", Array{String("x")}))
	b := NewObject(O("b", Array{String("x")}), O("a", Int(1)))

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Len(t, da, 64)
}

func TestDigestDiffers(t *testing.T) {
	da, err := Digest(Object{"a": Int(1)})
	require.NoError(t, err)
	db, err := Digest(Object{"a": Int(2)})
	require.NoError(t, err)

	assert.NotEqual(t, da, db)
}

func TestDigestDomainSeparated(t *testing.T) {
	got, err := Digest(Int(1))
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainDocument, []byte("1")), got)
	assert.NotEqual(t, hashWithDomain("other/v1", []byte("1")), got)
}

func TestDigestInvalid(t *testing.T) {
	_, err := Digest(Array{nil})
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
