package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(DefaultCost)

	digest, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", digest)
	assert.True(t, h.Verify("s3cret-pass", digest))
	assert.False(t, h.Verify("wrong-pass", digest))
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(DefaultCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestNewHasher_RaisesLowCost(t *testing.T) {
	h := NewHasher(4)

	digest, err := h.Hash("password")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, cost)
}

func TestNewHasher_CapsHighCost(t *testing.T) {
	h := NewHasher(bcrypt.MaxCost + 1)

	assert.Equal(t, bcrypt.MaxCost, h.cost)
}

func TestHasher_TooLong(t *testing.T) {
	h := NewHasher(DefaultCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestHasher_VerifyGarbageDigest(t *testing.T) {
	h := NewHasher(DefaultCost)

	assert.False(t, h.Verify("password", "not-a-digest"))
	h.DummyVerify("password")
}
