package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotContains(t, digest, "secret1")
	assert.True(t, strings.HasPrefix(digest, prehashPrefix))
	assert.True(t, h.Verify("secret1", digest))
	assert.False(t, h.Verify("secret2", digest))
	assert.False(t, h.Verify("", digest))
}

func TestBcryptHasher_FreshSaltPerCall(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same", first))
	assert.True(t, h.Verify("same", second))
}

func TestBcryptHasher_LongPasswordsAreNotTruncated(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	base := strings.Repeat("a", 200)

	digest, err := h.Hash(base + "X")
	require.NoError(t, err)

	assert.True(t, h.Verify(base+"X", digest))
	assert.False(t, h.Verify(base+"Y", digest), "difference past byte 72 must matter")
	assert.False(t, h.Verify(base, digest))
}

func TestBcryptHasher_VerifiesLegacyDigest(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewBcryptHasher(bcrypt.MinCost)
	assert.True(t, h.Verify("secret1", string(legacy)))
	assert.False(t, h.Verify("secret2", string(legacy)))
}

func TestBcryptHasher_RejectsGarbageDigest(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("secret1", ""))
	assert.False(t, h.Verify("secret1", "$b3not-a-digest"))
	assert.False(t, h.Verify("secret1", "plaintext"))
}

func TestNewBcryptHasher_DefaultsInvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(64).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
