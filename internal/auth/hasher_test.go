package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-catalog/internal/auth"
)

func TestHasherRoundTrip(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret1")

	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Verify(hash, "secret1"))
	assert.False(t, h.Verify(hash, "secret2"))
	assert.False(t, h.Verify("not-a-hash", "secret1"))
}

func TestHasherSaltsEachHash(t *testing.T) {
	h := auth.NewHasher(bcrypt.MinCost)
	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewHasherFallsBackToDefaultCost(t *testing.T) {
	hash, err := auth.NewHasher(0).Hash("secret1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
