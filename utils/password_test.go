package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", hash)
	assert.NotContains(t, hash, "pw123")
	assert.True(t, CheckPasswordHash("pw123", hash))
	assert.False(t, CheckPasswordHash("pw124", hash))
	assert.False(t, CheckPasswordHash("pw123", "not-a-hash"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashPasswordDefaultCost(t *testing.T) {
	hash, err := HashPassword("pw", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}
