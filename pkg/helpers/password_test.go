package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("S3cret!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!pass", hash)

	assert.True(t, VerifyPassword(hash, "S3cret!pass"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", "S3cret!pass"))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same-input")
	require.NoError(t, err)
	h2, err := HashPassword("same-input")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
