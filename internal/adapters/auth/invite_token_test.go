package auth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteTokenCodec_GenerateToken(t *testing.T) {
	c := NewInviteTokenCodec()
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		token, err := c.GenerateToken()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, token, "token should be 64 hex characters")
		_, dup := seen[token]
		assert.False(t, dup, "tokens should not repeat")
		seen[token] = struct{}{}
	}
}

func TestInviteTokenCodec_HashToken(t *testing.T) {
	c := NewInviteTokenCodec()

	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", c.HashToken("abc"))
	assert.Equal(t, c.HashToken("token-1"), c.HashToken("token-1"))
	assert.NotEqual(t, c.HashToken("token-1"), c.HashToken("token-2"))
}

func TestInviteTokenCodec_hash_differs_from_token(t *testing.T) {
	c := NewInviteTokenCodec()
	token, err := c.GenerateToken()
	require.NoError(t, err)

	assert.NotEqual(t, token, c.HashToken(token))
}
