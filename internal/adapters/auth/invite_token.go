package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"eventregistration/internal/domain"
)

const inviteTokenBytes = 32

type inviteTokenCodec struct{}

// NewInviteTokenCodec returns a codec producing 32-byte hex tokens whose storage key
// is their SHA-256 hex digest.
func NewInviteTokenCodec() domain.InviteTokenCodec {
	return inviteTokenCodec{}
}

func (inviteTokenCodec) GenerateToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (inviteTokenCodec) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
