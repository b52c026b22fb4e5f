package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// MagicLinkExpiry is how long a sign-in link stays valid.
const MagicLinkExpiry = 15 * time.Minute

// NewMagicLinkToken returns a fresh single-use token and the hash to persist.
// Only the hash is stored; the token itself goes out in the link.
func NewMagicLinkToken() (token, hash string) {
	token = uuid.NewString()
	return token, HashMagicLinkToken(token)
}

// HashMagicLinkToken returns the storage form of a sign-in token.
func HashMagicLinkToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
