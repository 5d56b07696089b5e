// Package resettoken generates opaque password-reset tokens. Only the sha256
// hash of a token is ever persisted; the plaintext exists solely in the reset
// link sent to the user.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TTL is the validity window of a reset token.
const TTL = 30 * time.Minute

const tokenBytes = 20

// Generate returns a fresh random token and its storage hash.
func Generate() (plaintext, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	plaintext = hex.EncodeToString(b)
	return plaintext, Hash(plaintext), nil
}

// Hash returns the hex-encoded sha256 digest of a plaintext token.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
