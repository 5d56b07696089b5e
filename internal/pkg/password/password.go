package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hash returns the bcrypt digest of plaintext. The salt is generated
// internally, so hashing the same plaintext twice yields different digests.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A wrong password returns
// (false, nil); a malformed digest returns (false, err) so callers can tell
// an internal failure apart from a plain mismatch.
func Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
