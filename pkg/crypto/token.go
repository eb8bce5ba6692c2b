package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// MinTokenBytes is the smallest accepted token size (128 bits).
const MinTokenBytes = 16

var (
	ErrTokenTooShort = errors.New("token must carry at least 16 random bytes")

	randomRead = rand.Read
)

// GenerateRandomToken returns n random bytes encoded as unpadded base64url,
// which is safe to embed in URLs and cookies as is.
func GenerateRandomToken(n int) (string, error) {
	if n < MinTokenBytes {
		return "", ErrTokenTooShort
	}
	b := make([]byte, n)
	if _, err := randomRead(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRandomHex returns n random bytes hex encoded.
func GenerateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := randomRead(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex BLAKE2b-256 digest of a token. Stores keep only digests.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualTokens compares two token strings in constant time.
func EqualTokens(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
