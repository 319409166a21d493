package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureRandomString returns n random bytes from crypto/rand as a hex
// string of 2n characters. Service-token ids and secrets are built from this,
// so the source must be the OS entropy pool, never math/rand.
func GenerateSecureRandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("random string byte length must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read from entropy source: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
