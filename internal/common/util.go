package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomSecret returns n random bytes encoded as hex (2n characters).
func RandomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Wipe zeroes b in place. Passwords read from the terminal are wiped once
// they have been sent.
func Wipe(b []byte) {
	clear(b)
}
