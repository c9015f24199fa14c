package id

import (
	"crypto/rand"
	"encoding/hex"
)

const size = 32

// NewID32 returns exactly 32 lowercase hex characters (no separators/prefixes).
func NewID32() string {
	b := make([]byte, size/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// IsID32 reports whether s has the shape produced by NewID32. Upper-case
// hex is accepted for ids issued by partner systems.
func IsID32(s string) bool {
	if len(s) != size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
