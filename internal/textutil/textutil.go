package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// Hash computes a SHA-256 hex digest of a string.
func Hash(s string) string {
	return HashBytes([]byte(s))
}

// HashBytes computes a SHA-256 hex digest, used to key cached results by save content.
func HashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Truncate shortens s to at most maxLen bytes without splitting a rune, appending "..." if cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
