package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HashRefreshTokenHex hashes refresh credentials for server-side storage.
// Behavior:
// - With a non-empty key, uses HMAC-SHA256(token, key).
// - With an empty key, falls back to SHA-256(token) for dev setups.
func HashRefreshTokenHex(token string, key []byte) string {
	if len(key) == 0 {
		return HashSHA256Hex(token)
	}
	return HashHMACSHA256Hex(token, key)
}

// ValidateHMACKey enforces a minimum byte length for a configured key.
// An empty key is allowed (hashing falls back to plain SHA-256).
func ValidateHMACKey(key []byte, minBytes int) error {
	if len(key) == 0 {
		return nil
	}
	if minBytes > 0 && len(key) < minBytes {
		return ErrHMACKeyTooShort
	}
	return nil
}
