package session

import (
	"crypto/rand"
	"encoding/hex"

	sectoken "chirp/cmd/security/token"
)

// newOpaqueRefreshToken returns a fresh refresh credential: nBytes of
// crypto/rand, hex-encoded, plus the digest persisted in the ledger.
// The plain credential must never be stored or logged.
func newOpaqueRefreshToken(nBytes int, hashKey []byte) (plain string, hashHex string, err error) {
	b := make([]byte, nBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}

	plain = hex.EncodeToString(b)
	hashHex = sectoken.HashRefreshTokenHex(plain, hashKey)

	return plain, hashHex, nil
}
