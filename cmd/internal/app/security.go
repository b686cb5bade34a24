package app

import (
	"errors"
	"os"

	"chirp/cmd/security/token"
)

// ValidateSecurityConfig enforces Chirp's security policy at startup.
// Fail-fast: silently falling back to weaker hashing in production is not
// acceptable, so a missing or short HMAC key is a startup error when the
// policy requires one.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	key := []byte(os.Getenv("CHIRP_TOKEN_HMAC_KEY"))
	if len(key) == 0 {
		return errors.New("security policy: CHIRP_REQUIRE_TOKEN_HMAC=true but CHIRP_TOKEN_HMAC_KEY is missing")
	}
	if err := token.ValidateHMACKey(key, 32); err != nil {
		if errors.Is(err, token.ErrHMACKeyTooShort) {
			return errors.New("security policy: CHIRP_REQUIRE_TOKEN_HMAC=true but CHIRP_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		}
		return err
	}
	return nil
}
