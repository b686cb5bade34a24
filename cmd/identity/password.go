package identity

import (
	"errors"

	"chirp/cmd/security/password"
)

// Password policy errors surfaced to the API layer.
var (
	ErrPasswordPolicy = errors.New("password does not meet policy")
)

// HashPassword validates the password against the configured policy and
// returns a PHC-style Argon2id hash string.
func HashPassword(plain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return "", err
	}

	enc, err := cfg.Hash(plain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort),
			errors.Is(err, password.ErrPasswordTooLong),
			errors.Is(err, password.ErrWeakPassword):
			return "", ErrPasswordPolicy
		default:
			return "", err
		}
	}
	return enc, nil
}

// VerifyPassword checks a password against a stored Argon2id hash.
// Malformed hashes verify as false without error detail leaking to callers.
func VerifyPassword(plain, encodedPHC string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	ok, err := cfg.Verify(encodedPHC, plain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
