package session

import (
	"os"
	"strconv"
	"time"

	sectoken "chirp/cmd/security/token"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls access-token TTL, refresh-credential policy, clock skew
// tolerance, refresh entropy size, and the JWT signing secret.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of signed access tokens.
	AccessTokenTTL time.Duration

	// RefreshTTL is the absolute lifetime of a refresh credential.
	RefreshTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// RefreshTokenBytes defines the number of random bytes used to
	// generate opaque refresh credentials (hex-encoded on the wire).
	RefreshTokenBytes int

	// JWTSecret signs access tokens. Required, min 32 bytes. It is passed
	// explicitly into the token manager, never read from ambient state there.
	JWTSecret []byte

	// RefreshHashKey optionally keys the refresh-credential digest
	// (HMAC-SHA256). Empty means plain SHA-256.
	RefreshHashKey []byte
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:            "chirp",
		AccessTokenTTL:    15 * time.Minute,
		RefreshTTL:        30 * 24 * time.Hour,
		ClockSkew:         30 * time.Second,
		RefreshTokenBytes: 64,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - CHIRP_JWT_SECRET (min 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - CHIRP_AUTH_ISSUER
//   - CHIRP_AUTH_ACCESS_TTL
//   - CHIRP_AUTH_REFRESH_TTL
//   - CHIRP_AUTH_CLOCK_SKEW
//   - CHIRP_AUTH_REFRESH_TOKEN_BYTES
//   - CHIRP_TOKEN_HMAC_KEY (min 32 bytes when set)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("CHIRP_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("CHIRP_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("CHIRP_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = d
	}

	if v := os.Getenv("CHIRP_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	if v := os.Getenv("CHIRP_AUTH_REFRESH_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > 128 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenBytes = n
	}

	cfg.JWTSecret = []byte(os.Getenv("CHIRP_JWT_SECRET"))
	if len(cfg.JWTSecret) < 32 {
		return Config{}, ErrConfig
	}

	if v := os.Getenv("CHIRP_TOKEN_HMAC_KEY"); v != "" {
		key := []byte(v)
		if err := sectoken.ValidateHMACKey(key, 32); err != nil {
			return Config{}, ErrConfig
		}
		cfg.RefreshHashKey = key
	}

	// Invariant: refresh credentials must outlive access tokens.
	if cfg.RefreshTTL <= cfg.AccessTokenTTL {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
