package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken is returned when a token cannot be parsed or its
	// signature does not verify.
	ErrMalformedToken = errors.New("malformed access token")

	// ErrExpiredToken is returned when a structurally valid token is past
	// its expiry.
	ErrExpiredToken = errors.New("expired access token")

	// ErrConfig is returned for invalid manager configuration.
	ErrConfig = errors.New("invalid token config")
)

// Claims is the identity envelope embedded in access tokens.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config controls access token issuance and verification.
type Config struct {
	// Secret signs and verifies tokens. Required, min 32 bytes.
	Secret []byte

	// Issuer is the value set in the "iss" claim.
	Issuer string

	// TTL is the access token lifetime.
	TTL time.Duration

	// Leeway tolerates minor clock differences during verification.
	Leeway time.Duration
}

// Manager issues and verifies short-lived access tokens.
// It is safe for concurrent use; the secret is never mutated after construction.
type Manager struct {
	cfg Config
}

type accessClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and constructs a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrConfig
	}
	if cfg.TTL <= 0 {
		return nil, ErrConfig
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, ErrConfig
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "chirp"
	}
	return &Manager{cfg: cfg}, nil
}

// Issue mints a signed access token for userID expiring TTL from now.
func (m *Manager) Issue(userID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.cfg.TTL)

	claims := accessClaims{
		UID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks the signature and expiry of raw at time now and returns the
// embedded claims. It is a pure function of (raw, now, secret); no I/O.
func (m *Manager) Verify(raw string, now time.Time) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.cfg.Leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims accessClaims
	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.cfg.Secret, nil
	})
	if err != nil {
		// Expiry is the only rejection callers may act on differently
		// (client renewal); everything else is malformed.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrMalformedToken
	}

	if claims.UID == "" {
		return Claims{}, ErrMalformedToken
	}

	out := Claims{UserID: claims.UID}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
