package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"chirp/cmd/internal/auth/token"
	sectoken "chirp/cmd/security/token"
)

// Service implements the high-level session operations for Chirp.
//
// It issues token pairs (access + refresh), validates access tokens, and
// performs single-use refresh rotation against the ledger.
type Service struct {
	cfg    Config
	tokens *token.Manager
	ledger Store
}

// Issued is the result of issuing or rotating a session.
// It includes a short-lived access token and an opaque refresh credential.
type Issued struct {
	UserID       string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// NewService constructs a Service from configuration and a ledger.
// The access-token manager is built here so the signing secret flows from
// Config only.
func NewService(cfg Config, ledger Store) (*Service, error) {
	if ledger == nil {
		return nil, ErrConfig
	}
	tokens, err := token.NewManager(token.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.Issuer,
		TTL:    cfg.AccessTokenTTL,
		Leeway: cfg.ClockSkew,
	})
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, tokens: tokens, ledger: ledger}, nil
}

// Issue mints a fresh token pair for userID and records the refresh
// credential in the ledger. The caller is responsible for having
// authenticated the principal.
func (s *Service) Issue(ctx context.Context, now time.Time, userID string) (Issued, error) {
	plain, hash, err := newOpaqueRefreshToken(s.cfg.RefreshTokenBytes, s.cfg.RefreshHashKey)
	if err != nil {
		return Issued{}, err
	}

	// Sign before touching the ledger: signing has no side effects, so a
	// signing failure cannot strand an orphaned ledger record.
	accessToken, accessExp, err := s.tokens.Issue(userID, now)
	if err != nil {
		return Issued{}, err
	}

	refreshExp := now.Add(s.cfg.RefreshTTL)
	if err := s.ledger.Create(ctx, Record{
		TokenHash: hash,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: refreshExp,
	}); err != nil {
		return Issued{}, err
	}

	return Issued{
		UserID:       userID,
		AccessToken:  accessToken,
		AccessExp:    accessExp,
		RefreshToken: plain,
		RefreshExp:   refreshExp,
	}, nil
}

// Rotate redeems a refresh credential and mints a successor pair.
//
// The credential is single-use: redemption removes it from the ledger
// atomically, so concurrent rotations of the same credential resolve to
// exactly one winner; the rest fail with ErrRefreshNotFound.
func (s *Service) Rotate(ctx context.Context, now time.Time, refreshPlain string) (Issued, error) {
	refreshPlain = strings.TrimSpace(refreshPlain)
	// Basic sanity bounds to avoid pathological inputs.
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return Issued{}, ErrRefreshNotFound
	}

	hash := sectoken.HashRefreshTokenHex(refreshPlain, s.cfg.RefreshHashKey)

	rec, err := s.ledger.Redeem(ctx, hash, now)
	if err != nil {
		return Issued{}, err
	}

	return s.Issue(ctx, now, rec.UserID)
}

// Revoke redeems a refresh credential purely for its delete side effect
// (logout from the presenting client). Unknown or expired credentials are
// not an error for logout purposes.
func (s *Service) Revoke(ctx context.Context, now time.Time, refreshPlain string) error {
	refreshPlain = strings.TrimSpace(refreshPlain)
	if refreshPlain == "" || len(refreshPlain) > 4096 {
		return nil
	}

	hash := sectoken.HashRefreshTokenHex(refreshPlain, s.cfg.RefreshHashKey)
	_, err := s.ledger.Redeem(ctx, hash, now)
	if errors.Is(err, ErrRefreshNotFound) || errors.Is(err, ErrRefreshExpired) {
		return nil
	}
	return err
}

// RevokeAll deletes every active refresh credential for a user (logout everywhere).
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	return s.ledger.RevokeAll(ctx, userID)
}

// VerifyAccess validates an access token and returns its claims.
// Stateless: signature + expiry only, no ledger lookup.
func (s *Service) VerifyAccess(raw string, now time.Time) (token.Claims, error) {
	return s.tokens.Verify(raw, now)
}

// PurgeExpired removes expired ledger records (periodic housekeeping).
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.ledger.PurgeExpired(ctx, now)
}
