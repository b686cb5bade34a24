package session

import (
	"context"
	"time"
)

// Record is one active refresh credential in the ledger.
type Record struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store abstracts persistence for refresh credentials.
//
// Implementations must make Redeem atomic: under concurrent redemption of
// the same credential, exactly one caller receives the record; every other
// caller observes absence. This is the single-use (anti-replay) property
// the refresh protocol depends on.
type Store interface {
	// Create inserts a new ledger record.
	Create(ctx context.Context, rec Record) error

	// Redeem deletes the record for tokenHash and returns it.
	// Returns ErrRefreshNotFound when no record exists and
	// ErrRefreshExpired when the removed record was past expiry at now.
	// Either way the record is gone afterwards.
	Redeem(ctx context.Context, tokenHash string, now time.Time) (Record, error)

	// RevokeAll deletes every record belonging to userID (logout everywhere).
	RevokeAll(ctx context.Context, userID string) error

	// PurgeExpired removes records whose expiry is at or before now and
	// reports how many were removed. Housekeeping only; redemption already
	// rejects expired records.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
