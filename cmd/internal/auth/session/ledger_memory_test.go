package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLedgerRedeemRemovesRecord(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now().UTC()

	rec := Record{TokenHash: "h1", UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := l.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := l.Redeem(ctx, "h1", now)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := l.Redeem(ctx, "h1", now); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound after redemption, got %v", err)
	}
}

func TestMemoryLedgerRedeemExpiredConsumes(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	now := time.Now().UTC()

	rec := Record{TokenHash: "h1", UserID: "u1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	if err := l.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := l.Redeem(ctx, "h1", now); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("expected ErrRefreshExpired, got %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expired record must be consumed")
	}
}

func TestMemoryLedgerHonorsContext(t *testing.T) {
	l := NewMemoryLedger()
	now := time.Now().UTC()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Create(ctx, Record{TokenHash: "h1"}); err == nil {
		t.Fatalf("expected context error from Create")
	}
	if _, err := l.Redeem(ctx, "h1", now); err == nil {
		t.Fatalf("expected context error from Redeem")
	}
	if err := l.RevokeAll(ctx, "u1"); err == nil {
		t.Fatalf("expected context error from RevokeAll")
	}
	if _, err := l.PurgeExpired(ctx, now); err == nil {
		t.Fatalf("expected context error from PurgeExpired")
	}
}
