package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testService(t *testing.T) (*Service, *MemoryLedger) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.JWTSecret = []byte("0123456789abcdef0123456789abcdef")
	cfg.ClockSkew = 0

	ledger := NewMemoryLedger()
	svc, err := NewService(cfg, ledger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, ledger
}

func TestIssueThenVerify(t *testing.T) {
	svc, ledger := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(issued.RefreshToken) != 128 {
		t.Fatalf("expected 128 hex chars of refresh credential, got %d", len(issued.RefreshToken))
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected one ledger record, got %d", ledger.Len())
	}

	claims, err := svc.VerifyAccess(issued.AccessToken, now)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected user id: %q", claims.UserID)
	}

	// At and after expiry the token must be rejected as expired.
	if _, err := svc.VerifyAccess(issued.AccessToken, issued.AccessExp); err == nil {
		t.Fatalf("expected rejection at expiry")
	}
}

func TestRotateSingleUse(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	next, err := svc.Rotate(ctx, now.Add(time.Minute), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if next.UserID != "user-1" {
		t.Fatalf("rotation changed user: %q", next.UserID)
	}
	if next.RefreshToken == issued.RefreshToken {
		t.Fatalf("rotation must mint a new credential")
	}

	// Replay of the redeemed credential must fail.
	if _, err := svc.Rotate(ctx, now.Add(2*time.Minute), issued.RefreshToken); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound on replay, got %v", err)
	}

	// The successor still works.
	if _, err := svc.Rotate(ctx, now.Add(3*time.Minute), next.RefreshToken); err != nil {
		t.Fatalf("successor rotation: %v", err)
	}
}

func TestRotateExpiredCredential(t *testing.T) {
	svc, ledger := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	after := now.Add(30*24*time.Hour + time.Second)
	if _, err := svc.Rotate(ctx, after, issued.RefreshToken); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("expected ErrRefreshExpired, got %v", err)
	}
	// The expired record is consumed either way.
	if ledger.Len() != 0 {
		t.Fatalf("expected expired record to be removed")
	}
}

func TestRotateGarbageInput(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, in := range []string{"", "   ", "deadbeef", string(make([]byte, 5000))} {
		if _, err := svc.Rotate(ctx, now, in); !errors.Is(err, ErrRefreshNotFound) {
			t.Fatalf("Rotate(%d bytes): expected ErrRefreshNotFound, got %v", len(in), err)
		}
	}
}

func TestConcurrentRotationExactlyOneWinner(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const redeemers = 32

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		mu    sync.Mutex
		wins  int
		fails int
	)

	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Rotate(ctx, now.Add(time.Minute), issued.RefreshToken)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrRefreshNotFound):
				fails++
			default:
				t.Errorf("unexpected rotation error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if fails != redeemers-1 {
		t.Fatalf("expected %d clean failures, got %d", redeemers-1, fails)
	}
}

func TestRevokeAll(t *testing.T) {
	svc, ledger := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(ctx, now, "user-1"); err != nil {
			t.Fatalf("Issue: %v", err)
		}
	}
	other, err := svc.Issue(ctx, now, "user-2")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected only user-2's record to survive, got %d", ledger.Len())
	}
	if _, err := svc.Rotate(ctx, now.Add(time.Minute), other.RefreshToken); err != nil {
		t.Fatalf("user-2 rotation must still work: %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, ledger := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	issued, err := svc.Issue(ctx, now, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.Revoke(ctx, now, issued.RefreshToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if ledger.Len() != 0 {
		t.Fatalf("expected record removed")
	}
	// Second revoke of the same credential is a no-op.
	if err := svc.Revoke(ctx, now, issued.RefreshToken); err != nil {
		t.Fatalf("repeat Revoke: %v", err)
	}
	if err := svc.Revoke(ctx, now, ""); err != nil {
		t.Fatalf("empty Revoke: %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	svc, ledger := testService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.Issue(ctx, now.Add(-31*24*time.Hour), "user-1"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Issue(ctx, now, "user-2"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	n, err := svc.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 || ledger.Len() != 1 {
		t.Fatalf("expected one purged record, got n=%d len=%d", n, ledger.Len())
	}
}

// createFailLedger rejects every write. Used to verify Issue surfaces ledger
// failures and leaves no half-issued state behind.
type createFailLedger struct {
	createErr error
}

func (l *createFailLedger) Create(context.Context, Record) error { return l.createErr }

func (l *createFailLedger) Redeem(context.Context, string, time.Time) (Record, error) {
	return Record{}, ErrRefreshNotFound
}

func (l *createFailLedger) RevokeAll(context.Context, string) error { return nil }

func (l *createFailLedger) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func TestIssueLedgerFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = []byte("0123456789abcdef0123456789abcdef")

	wantErr := errors.New("ledger down")
	svc, err := NewService(cfg, &createFailLedger{createErr: wantErr})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	issued, err := svc.Issue(context.Background(), time.Now().UTC(), "user-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected ledger error, got %v", err)
	}
	if issued.AccessToken != "" || issued.RefreshToken != "" {
		t.Fatalf("expected no tokens on ledger failure, got %+v", issued)
	}
}
