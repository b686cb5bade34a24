package session

import (
	"context"
	"sync"
	"time"
)

// MemoryLedger is a dev-mode Store used when no database is configured,
// and the unit-test double for the Postgres ledger. Redeem deletes under
// the mutex, which gives the same exactly-one-winner guarantee as the SQL
// DELETE ... RETURNING.
type MemoryLedger struct {
	mu   sync.Mutex
	recs map[string]Record
}

// NewMemoryLedger constructs an in-memory Store implementation.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{recs: make(map[string]Record)}
}

func (l *MemoryLedger) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs[rec.TokenHash] = rec
	return nil
}

func (l *MemoryLedger) Redeem(ctx context.Context, tokenHash string, now time.Time) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.recs[tokenHash]
	if !ok {
		return Record{}, ErrRefreshNotFound
	}
	delete(l.recs, tokenHash)

	if !rec.ExpiresAt.After(now) {
		return Record{}, ErrRefreshExpired
	}
	return rec, nil
}

func (l *MemoryLedger) RevokeAll(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for hash, rec := range l.recs {
		if rec.UserID == userID {
			delete(l.recs, hash)
		}
	}
	return nil
}

func (l *MemoryLedger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for hash, rec := range l.recs {
		if !rec.ExpiresAt.After(now) {
			delete(l.recs, hash)
			n++
		}
	}
	return n, nil
}

// Len reports the number of active records (test helper).
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}
