package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger implements Store on the chirp.refresh_tokens table.
//
// Redeem is a single DELETE ... RETURNING statement, so rotation safety
// comes from the database: two requests racing to redeem the same hash see
// exactly one row deleted.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger constructs a PostgresLedger. The pool is owned by the caller.
func NewPostgresLedger(pool *pgxpool.Pool) (*PostgresLedger, error) {
	if pool == nil {
		return nil, errors.New("session: nil pool")
	}
	return &PostgresLedger{pool: pool}, nil
}

func (l *PostgresLedger) Create(ctx context.Context, rec Record) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO chirp.refresh_tokens (token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, rec.TokenHash, rec.UserID, rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (l *PostgresLedger) Redeem(ctx context.Context, tokenHash string, now time.Time) (Record, error) {
	var rec Record
	err := l.pool.QueryRow(ctx, `
		DELETE FROM chirp.refresh_tokens
		WHERE token_hash = $1
		RETURNING token_hash, user_id, created_at, expires_at
	`, tokenHash).Scan(&rec.TokenHash, &rec.UserID, &rec.CreatedAt, &rec.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRefreshNotFound
	}
	if err != nil {
		return Record{}, err
	}

	if !rec.ExpiresAt.After(now) {
		return Record{}, ErrRefreshExpired
	}
	return rec, nil
}

func (l *PostgresLedger) RevokeAll(ctx context.Context, userID string) error {
	_, err := l.pool.Exec(ctx, `
		DELETE FROM chirp.refresh_tokens
		WHERE user_id = $1
	`, userID)
	return err
}

func (l *PostgresLedger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx, `
		DELETE FROM chirp.refresh_tokens
		WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
