package timeline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements Store on top of the chirp.tweets tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore. The pool is owned by the caller.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("timeline: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const tweetColumns = `
	t.id, t.author_id, t.content, t.retweet_of, t.created_at,
	(SELECT count(*) FROM chirp.tweet_likes l WHERE l.tweet_id = t.id),
	(SELECT count(*) FROM chirp.tweet_retweets r WHERE r.tweet_id = t.id)
`

func scanTweet(row pgx.Row) (Tweet, error) {
	var t Tweet
	err := row.Scan(&t.ID, &t.AuthorID, &t.Content, &t.RetweetOf, &t.CreatedAt, &t.LikeCount, &t.RetweetCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tweet{}, ErrNotFound
	}
	if err != nil {
		return Tweet{}, err
	}
	return t, nil
}

func (s *PostgresStore) CreateTweet(ctx context.Context, id, authorID, content string, now time.Time) (Tweet, error) {
	content, err := validateContent(content)
	if err != nil {
		return Tweet{}, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chirp.tweets (id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, authorID, content, now)
	if err != nil {
		return Tweet{}, err
	}

	return Tweet{ID: id, AuthorID: authorID, Content: content, CreatedAt: now}, nil
}

func (s *PostgresStore) GetTweet(ctx context.Context, id string) (Tweet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+tweetColumns+`
		FROM chirp.tweets t
		WHERE t.id = $1
	`, id)
	return scanTweet(row)
}

func (s *PostgresStore) ListTweets(ctx context.Context, q ListQuery) ([]Tweet, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	// ULIDs are time-ordered, so ID order is creation order.
	query := `
		SELECT ` + tweetColumns + `
		FROM chirp.tweets t
	`
	args := []any{}
	if search := strings.TrimSpace(q.Search); search != "" {
		query += ` WHERE t.content ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	args = append(args, limit)
	query += ` ORDER BY t.id DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tweet
	for rows.Next() {
		var t Tweet
		if err := rows.Scan(&t.ID, &t.AuthorID, &t.Content, &t.RetweetOf, &t.CreatedAt, &t.LikeCount, &t.RetweetCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteTweet(ctx context.Context, id, authorID string) error {
	var owner string
	err := s.pool.QueryRow(ctx, `
		SELECT author_id FROM chirp.tweets WHERE id = $1
	`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != authorID {
		return ErrNotOwner
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM chirp.tweets WHERE id = $1 AND author_id = $2`, id, authorID)
	return err
}

func (s *PostgresStore) Like(ctx context.Context, tweetID, userID string, now time.Time) (Tweet, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chirp.tweet_likes (tweet_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, tweetID, userID, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return Tweet{}, ErrAlreadyLiked
			case pgForeignKeyViolation:
				return Tweet{}, ErrNotFound
			}
		}
		return Tweet{}, err
	}
	return s.GetTweet(ctx, tweetID)
}

func (s *PostgresStore) Retweet(ctx context.Context, newID, tweetID, userID string, now time.Time) (Tweet, error) {
	src, err := s.GetTweet(ctx, tweetID)
	if err != nil {
		return Tweet{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Tweet{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO chirp.tweet_retweets (tweet_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, tweetID, userID, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return Tweet{}, ErrAlreadyRetweeted
			case pgForeignKeyViolation:
				return Tweet{}, ErrNotFound
			}
		}
		return Tweet{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chirp.tweets (id, author_id, content, retweet_of, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, newID, userID, src.Content, src.ID, now)
	if err != nil {
		return Tweet{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Tweet{}, err
	}

	ref := src.ID
	return Tweet{
		ID:        newID,
		AuthorID:  userID,
		Content:   src.Content,
		RetweetOf: &ref,
		CreatedAt: now,
	}, nil
}
