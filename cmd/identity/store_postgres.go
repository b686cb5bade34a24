package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore implements Store on top of the chirp.users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore. The pool is owned by the caller.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateUser persists a new user. Duplicate username/email map to ConflictError
// via the unique constraints on username_norm / email_norm.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	if err := validateCreateUser(in); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	u := User{
		ID:        NewULID(),
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now,
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chirp.users (
			id, username, username_norm, email, email_norm,
			password_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, NormalizeUsername(u.Username), u.Email, NormalizeEmail(u.Email), hash, now)
	if err != nil {
		return User{}, mapCreateUserError(err)
	}

	return u, nil
}

func mapCreateUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_norm_key":
			return ConflictError{Op: "identity.CreateUser", Field: "username"}
		case "users_email_norm_key":
			return ConflictError{Op: "identity.CreateUser", Field: "email"}
		default:
			return ConflictError{Op: "identity.CreateUser"}
		}
	}
	return err
}

// GetUserByID loads a user row by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, email, display_name, bio, profile_picture, created_at
		FROM chirp.users
		WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: "identity.GetUserByID", Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserAuthByEmail loads a user plus password hash by normalized email.
func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	var (
		u    User
		hash string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, display_name, bio, profile_picture, created_at, password_hash
		FROM chirp.users
		WHERE email_norm = $1
	`, NormalizeEmail(email)).Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Bio, &u.ProfilePicture, &u.CreatedAt, &hash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAuth{}, OpError{Op: "identity.GetUserAuthByEmail", Kind: ErrNotFound}
	}
	if err != nil {
		return UserAuth{}, err
	}
	return UserAuth{User: u, PasswordHash: hash}, nil
}

// UpdateProfile applies non-nil fields and returns the updated row.
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE chirp.users
		SET display_name    = COALESCE($2, display_name),
		    bio             = COALESCE($3, bio),
		    profile_picture = COALESCE($4, profile_picture)
		WHERE id = $1
		RETURNING id, username, email, display_name, bio, profile_picture, created_at
	`, userID, in.DisplayName, in.Bio, in.ProfilePicture)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: "identity.UpdateProfile", Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &u.Bio, &u.ProfilePicture, &u.CreatedAt)
	return u, err
}
