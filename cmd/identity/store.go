package identity

import (
	"context"
	"time"
)

// User is Chirp's canonical security principal.
type User struct {
	ID       string
	Username string
	Email    string

	DisplayName    *string
	Bio            *string
	ProfilePicture *string

	CreatedAt time.Time
}

// UserAuth pairs a user with its stored password hash for login checks.
// The hash must never be serialized into API responses.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration request.
// Password is the plain password; it is validated and hashed before storage.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Now      time.Time
}

// UpdateProfileInput carries optional profile mutations; nil fields are left unchanged.
type UpdateProfileInput struct {
	DisplayName    *string
	Bio            *string
	ProfilePicture *string
}

// Store is the identity persistence boundary.
type Store interface {
	// CreateUser validates input, hashes the password, and persists the user.
	// Returns ConflictError (field "username" or "email") on duplicates.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID loads a user by ID. Returns ErrNotFound when missing.
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserAuthByEmail loads a user plus password hash by normalized email.
	// Returns ErrNotFound when missing.
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)

	// UpdateProfile applies non-nil fields and returns the updated user.
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (User, error)
}

func validateCreateUser(in CreateUserInput) error {
	if NormalizeUsername(in.Username) == "" {
		return OpError{Op: "identity.CreateUser", Kind: ErrInvalidInput, Msg: "username required"}
	}
	if NormalizeEmail(in.Email) == "" {
		return OpError{Op: "identity.CreateUser", Kind: ErrInvalidInput, Msg: "email required"}
	}
	if in.Password == "" {
		return OpError{Op: "identity.CreateUser", Kind: ErrInvalidInput, Msg: "password required"}
	}
	return nil
}
