package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a dev-only fallback when DB is not configured. It mirrors
// the PostgresStore contract, including uniqueness on normalized username
// and email.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]*memUser
	byName map[string]string // username_norm -> id
	byMail map[string]string // email_norm -> id
}

type memUser struct {
	user User
	hash string
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*memUser),
		byName: make(map[string]string),
		byMail: make(map[string]string),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	if err := validateCreateUser(in); err != nil {
		return User{}, err
	}
	if err := ctx.Err(); err != nil {
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

	nameNorm := NormalizeUsername(in.Username)
	mailNorm := NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[nameNorm]; ok {
		return User{}, ConflictError{Op: "identity.CreateUser", Field: "username"}
	}
	if _, ok := s.byMail[mailNorm]; ok {
		return User{}, ConflictError{Op: "identity.CreateUser", Field: "email"}
	}

	u := User{
		ID:        NewULID(),
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now,
	}
	s.byID[u.ID] = &memUser{user: u, hash: hash}
	s.byName[nameNorm] = u.ID
	s.byMail[mailNorm] = u.ID

	return u, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return User{}, OpError{Op: "identity.GetUserByID", Kind: ErrNotFound}
	}
	return m.user, nil
}

func (s *MemoryStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	if err := ctx.Err(); err != nil {
		return UserAuth{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byMail[NormalizeEmail(email)]
	if !ok {
		return UserAuth{}, OpError{Op: "identity.GetUserAuthByEmail", Kind: ErrNotFound}
	}
	m := s.byID[id]
	return UserAuth{User: m.user, PasswordHash: m.hash}, nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[userID]
	if !ok {
		return User{}, OpError{Op: "identity.UpdateProfile", Kind: ErrNotFound}
	}
	if in.DisplayName != nil {
		m.user.DisplayName = in.DisplayName
	}
	if in.Bio != nil {
		m.user.Bio = in.Bio
	}
	if in.ProfilePicture != nil {
		m.user.ProfilePicture = in.ProfilePicture
	}
	return m.user, nil
}
