package password

import "errors"

// Stable sentinels. The auth API maps the policy failures to weak_password;
// ErrInvalidHash means a stored hash could not be decoded, which is a server
// bug or data corruption, never user error.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")
)
