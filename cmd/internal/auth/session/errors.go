package session

import "errors"

var (
	// ErrRefreshNotFound is returned when a refresh credential does not match
	// any ledger record (invalid, already rotated, or revoked).
	ErrRefreshNotFound = errors.New("refresh credential not found")

	// ErrRefreshExpired is returned when a credential matched a record that
	// was past its absolute expiry.
	ErrRefreshExpired = errors.New("refresh credential expired")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
