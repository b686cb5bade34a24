package token

import "errors"

var (
	// ErrHMACKeyTooShort is returned when a configured HMAC key does not meet the minimum length.
	ErrHMACKeyTooShort = errors.New("token hmac key too short")
)
