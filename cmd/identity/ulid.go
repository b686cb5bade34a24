package identity

import "github.com/oklog/ulid/v2"

// NewULID returns a new ULID (26-char string) for user and entity IDs.
func NewULID() string {
	return ulid.Make().String()
}
