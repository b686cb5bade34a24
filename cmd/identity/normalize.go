package identity

import "strings"

// fold is the canonical form used for uniqueness checks: surrounding
// whitespace removed, lower-cased. The *_norm columns store this form, so
// any change here needs a backfill.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername returns the canonical form of a username.
func NormalizeUsername(s string) string { return fold(s) }

// NormalizeEmail returns the canonical form of an email address.
func NormalizeEmail(s string) string { return fold(s) }
