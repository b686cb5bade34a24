// Package token issues and verifies Chirp's short-lived access tokens.
//
// Tokens are HS256-signed JWTs carrying the user identifier. Validity is
// proven purely by signature and expiry; nothing is persisted. The signing
// secret is injected through Config at construction, never read from
// ambient process state, so tests can run with distinct secrets.
package token
