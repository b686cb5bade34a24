// Package password hashes and verifies user passwords with Argon2id.
//
// Hashes are stored as PHC strings, so the cost parameters travel with each
// hash and older hashes stay verifiable after a parameter bump. Registration
// input is checked against a policy (length plus character-class complexity)
// before any hashing happens. Stored hashes are treated as untrusted during
// Verify: malformed strings and hashes demanding outsized cost are rejected
// rather than computed.
package password
