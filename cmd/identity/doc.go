// Package identity owns Chirp's security principals: user records, their
// credentials, and the persistence boundary used by the auth endpoints.
//
// The plain password never leaves this package's hashing helpers; stores
// persist only the encoded Argon2id hash.
package identity
