// Package session implements Chirp's refresh-credential lifecycle.
//
// A session is a rotating pair: a short-lived signed access token and a
// long-lived opaque refresh credential. Refresh credentials are single-use;
// redeeming one atomically removes it from the ledger and mints a fresh
// pair, so a replayed credential always fails. Only a digest of the
// credential is persisted.
package session
