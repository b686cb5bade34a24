// Package authapi exposes the HTTP surface of the auth subsystem:
// registration, login, single-use refresh rotation, logout, and the
// federated login callback.
//
// Access tokens travel in response bodies and Authorization headers.
// Refresh credentials travel only in an httpOnly cookie; they never
// appear in JSON responses.
package authapi
