// Package token provides hashing helpers for opaque credentials.
//
// Refresh credentials are high-entropy random strings shown to the client
// exactly once; only a digest is ever persisted server-side. Keys are passed
// explicitly so tests and deployments can inject distinct secrets.
package token
