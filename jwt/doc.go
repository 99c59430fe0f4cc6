// Package jwt implements the access-token codec: minting and parsing signed,
// self-describing tokens that carry a subject identity and expiry.
//
// # Token format
//
// Standard JWS tokens (Ed25519 or HS256) with a subject identity claim, a
// uuid JTI, issued-at, and expiry. Tokens are never stored server-side; the
// session store holds only a fingerprint for revocation checks.
//
// # Architecture boundaries
//
// Parse and Mint are pure functions of input plus the process-wide key
// configuration. No I/O, no clock injection beyond the standard library.
// Revocation against the session store is the Engine's job, not this
// package's.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import authcore or session.
//   - Silently default a missing signing key.
package jwt
