// Package authcore implements a credential-based session lifecycle engine: it
// issues JWT access tokens, rotates opaque refresh artifacts, and verifies and
// revokes sessions against a Redis-backed session store that may be absent or
// fail independently of the user directory.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (LoginResult, AuthResult, MetricsSnapshot). Token encoding
// lives in jwt/, storage in session/, password hashing in password/, and
// shared helpers under internal/. None of those packages import authcore.
//
// # Degraded mode
//
// The session store is deliberately optional. When it is unreachable (or was
// never configured), token verification falls back to signature+expiry alone
// and login returns a stateless access token without a refresh artifact.
// Revocation and rotation are suspended until the store recovers. This trades
// revocation guarantees for availability; every result produced in this mode
// carries Degraded=true and bumps the degraded-mode metrics so operators can
// see it happening.
package authcore
