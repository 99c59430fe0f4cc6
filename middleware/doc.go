// Package middleware exposes an HTTP adapter for bearer-token enforcement
// built on top of authcore.Engine verification.
//
// [Guard] reads the Authorization header, calls Engine.Verify, and injects
// the validated result into the request context. An expired token gets a
// distinct WWW-Authenticate hint so well-behaved clients know to try the
// refresh flow before re-prompting for credentials.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.Verify.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Verify.
package middleware
