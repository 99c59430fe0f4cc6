// Package session implements the Redis adapter for session state: two
// TTL-keyed entries per identity (access-token fingerprint and
// refresh-artifact fingerprint) plus the atomic rotation primitive.
//
// # Key layout
//
//	<prefix>:access:<identity>   SHA-256 fingerprint of the current access token
//	<prefix>:refresh:<identity>  SHA-256 fingerprint of the current refresh artifact
//
// Each key carries a TTL equal to the corresponding artifact's lifetime, so
// natural expiry needs no sweeper. Deleting the keys is what makes
// revocation effective; the store never holds a replayable secret.
//
// # Availability
//
// All operations are best-effort. Transport faults surface as
// [ErrRedisUnavailable]; a Store constructed without a Redis client reports
// Enabled() == false. The Engine, not this package, decides which flows
// degrade and which fail when the store is out.
//
// # What this package must NOT do
//
//   - Parse or create JWTs or refresh artifacts.
//   - Decide degraded-mode policy.
//   - Import authcore or jwt.
package session
