// Package rate implements Redis-backed attempt throttling for login and
// refresh flows: fixed-window counters with a cooldown TTL per identifier,
// IP, and artifact fingerprint.
//
// # Architecture boundaries
//
// This package owns counter bookkeeping only. Which flows are throttled, and
// how limit hits map to caller-facing errors, is decided by the Engine.
package rate
