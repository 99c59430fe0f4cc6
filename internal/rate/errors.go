package rate

import "errors"

// ErrRateLimited is returned when a counter exceeds its budget.
var ErrRateLimited = errors.New("rate limited")

// ErrRedisUnavailable wraps Redis transport faults. Callers decide whether a
// throttle outage fails open or closed.
var ErrRedisUnavailable = errors.New("redis unavailable")
