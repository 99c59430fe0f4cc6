package authcore

import (
	"context"
	"log"
	"time"

	"github.com/mvasiliev/authcore/internal/rate"
	"github.com/mvasiliev/authcore/jwt"
	"github.com/mvasiliev/authcore/password"
	"github.com/mvasiliev/authcore/session"
)

// Engine is the session lifecycle manager. It orchestrates the credential
// verifier, token codec, and session store into one consistent flow set:
// Login, Verify, Refresh, Logout, and CreateAccount.
//
// Engine holds no in-process session state; everything lives in the session
// store. All methods are safe for concurrent use after [Builder.Build].
type Engine struct {
	config       Config
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	jwtManager   *jwt.Manager
	passwordHash *password.Argon2
	userProvider UserProvider
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// StoreEnabled reports whether a session store was configured at all. When
// false, the engine runs permanently in stateless-JWT-only mode.
func (e *Engine) StoreEnabled() bool {
	return e != nil && e.sessionStore.Enabled()
}

// StorePing checks session store reachability. Intended for health
// endpoints; flow code never calls it and instead reacts to per-operation
// faults.
func (e *Engine) StorePing(ctx context.Context) (time.Duration, error) {
	if !e.StoreEnabled() {
		return 0, ErrStoreUnavailable
	}
	latency, err := e.sessionStore.Ping(ctx)
	if err != nil {
		return latency, ErrStoreUnavailable
	}
	return latency, nil
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of every engine counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// storeFault records one observed session store outage. Callers decide
// separately whether the flow degrades or fails.
func (e *Engine) storeFault(ctx context.Context, flow string, cause error) {
	e.metricInc(MetricStoreUnavailable)
	e.emitAudit(ctx, auditEventStoreUnavailable, false, "", cause, func() map[string]string {
		return map[string]string{"flow": flow}
	})
	log.Printf("authcore: session store unavailable during %s: %v", flow, cause)
}
