package authcore

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/mvasiliev/authcore/internal"
	"github.com/mvasiliev/authcore/internal/rate"
	"github.com/mvasiliev/authcore/session"
	"github.com/redis/go-redis/v9"
)

// Refresh redeems a refresh artifact for a new token pair. The presented
// artifact is single-use: rotation atomically installs the next pair, and a
// second redemption of the same artifact fails. Absent, expired, rotated-out,
// and never-issued artifacts are all rejected with the same
// [ErrRefreshInvalid].
//
// Refresh genuinely requires persistence, so an unreachable session store
// fails the call with [ErrStoreUnavailable] rather than degrading. That is a
// transient condition, distinct from an invalid artifact.
func (e *Engine) Refresh(ctx context.Context, artifact string) (*LoginResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	if err := internal.ValidateRefreshArtifact(artifact); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{"reason": "malformed_artifact"}
		})
		return nil, ErrRefreshInvalid
	}

	if !e.sessionStore.Enabled() {
		return nil, ErrStoreUnavailable
	}

	providedFP := internal.Fingerprint(artifact)

	if e.rateLimiter != nil && e.config.Security.EnableRefreshThrottle {
		if err := e.rateLimiter.CheckRefresh(ctx, hex.EncodeToString(providedFP[:])); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				return nil, ErrRefreshRateLimited
			}
			e.storeFault(ctx, "refresh_throttle", err)
		}
	}

	// The artifact carries no claims, so ownership is established by
	// scanning the refresh namespace for its fingerprint. O(live sessions);
	// see session.Store.FindIdentityByRefresh for the indexing follow-up.
	identity, err := e.sessionStore.FindIdentityByRefresh(ctx, providedFP)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, "", ErrRefreshInvalid, func() map[string]string {
				return map[string]string{"reason": "artifact_unknown"}
			})
			return nil, ErrRefreshInvalid
		}
		e.storeFault(ctx, "refresh", err)
		return nil, ErrStoreUnavailable
	}

	// Mint first, then swap in atomically: if anything past this point
	// fails, the prior session is still intact, never half-rotated.
	access, err := e.jwtManager.Mint(identity)
	if err != nil {
		return nil, err
	}
	nextArtifact, err := internal.NewRefreshArtifact()
	if err != nil {
		return nil, err
	}

	err = e.sessionStore.Rotate(
		ctx,
		identity,
		providedFP,
		internal.Fingerprint(nextArtifact),
		internal.Fingerprint(access),
		e.config.JWT.RefreshTTL,
		e.config.JWT.AccessTTL,
	)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRefreshMismatch):
			// The artifact matched during lookup but was rotated out
			// before the swap: a concurrent refresh won the race, or an
			// old value was replayed in the same window.
			e.metricInc(MetricRefreshReuseDetected)
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshReuse, false, identity, ErrRefreshInvalid, nil)
			return nil, ErrRefreshInvalid
		case errors.Is(err, redis.Nil):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, identity, ErrRefreshInvalid, func() map[string]string {
				return map[string]string{"reason": "session_absent"}
			})
			return nil, ErrRefreshInvalid
		default:
			e.storeFault(ctx, "refresh", err)
			return nil, ErrStoreUnavailable
		}
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, identity, nil, nil)
	return &LoginResult{
		Identity:        identity,
		AccessToken:     access,
		RefreshArtifact: nextArtifact,
	}, nil
}
