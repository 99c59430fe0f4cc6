package authcore

import (
	"context"
	"errors"

	"github.com/mvasiliev/authcore/internal"
	"github.com/mvasiliev/authcore/jwt"
	"github.com/redis/go-redis/v9"
)

// Verify validates a presented access token. Signature or structural
// failures return [ErrTokenInvalid]; a correctly signed but expired token
// returns [ErrTokenExpired] so the caller can route to the refresh flow.
//
// When the session store is reachable, the stored fingerprint must still
// match the presented token: a valid signature alone does not survive
// logout or a superseding login. When the store is unreachable, Verify
// accepts on signature+expiry alone and marks the result Degraded.
func (e *Engine) Verify(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.jwtManager.Parse(accessToken)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", ErrTokenInvalid, nil)
		return nil, ErrTokenInvalid
	}
	identity := claims.UID

	if !e.sessionStore.Enabled() {
		e.metricInc(MetricVerifyDegraded)
		return &AuthResult{Identity: identity, Degraded: true}, nil
	}

	stored, err := e.sessionStore.GetAccess(ctx, identity)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// No record: the session was logged out, superseded, or
			// expired. The token's own validity no longer matters.
			e.metricInc(MetricVerifyFailure)
			e.emitAudit(ctx, auditEventVerifyFailure, false, identity, ErrSessionNotFound, func() map[string]string {
				return map[string]string{"reason": "session_absent"}
			})
			return nil, ErrSessionNotFound
		}
		e.storeFault(ctx, "verify", err)
		e.metricInc(MetricVerifyDegraded)
		e.emitAudit(ctx, auditEventVerifyDegraded, true, identity, err, nil)
		return &AuthResult{Identity: identity, Degraded: true}, nil
	}

	if !internal.FingerprintEqual(stored, internal.Fingerprint(accessToken)) {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, identity, ErrSessionNotFound, func() map[string]string {
			return map[string]string{"reason": "session_superseded"}
		})
		return nil, ErrSessionNotFound
	}

	e.metricInc(MetricVerifySuccess)
	return &AuthResult{Identity: identity}, nil
}
