package authcore

import (
	"context"
	"errors"

	"github.com/mvasiliev/authcore/internal"
	"github.com/redis/go-redis/v9"
)

// Logout deletes the session record for the caller's identity, making both
// the access token and the refresh artifact immediately unusable regardless
// of their remaining lifetimes. Either credential resolves the identity:
// an access token (an expired one is still accepted here — its identity is
// exactly what is needed to find the record to delete) or, when the token
// is absent or unreadable, a refresh artifact matched against the live
// refresh namespace. A forged or malformed credential resolves nothing.
//
// Logout is idempotent from the caller's perspective: unresolvable
// credentials or an already-absent session still ack, so clients can always
// clear their local state. Only a reachable-store failure while an identity
// was still being resolved or deleted is surfaced, as [ErrStoreUnavailable].
func (e *Engine) Logout(ctx context.Context, accessToken, refreshArtifact string) error {
	if e == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}

	if accessToken == "" && refreshArtifact == "" {
		return nil
	}

	identity := ""
	if accessToken != "" {
		if claims, err := e.jwtManager.ParseAllowExpired(accessToken); err == nil {
			identity = claims.UID
		}
	}

	if !e.sessionStore.Enabled() {
		e.emitAudit(ctx, auditEventLogout, true, identity, nil, func() map[string]string {
			return map[string]string{"reason": "store_disabled"}
		})
		return nil
	}

	if identity == "" && refreshArtifact != "" {
		if err := internal.ValidateRefreshArtifact(refreshArtifact); err == nil {
			fp := internal.Fingerprint(refreshArtifact)
			resolved, err := e.sessionStore.FindIdentityByRefresh(ctx, fp)
			switch {
			case err == nil:
				identity = resolved
			case errors.Is(err, redis.Nil):
				// Unknown or already-rotated artifact; nothing to delete.
			default:
				e.storeFault(ctx, "logout", err)
				return ErrStoreUnavailable
			}
		}
	}

	if identity == "" {
		// No identity to resolve; nothing to delete. Ack anyway.
		e.emitAudit(ctx, auditEventLogout, true, "", nil, func() map[string]string {
			return map[string]string{"reason": "identity_unresolved"}
		})
		return nil
	}

	if err := e.sessionStore.Delete(ctx, identity); err != nil {
		e.storeFault(ctx, "logout", err)
		return ErrStoreUnavailable
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogout, true, identity, nil, nil)
	return nil
}
