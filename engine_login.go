package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mvasiliev/authcore/internal"
	"github.com/mvasiliev/authcore/internal/rate"
)

// Login verifies credentials and establishes a session. The identifier may
// be a username or an email address. On success it returns an access token
// and a refresh artifact; any prior session for the same identity is
// superseded (single active session per identity).
//
// If the session store is unreachable, login still succeeds with a
// stateless access token and no refresh artifact — revocation and rotation
// are suspended until the store recovers, and the result carries
// Degraded=true.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil || e.userProvider == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "empty_input"}
		})
		return nil, ErrInvalidCredentials
	}

	if e.loginThrottle() {
		if err := e.rateLimiter.CheckLogin(ctx, identifier, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, func() map[string]string {
					return map[string]string{"identifier": identifier}
				})
				return nil, ErrLoginRateLimited
			}
			// Throttle counters live in the same store as sessions; if it
			// is out, fail open rather than blocking all logins.
			e.storeFault(ctx, "login_throttle", err)
		}
	}

	user, err := e.userProvider.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.recordLoginFailure(ctx, identifier, ip, "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	ok, err := e.passwordHash.Verify(secret, user.PasswordHash)
	if err != nil || !ok {
		e.recordLoginFailure(ctx, identifier, ip, "secret_mismatch")
		return nil, ErrInvalidCredentials
	}

	if e.loginThrottle() {
		if err := e.rateLimiter.ResetLogin(ctx, identifier, ip); err != nil {
			e.storeFault(ctx, "login_throttle", err)
		}
	}

	result, err := e.issueSession(ctx, user.Identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.Identity, nil, nil)
	return result, nil
}

func (e *Engine) loginThrottle() bool {
	return e.rateLimiter != nil && e.config.Security.EnableLoginThrottle
}

// recordLoginFailure burns one throttle attempt and reports the failure.
// The reason stays in the audit trail only; the caller always sees the same
// ErrInvalidCredentials regardless of which check failed.
func (e *Engine) recordLoginFailure(ctx context.Context, identifier, ip, reason string) {
	if e.loginThrottle() {
		if err := e.rateLimiter.IncrementLogin(ctx, identifier, ip); err != nil &&
			!errors.Is(err, rate.ErrRateLimited) {
			e.storeFault(ctx, "login_throttle", err)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"identifier": identifier, "reason": reason}
	})
}

// issueSession mints the token pair and persists the session record,
// overwriting any prior record for the identity. Minting happens before the
// store write, so a store failure late in the flow leaves the prior session
// intact rather than half-rotated.
func (e *Engine) issueSession(ctx context.Context, identity string) (*LoginResult, error) {
	access, err := e.jwtManager.Mint(identity)
	if err != nil {
		return nil, err
	}

	if !e.sessionStore.Enabled() {
		e.metricInc(MetricLoginDegraded)
		e.emitAudit(ctx, auditEventLoginDegraded, true, identity, nil, nil)
		return &LoginResult{Identity: identity, AccessToken: access, Degraded: true}, nil
	}

	artifact, err := internal.NewRefreshArtifact()
	if err != nil {
		return nil, err
	}

	err = e.sessionStore.Save(
		ctx,
		identity,
		internal.Fingerprint(access),
		internal.Fingerprint(artifact),
		e.config.JWT.AccessTTL,
		e.config.JWT.RefreshTTL,
	)
	if err != nil {
		// Availability over consistency: the caller gets a working access
		// token, but no refresh artifact, since one that was never
		// persisted could never be redeemed.
		e.storeFault(ctx, "login", err)
		e.metricInc(MetricLoginDegraded)
		e.emitAudit(ctx, auditEventLoginDegraded, true, identity, err, nil)
		return &LoginResult{Identity: identity, AccessToken: access, Degraded: true}, nil
	}

	e.metricInc(MetricSessionCreated)
	return &LoginResult{
		Identity:        identity,
		AccessToken:     access,
		RefreshArtifact: artifact,
	}, nil
}
