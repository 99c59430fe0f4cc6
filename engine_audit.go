package authcore

import (
	"context"
	"time"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginRateLimited       = "login_rate_limited"
	auditEventLoginDegraded          = "login_degraded"
	auditEventVerifyFailure          = "verify_failure"
	auditEventVerifyDegraded         = "verify_degraded"
	auditEventRefreshSuccess         = "refresh_success"
	auditEventRefreshFailure         = "refresh_failure"
	auditEventRefreshReuse           = "refresh_reuse_detected"
	auditEventLogout                 = "logout"
	auditEventStoreUnavailable       = "store_unavailable"
	auditEventAccountCreated         = "account_created"
	auditEventAccountCreationFailure = "account_creation_failure"
)

// emitAudit builds and dispatches one audit event. metadata is a lazy
// callback so successful hot paths pay nothing for it when audit is off.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Identity:  identity,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
