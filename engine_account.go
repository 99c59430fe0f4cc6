package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateAccountRequest carries the signup form fields. Username and Email
// are distinct lookup namespaces; both must be unique across the combined
// identifier space.
type CreateAccountRequest struct {
	Username string
	Email    string
	Password string
}

// CreateAccountResult is returned by [Engine.CreateAccount]. Tokens is
// populated only when Config.Account.AutoLogin is set.
type CreateAccountResult struct {
	Identity string
	Tokens   *LoginResult
}

// CreateAccount registers a new user: uniqueness check across both
// identifier namespaces, password hashing, directory insert, and (when
// configured) an automatic first login.
func (e *Engine) CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResult, error) {
	if e == nil || e.passwordHash == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}
	if !e.config.Account.Enabled {
		return nil, ErrAccountCreationDisabled
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", ErrAccountCreationInvalid, func() map[string]string {
			return map[string]string{"username": req.Username, "reason": "invalid_identifiers"}
		})
		return nil, ErrAccountCreationInvalid
	}
	if req.Password == "" {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"username": req.Username, "reason": "empty_password"}
		})
		return nil, ErrPasswordPolicy
	}

	// Advisory pre-check so the common duplicate case fails before hashing.
	// The directory's own uniqueness constraint remains authoritative for
	// the race between check and insert.
	for _, identifier := range []string{req.Username, req.Email} {
		_, err := e.userProvider.GetUserByIdentifier(ctx, identifier)
		if err == nil {
			return nil, e.accountDuplicate(ctx, req.Username)
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"username": req.Username, "reason": "password_policy"}
		})
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	record, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Identity:     uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, e.accountDuplicate(ctx, req.Username)
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	e.metricInc(MetricAccountCreationSuccess)
	e.emitAudit(ctx, auditEventAccountCreated, true, record.Identity, nil, func() map[string]string {
		return map[string]string{"username": record.Username}
	})

	result := &CreateAccountResult{Identity: record.Identity}
	if e.config.Account.AutoLogin {
		tokens, err := e.issueSession(ctx, record.Identity)
		if err != nil {
			return nil, err
		}
		result.Tokens = tokens
	}

	return result, nil
}

func (e *Engine) accountDuplicate(ctx context.Context, username string) error {
	e.metricInc(MetricAccountCreationDuplicate)
	e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", ErrAccountExists, func() map[string]string {
		return map[string]string{"username": username, "reason": "duplicate"}
	})
	return ErrAccountExists
}
