package authcore

import (
	"context"
	"errors"
	"fmt"
)

// IntrospectionResult joins a verified token with the directory's current
// view of the account behind it. Degraded carries through from Verify.
type IntrospectionResult struct {
	Identity string
	Username string
	Email    string
	Degraded bool
}

// Introspect verifies an access token and then looks the account up in the
// user directory by identity, returning the directory's live record rather
// than anything baked into the token at mint time. It fails exactly like
// [Engine.Verify] for bad tokens; on top of that, an account deleted since
// the token was issued returns [ErrUserNotFound], and a directory fault
// returns [ErrDirectoryUnavailable].
func (e *Engine) Introspect(ctx context.Context, accessToken string) (*IntrospectionResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	auth, err := e.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := e.userProvider.GetUserByID(ctx, auth.Identity)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	return &IntrospectionResult{
		Identity: user.Identity,
		Username: user.Username,
		Email:    user.Email,
		Degraded: auth.Degraded,
	}, nil
}
