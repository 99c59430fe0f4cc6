package authcore

import "context"

// UserRecord is the directory's view of one account. Identity is the opaque
// subject identifier embedded in access tokens; Username and Email are the
// two lookup namespaces, unique across both combined.
type UserRecord struct {
	Identity     string
	Username     string
	Email        string
	PasswordHash string
}

// CreateUserInput carries the fields needed to persist a new account.
// PasswordHash is already encoded; the directory never sees a plaintext
// secret.
type CreateUserInput struct {
	Identity     string
	Username     string
	Email        string
	PasswordHash string
}

// UserProvider is the interface callers implement to connect authcore to
// their user directory. GetUserByIdentifier must match the identifier against
// either username or email and return [ErrUserNotFound] (wrapped or not) when
// neither matches; any other error is treated as a directory fault and
// reported as [ErrDirectoryUnavailable], never as an authentication failure.
type UserProvider interface {
	GetUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error)
	GetUserByID(ctx context.Context, identity string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// LoginResult is returned by [Engine.Login], [Engine.Refresh], and
// [Engine.CreateAccount]. RefreshArtifact is empty when the session store was
// unreachable: an artifact that was never persisted can never be redeemed, so
// none is handed out.
type LoginResult struct {
	Identity        string
	AccessToken     string
	RefreshArtifact string
	Degraded        bool
}

// AuthResult is returned by [Engine.Verify]. Degraded reports that the
// revocation check was skipped because the session store was unreachable.
type AuthResult struct {
	Identity string
	Degraded bool
}
