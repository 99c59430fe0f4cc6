package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not fully constructed through the Builder.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// secrets. The two cases are never distinguished to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is the sentinel a UserProvider must return when no
	// record matches the identifier. The Engine maps it to
	// ErrInvalidCredentials before it reaches a caller.
	ErrUserNotFound = errors.New("user not found")
	// ErrDirectoryUnavailable wraps unexpected UserProvider faults.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrTokenInvalid covers malformed tokens, signature mismatches, and
	// tokens signed with an unknown key.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is distinguished from ErrTokenInvalid so callers can
	// route the client to the refresh flow instead of rejecting outright.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionNotFound is returned by Verify when the token signature is
	// valid but the stored session record is absent or does not match —
	// the session was logged out or superseded.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshInvalid is the uniform rejection for refresh artifacts that
	// are absent, expired, rotated out, or never existed.
	ErrRefreshInvalid = errors.New("invalid or expired refresh artifact")
	// ErrStoreUnavailable indicates the session store could not be reached.
	// Read paths degrade instead of failing; login and refresh surface it.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrLoginRateLimited is an exported constant or variable used by the authentication engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is an exported constant or variable used by the authentication engine.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrAccountCreationDisabled is an exported constant or variable used by the authentication engine.
	ErrAccountCreationDisabled = errors.New("account creation disabled")
	// ErrAccountCreationInvalid is an exported constant or variable used by the authentication engine.
	ErrAccountCreationInvalid = errors.New("invalid account creation request")
	// ErrAccountExists is an exported constant or variable used by the authentication engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrPasswordPolicy is an exported constant or variable used by the authentication engine.
	ErrPasswordPolicy = errors.New("password policy violation")
)
