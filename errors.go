package authcore

import "errors"

var (
	// ErrUnauthorized is the uniform failure for access-token validation.
	// Parse, signature, kind, and expiry failures all collapse into it at
	// the engine boundary; the distinguishing detail goes to the audit
	// stream only.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials is returned by Login for unknown usernames and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountExists is returned by Signup when the username is taken.
	ErrAccountExists = errors.New("account already exists")

	// ErrPasswordPolicy is returned by Signup when the password cannot be
	// hashed under the configured policy.
	ErrPasswordPolicy = errors.New("password policy violation")

	// ErrRefreshInvalid is the uniform failure for refresh redemption:
	// malformed, forged, expired, wrong-kind, never-issued, already
	// consumed, and TTL-expired tokens are indistinguishable through it.
	ErrRefreshInvalid = errors.New("invalid refresh token")

	// ErrStoreUnavailable is returned when the refresh store cannot be
	// reached. Unlike ErrRefreshInvalid it is retryable; callers must not
	// assume the refresh either succeeded or consumed the old token.
	ErrStoreUnavailable = errors.New("refresh store unavailable")

	// ErrEngineNotReady is returned when an Engine method is called on a
	// partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
