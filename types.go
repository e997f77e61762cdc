package authcore

import "context"

// Credential is the stored record for one user, owned by the caller's
// user store. The engine only ever reads it.
type Credential struct {
	UserID       string
	Username     string
	PasswordHash string
}

// UserStore is the interface callers implement to integrate authcore
// with their user database. FindByUsername returns (nil, nil) when the
// username is unknown; errors are reserved for lookup failures.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	Create(ctx context.Context, username, passwordHash string) error
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// Identity is the validated result of an access token: the user the
// request acts as.
type Identity struct {
	UserID string
}

// TokenPair is returned by Login and Refresh. Both fields are serialized
// tokens ready for transport.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
