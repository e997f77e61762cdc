package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tunevault/authcore/b64"
)

// Signer produces a raw signature over content. Satisfied by
// [keys.Keypair].
type Signer interface {
	Sign(content []byte) ([]byte, error)
}

// Issuer mints signed tokens against the process keypair. Now is the
// clock used for expirations; tests override it, production leaves the
// default.
type Issuer struct {
	signer     Signer
	accessTTL  time.Duration
	refreshTTL time.Duration

	Now func() time.Time
}

// NewIssuer creates an Issuer with the given TTLs. The signer is the
// boot-time keypair; a signing failure afterwards indicates a corrupt
// key and is surfaced to the caller, never retried.
func NewIssuer(signer Signer, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

// AccessToken issues a short-TTL token bound to userID verbatim.
func (i *Issuer) AccessToken(userID string) (*Token, error) {
	return i.issue(KindAccess, userID, i.accessTTL)
}

// RefreshToken issues a long-TTL token with a freshly generated random
// identifier. The identifier deliberately carries no user information;
// the association to a user exists only in the refresh store.
func (i *Issuer) RefreshToken() (*Token, error) {
	return i.issue(KindRefresh, uuid.NewString(), i.refreshTTL)
}

// RefreshTTL reports the configured refresh token lifetime, which is
// also the store TTL for the refresh identifier.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *Issuer) issue(kind Kind, identifier string, ttl time.Duration) (*Token, error) {
	t := &Token{
		Kind:       kind,
		Identifier: identifier,
		Expiration: i.Now().UTC().Add(ttl).Truncate(time.Second).Format(time.RFC3339),
	}

	signature, err := i.signer.Sign([]byte(t.signedContent()))
	if err != nil {
		return nil, fmt.Errorf("sign token content: %w", err)
	}
	t.Signature = b64.Encode(signature)

	return t, nil
}
