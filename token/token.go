// Package token implements the signed bearer-token wire format:
//
//	<base64url(kind:identifier)>.<base64url(expiration)>.<base64url(signature)>
//
// Exactly two dots. The first segment decodes to "access:<user-id>" or
// "refresh:<opaque-id>", so the token kind sits inside the signed content
// and cannot be swapped without breaking the signature. The expiration is
// an RFC 3339 UTC timestamp. The signature covers the first two encoded
// segments joined by a dot, in that order.
//
// Tokens are immutable values: refresh produces a brand-new token, never
// an edited one.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tunevault/authcore/b64"
	"github.com/tunevault/authcore/keys"
)

// Kind tags a token as an access or refresh credential. The tag is part
// of the signed content.
type Kind string

const (
	// KindAccess marks short-TTL tokens whose identifier is a user id.
	KindAccess Kind = "access"
	// KindRefresh marks long-TTL single-use tokens whose identifier is a
	// random opaque id.
	KindRefresh Kind = "refresh"
)

var (
	// ErrFormat is returned when the token string does not have exactly
	// three dot-separated segments, or the first segment carries an
	// unknown kind tag.
	ErrFormat = errors.New("invalid token format")

	// ErrExpirationInvalid is returned when the expiration segment is not
	// an RFC 3339 timestamp.
	ErrExpirationInvalid = errors.New("malformed token expiration")

	// ErrExpired is returned when a token's expiration is not in the
	// future at validation time.
	ErrExpired = errors.New("token expired")

	// ErrKind is returned when a token of the wrong kind is presented:
	// a refresh token where an access token is expected, or vice versa.
	ErrKind = errors.New("wrong token kind")
)

// Verifier checks a signature over content. Satisfied by [keys.Keypair].
type Verifier interface {
	Verify(content, signature []byte) error
}

// Token is the parsed form of a serialized token. Identifier is a user id
// for access tokens and a random opaque id for refresh tokens. Expiration
// is kept as the exact RFC 3339 string that was signed. Signature stays
// base64url-encoded until validation needs the raw bytes.
type Token struct {
	Kind       Kind
	Identifier string
	Expiration string
	Signature  string
}

// Parse splits s on "." and decodes the identifier and expiration
// segments. It performs no cryptographic or expiry checks; callers must
// follow up with [Token.Validate].
func Parse(s string) (*Token, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want 3 segments, got %d", ErrFormat, len(parts))
	}

	subject, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}
	expiration, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}

	kind, identifier, ok := strings.Cut(subject, ":")
	if !ok || identifier == "" {
		return nil, fmt.Errorf("%w: missing kind tag", ErrFormat)
	}
	switch Kind(kind) {
	case KindAccess, KindRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrFormat, kind)
	}

	return &Token{
		Kind:       Kind(kind),
		Identifier: identifier,
		Expiration: expiration,
		Signature:  parts[2],
	}, nil
}

// String serializes the token for transport. The signature segment is
// already base64url and is emitted as-is, never re-encoded.
func (t *Token) String() string {
	return t.signedContent() + "." + t.Signature
}

func (t *Token) subject() string {
	return string(t.Kind) + ":" + t.Identifier
}

// signedContent reconstructs the exact bytes the signature covers from
// the current field values. Validation never trusts wire segments
// directly, so any mutation between parse and validate is caught.
func (t *Token) signedContent() string {
	return b64.EncodeString(t.subject()) + "." + b64.EncodeString(t.Expiration)
}

// Validate runs the full check sequence against the process public key:
// signature decode, signature verification, expiration parse, expiry
// comparison. The cryptographic checks run before the expiry check so a
// forged token learns nothing about expiry handling. Every check runs on
// every call; there is no trusted-caller shortcut.
func (t *Token) Validate(v Verifier, now time.Time) error {
	content := t.signedContent()

	signature, err := keys.DecodeSignature(t.Signature)
	if err != nil {
		return err
	}
	if err := v.Verify([]byte(content), signature); err != nil {
		return err
	}

	expiresAt, err := time.Parse(time.RFC3339, t.Expiration)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExpirationInvalid, err)
	}
	if !expiresAt.After(now) {
		return ErrExpired
	}

	return nil
}
