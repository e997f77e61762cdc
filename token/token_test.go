package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tunevault/authcore/b64"
	"github.com/tunevault/authcore/keys"
)

func testIssuer(t *testing.T) (*Issuer, *keys.Keypair) {
	t.Helper()

	kp, err := keys.Generate(keys.MinBits)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return NewIssuer(kp, 30*time.Minute, 7*24*time.Hour), kp
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer, kp := testIssuer(t)

	issued, err := issuer.AccessToken("user-42")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	parsed, err := Parse(issued.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if parsed.Kind != KindAccess {
		t.Fatalf("Kind = %q, want access", parsed.Kind)
	}
	if parsed.Identifier != "user-42" {
		t.Fatalf("Identifier = %q, want user-42", parsed.Identifier)
	}
	if parsed.Expiration != issued.Expiration {
		t.Fatalf("Expiration = %q, want %q", parsed.Expiration, issued.Expiration)
	}
	if parsed.Signature != issued.Signature {
		t.Fatal("Signature changed through serialization")
	}

	if err := parsed.Validate(kp, time.Now().UTC()); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestRefreshTokenIdentifiersAreUnique(t *testing.T) {
	issuer, kp := testIssuer(t)

	first, err := issuer.RefreshToken()
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	second, err := issuer.RefreshToken()
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}

	if first.Identifier == second.Identifier {
		t.Fatal("two refresh tokens share an identifier")
	}
	if first.Kind != KindRefresh {
		t.Fatalf("Kind = %q, want refresh", first.Kind)
	}

	for _, tok := range []*Token{first, second} {
		parsed, err := Parse(tok.String())
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if err := parsed.Validate(kp, time.Now().UTC()); err != nil {
			t.Fatalf("Validate error: %v", err)
		}
	}
}

func TestParseRejectsWrongSegmentCount(t *testing.T) {
	issuer, _ := testIssuer(t)
	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	serialized := issued.String()

	cases := []string{
		"",
		"onlyone",
		"two.segments",
		serialized + ".extra",
		strings.ReplaceAll(serialized, ".", ""),
	}

	for _, in := range cases {
		if _, err := Parse(in); !errors.Is(err, ErrFormat) {
			t.Fatalf("Parse(%q) = %v, want ErrFormat", in, err)
		}
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	serialized := b64.EncodeString("session:abc") + "." + b64.EncodeString("2026-01-02T15:04:05Z") + "." + b64.Encode([]byte("sig"))
	if _, err := Parse(serialized); !errors.Is(err, ErrFormat) {
		t.Fatalf("Parse(unknown kind) = %v, want ErrFormat", err)
	}
}

func TestParseRejectsMissingKindTag(t *testing.T) {
	serialized := b64.EncodeString("user-42") + "." + b64.EncodeString("2026-01-02T15:04:05Z") + "." + b64.Encode([]byte("sig"))
	if _, err := Parse(serialized); !errors.Is(err, ErrFormat) {
		t.Fatalf("Parse(no kind tag) = %v, want ErrFormat", err)
	}
}

func TestParseRejectsBadSegmentEncoding(t *testing.T) {
	if _, err := Parse("!!!.###.$$$"); !errors.Is(err, b64.ErrDecoding) {
		t.Fatalf("Parse(bad encoding) = %v, want ErrDecoding", err)
	}
}

func TestValidateRejectsTamperedIdentifier(t *testing.T) {
	issuer, kp := testIssuer(t)

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	parsed, err := Parse(issued.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	parsed.Identifier = "user-2"

	if err := parsed.Validate(kp, time.Now().UTC()); !errors.Is(err, keys.ErrSignatureInvalid) {
		t.Fatalf("Validate(tampered identifier) = %v, want ErrSignatureInvalid", err)
	}
}

func TestValidateRejectsTamperedSerializedForm(t *testing.T) {
	issuer, kp := testIssuer(t)

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	serialized := issued.String()

	// Flip one character in the first segment to another alphabet member.
	replacement := byte('A')
	if serialized[0] == replacement {
		replacement = 'B'
	}
	tampered := string(replacement) + serialized[1:]

	parsed, err := Parse(tampered)
	if err != nil {
		// A flipped character may break segment decoding instead; both
		// outcomes reject the token before expiry is ever considered.
		if !errors.Is(err, b64.ErrDecoding) && !errors.Is(err, ErrFormat) {
			t.Fatalf("Parse(tampered) = %v, want decoding or format error", err)
		}
		return
	}

	err = parsed.Validate(kp, time.Now().UTC())
	if !errors.Is(err, keys.ErrSignatureInvalid) {
		t.Fatalf("Validate(tampered) = %v, want ErrSignatureInvalid", err)
	}
}

func TestSerializedFormHasNoAcceptedVariants(t *testing.T) {
	issuer, kp := testIssuer(t)

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	serialized := issued.String()
	segments := strings.Split(serialized, ".")
	now := time.Now().UTC()

	// The last character of a segment carries the trailing bits of the
	// encoding, so a sloppy decoder can map several spellings of it to
	// the same bytes. Every substitution there, across the whole
	// alphabet, must fail parsing or validation.
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for seg := range segments {
		last := len(segments[seg]) - 1
		for i := 0; i < len(alphabet); i++ {
			if alphabet[i] == segments[seg][last] {
				continue
			}
			mutated := make([]string, len(segments))
			copy(mutated, segments)
			mutated[seg] = segments[seg][:last] + string(alphabet[i])
			tampered := strings.Join(mutated, ".")

			parsed, err := Parse(tampered)
			if err != nil {
				continue
			}
			if err := parsed.Validate(kp, now); err == nil {
				t.Fatalf("segment %d with last char %q -> %q still validates", seg, segments[seg][last], alphabet[i])
			}
		}
	}
}

func TestValidateRejectsKindSwap(t *testing.T) {
	issuer, kp := testIssuer(t)

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	parsed, err := Parse(issued.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	parsed.Kind = KindRefresh

	if err := parsed.Validate(kp, time.Now().UTC()); !errors.Is(err, keys.ErrSignatureInvalid) {
		t.Fatalf("Validate(swapped kind) = %v, want ErrSignatureInvalid", err)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	issuer, kp := testIssuer(t)
	issuedAt := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	issuer.Now = func() time.Time { return issuedAt }

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}
	expiresAt := issuedAt.Add(30 * time.Minute)

	parsed, err := Parse(issued.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if err := parsed.Validate(kp, expiresAt.Add(-2*time.Second)); err != nil {
		t.Fatalf("Validate(2s before expiry) = %v, want nil", err)
	}
	if err := parsed.Validate(kp, expiresAt); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate(at expiry) = %v, want ErrExpired", err)
	}
	if err := parsed.Validate(kp, expiresAt.Add(2*time.Second)); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate(2s after expiry) = %v, want ErrExpired", err)
	}
}

func TestValidateRejectsMalformedExpiration(t *testing.T) {
	_, kp := testIssuer(t)

	tok := &Token{
		Kind:       KindAccess,
		Identifier: "user-1",
		Expiration: "not-a-timestamp",
	}
	signature, err := kp.Sign([]byte(tok.signedContent()))
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	tok.Signature = b64.Encode(signature)

	if err := tok.Validate(kp, time.Now().UTC()); !errors.Is(err, ErrExpirationInvalid) {
		t.Fatalf("Validate(bad expiration) = %v, want ErrExpirationInvalid", err)
	}
}

func TestValidateChecksSignatureBeforeExpiry(t *testing.T) {
	issuer, kp := testIssuer(t)
	issuer.Now = func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }

	issued, err := issuer.AccessToken("user-1")
	if err != nil {
		t.Fatalf("AccessToken error: %v", err)
	}

	// Expired AND tampered: the signature failure must win.
	parsed, err := Parse(issued.String())
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	parsed.Identifier = "user-2"

	if err := parsed.Validate(kp, time.Now().UTC()); !errors.Is(err, keys.ErrSignatureInvalid) {
		t.Fatalf("Validate(expired+tampered) = %v, want ErrSignatureInvalid", err)
	}
}
