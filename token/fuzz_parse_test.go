package token

import (
	"testing"
	"time"

	"github.com/tunevault/authcore/keys"
)

// FuzzParse exercises the token parser with arbitrary strings.
// Goal: no panics; invalid inputs must be rejected with errors, and
// anything that parses must survive Validate without panicking.
func FuzzParse(f *testing.F) {
	kp, err := keys.Generate(keys.MinBits)
	if err != nil {
		f.Fatal(err)
	}
	issuer := NewIssuer(kp, 30*time.Minute, 7*24*time.Hour)

	valid, err := issuer.AccessToken("seed-user")
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid.String())
	f.Add("")
	f.Add("a.b.c")
	f.Add("..")
	f.Add("YWNjZXNzOnVzZXItMQ.MjAyNg.c2ln")
	f.Add(valid.String() + ".")

	f.Fuzz(func(t *testing.T, input string) {
		tok, err := Parse(input)
		if err != nil {
			return
		}
		if tok.Kind != KindAccess && tok.Kind != KindRefresh {
			t.Fatalf("parsed token has unknown kind %q", tok.Kind)
		}
		if tok.Identifier == "" {
			t.Fatal("parsed token has empty identifier")
		}
		// Validation may fail; it must not panic.
		_ = tok.Validate(kp, time.Now().UTC())
	})
}
