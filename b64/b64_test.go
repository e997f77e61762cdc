package b64

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("a"),
		[]byte("hello world"),
		[]byte("user-42"),
		{0x00, 0xFF, 0x7F, 0x80},
		bytes.Repeat([]byte{0xAB}, 256),
	}

	for _, in := range cases {
		encoded := Encode(in)
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) error: %v", in, err)
		}
		if !bytes.Equal(decoded, in) {
			t.Fatalf("round trip mismatch: in=%q out=%q", in, decoded)
		}
	}
}

func TestEncodeStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "access:user-1", "2026-01-02T15:04:05Z", "ünïcødé"} {
		decoded, err := DecodeString(EncodeString(s))
		if err != nil {
			t.Fatalf("DecodeString(EncodeString(%q)) error: %v", s, err)
		}
		if decoded != s {
			t.Fatalf("round trip mismatch: in=%q out=%q", s, decoded)
		}
	}
}

func TestEncodeUsesURLSafeAlphabetWithoutPadding(t *testing.T) {
	// 0xFB 0xEF produces '+' and '/' in standard base64 and '=' padding.
	encoded := Encode([]byte{0xFB, 0xEF})
	for _, c := range encoded {
		if c == '+' || c == '/' || c == '=' {
			t.Fatalf("encoded output %q contains forbidden character %q", encoded, c)
		}
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"a",         // impossible length
		"ab==",      // padding
		"a+b/",      // standard alphabet
		"abc\n",     // whitespace
		"hello!",    // out-of-alphabet byte
		"YWJj YWJj", // embedded space
	}

	for _, in := range cases {
		if _, err := Decode(in); !errors.Is(err, ErrDecoding) {
			t.Fatalf("Decode(%q) = %v, want ErrDecoding", in, err)
		}
	}
}

func TestDecodeRejectsNonCanonicalTrailingBits(t *testing.T) {
	// "QQ" and "QR" both carry the byte 0x41 in their data bits, but
	// only "QQ" has zero trailing bits. Accepting "QR" would give the
	// same payload two spellings on the wire.
	canonical, err := Decode("QQ")
	if err != nil {
		t.Fatalf("Decode(canonical) error: %v", err)
	}
	if !bytes.Equal(canonical, []byte{0x41}) {
		t.Fatalf("Decode(QQ) = %v, want [0x41]", canonical)
	}

	for _, in := range []string{"QR", "QUF", "AB"} {
		if _, err := Decode(in); !errors.Is(err, ErrDecoding) {
			t.Fatalf("Decode(%q) = %v, want ErrDecoding", in, err)
		}
	}
}

func TestDecodeStringRejectsInvalidUTF8(t *testing.T) {
	encoded := Encode([]byte{0xFF, 0xFE, 0xFD})
	if _, err := DecodeString(encoded); !errors.Is(err, ErrDecoding) {
		t.Fatalf("DecodeString(non-UTF-8) = %v, want ErrDecoding", err)
	}

	// The same bytes are fine through the binary path.
	if _, err := Decode(encoded); err != nil {
		t.Fatalf("Decode(non-UTF-8 bytes) error: %v", err)
	}
}
