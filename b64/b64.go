// Package b64 is the token codec: URL-safe base64 without padding.
//
// Every token segment on the wire (identifier, expiration, signature)
// goes through this alphabet. Encode and Decode are exact inverses;
// Decode rejects anything Encode could not have produced.
package b64

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDecoding is returned when input is not valid base64url-no-padding,
// or when DecodeString finds bytes that are not valid UTF-8.
var ErrDecoding = errors.New("malformed base64url input")

// Encode returns the base64url-no-padding encoding of data.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// EncodeString encodes the raw bytes of s.
func EncodeString(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

// Decode is the left inverse of Encode. Inputs outside the
// base64url-no-padding alphabet, including padded or truncated strings,
// fail with [ErrDecoding]. Strict mode also rejects non-canonical
// encodings whose trailing bits are non-zero, so every input has at
// most one accepted spelling.
func Decode(s string) ([]byte, error) {
	data, err := base64.RawURLEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoding, err)
	}
	return data, nil
}

// DecodeString decodes s and additionally requires the result to be
// valid UTF-8, since token identifiers and expirations are text.
func DecodeString(s string) (string, error) {
	data, err := Decode(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: decoded bytes are not valid UTF-8", ErrDecoding)
	}
	return string(data), nil
}
