// Package keys owns the process signing keypair: loading or generating the
// RSA private key at boot and producing/checking RSA-PSS signatures over
// token content.
//
// # Architecture boundaries
//
// This package performs filesystem I/O exactly once, inside LoadOrGenerate.
// Sign and Verify are pure CPU work on the immutable keypair and are safe
// for concurrent use without coordination.
package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tunevault/authcore/b64"
)

// MinBits is the smallest accepted RSA modulus size. Configurations below
// this fail key bootstrap.
const MinBits = 2048

var (
	// ErrBootstrap is returned when the private key cannot be read,
	// parsed, generated, or persisted. This is fatal: a process without a
	// valid keypair can neither issue nor verify tokens and must not start.
	ErrBootstrap = errors.New("keypair bootstrap failed")

	// ErrSignatureParse is returned when signature bytes cannot be
	// interpreted as an RSA-PSS signature for the active key.
	ErrSignatureParse = errors.New("signature parsing failed")

	// ErrSignatureInvalid is returned when a structurally valid signature
	// does not verify over the given content.
	ErrSignatureInvalid = errors.New("signature verification failed")
)

const pemBlockType = "RSA PRIVATE KEY"

// Keypair wraps the process RSA private key. The verifying side is the
// public key derived from it; nothing else is ever persisted.
type Keypair struct {
	private *rsa.PrivateKey
}

// Generate creates a fresh keypair in memory without touching the
// filesystem. Used by LoadOrGenerate and by tests.
func Generate(bits int) (*Keypair, error) {
	if bits < MinBits {
		return nil, fmt.Errorf("%w: modulus %d below minimum %d", ErrBootstrap, bits, MinBits)
	}
	private, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}
	return &Keypair{private: private}, nil
}

// LoadOrGenerate returns the keypair stored at path, generating and
// persisting a new one when the file does not exist. The key file is
// PKCS#1 PEM, written with mode 0600. When two processes race on first
// boot, O_EXCL guarantees a single writer; the loser reloads the winner's
// key, so both end up with the same keypair.
//
// All failure modes map to [ErrBootstrap].
func LoadOrGenerate(path string, bits int) (*Keypair, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty key path", ErrBootstrap)
	}

	kp, err := load(path)
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	kp, err = Generate(bits)
	if err != nil {
		return nil, err
	}

	block := &pem.Block{
		Type:  pemBlockType,
		Bytes: x509.MarshalPKCS1PrivateKey(kp.private),
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			// Lost the creation race; the other booter's key wins.
			return load(path)
		}
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}

	if err := pem.Encode(f, block); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}

	return kp, nil
}

func load(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("%w: %s is not a PKCS#1 PEM private key", ErrBootstrap, path)
	}

	private, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBootstrap, err)
	}
	if private.N.BitLen() < MinBits {
		return nil, fmt.Errorf("%w: stored key modulus %d below minimum %d", ErrBootstrap, private.N.BitLen(), MinBits)
	}

	return &Keypair{private: private}, nil
}

// Sign produces an RSA-PSS signature over SHA-512(content). PSS is
// randomized: two signatures of identical content differ byte-for-byte
// but both verify.
func (k *Keypair) Sign(content []byte) ([]byte, error) {
	digest := sha512.Sum512(content)
	return rsa.SignPSS(rand.Reader, k.private, crypto.SHA512, digest[:], nil)
}

// Verify checks signature over content against the public half of the
// keypair. Signature bytes of the wrong length for the modulus fail with
// [ErrSignatureParse]; a well-formed signature that does not match fails
// with [ErrSignatureInvalid].
func (k *Keypair) Verify(content, signature []byte) error {
	if len(signature) != k.private.Size() {
		return fmt.Errorf("%w: got %d signature bytes, want %d", ErrSignatureParse, len(signature), k.private.Size())
	}
	digest := sha512.Sum512(content)
	if err := rsa.VerifyPSS(&k.private.PublicKey, crypto.SHA512, digest[:], signature, nil); err != nil {
		return ErrSignatureInvalid
	}
	return nil
}

// Public returns the verifying key derived from the private key.
func (k *Keypair) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}

// DecodeSignature turns a base64url signature segment into raw signature
// bytes. Malformed encodings fail with [ErrSignatureParse] regardless of
// whether verification would have succeeded.
func DecodeSignature(encoded string) ([]byte, error) {
	raw, err := b64.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureParse, err)
	}
	return raw, nil
}
