package keys

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tunevault/authcore/b64"
)

func TestGenerateThenLoadSameKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.pem")

	first, err := LoadOrGenerate(path, MinBits)
	if err != nil {
		t.Fatalf("LoadOrGenerate(first boot) error: %v", err)
	}

	second, err := LoadOrGenerate(path, MinBits)
	if err != nil {
		t.Fatalf("LoadOrGenerate(second boot) error: %v", err)
	}

	if first.Public().N.Cmp(second.Public().N) != 0 {
		t.Fatal("second boot loaded a different key than the first boot generated")
	}
}

func TestLoadOrGenerateFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.pem")

	if _, err := LoadOrGenerate(path, MinBits); err != nil {
		t.Fatalf("LoadOrGenerate error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file mode = %o, want 600", perm)
	}
}

func TestLoadOrGenerateRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.pem")
	if err := os.WriteFile(path, []byte("not a pem file"), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	if _, err := LoadOrGenerate(path, MinBits); !errors.Is(err, ErrBootstrap) {
		t.Fatalf("LoadOrGenerate(corrupt) = %v, want ErrBootstrap", err)
	}
}

func TestGenerateRejectsSmallModulus(t *testing.T) {
	if _, err := Generate(1024); !errors.Is(err, ErrBootstrap) {
		t.Fatalf("Generate(1024) = %v, want ErrBootstrap", err)
	}
}

func TestSignVerify(t *testing.T) {
	kp, err := Generate(MinBits)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	content := []byte("YWNjZXNzOnVzZXItMQ.MjAyNi0wMS0wMlQxNTowNDowNVo")

	signature, err := kp.Sign(content)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	if got, want := len(signature), kp.private.Size(); got != want {
		t.Fatalf("signature length = %d, want modulus size %d", got, want)
	}

	if err := kp.Verify(content, signature); err != nil {
		t.Fatalf("Verify error: %v", err)
	}
}

func TestVerifyRejectsTamperedContent(t *testing.T) {
	kp, err := Generate(MinBits)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	signature, err := kp.Sign([]byte("original content"))
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	err = kp.Verify([]byte("tampered content"), signature)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("Verify(tampered) = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyRejectsTruncatedSignature(t *testing.T) {
	kp, err := Generate(MinBits)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	signature, err := kp.Sign([]byte("content"))
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	err = kp.Verify([]byte("content"), signature[:len(signature)-1])
	if !errors.Is(err, ErrSignatureParse) {
		t.Fatalf("Verify(truncated) = %v, want ErrSignatureParse", err)
	}
}

func TestVerifyRejectsSignatureFromOtherKey(t *testing.T) {
	kpA, err := Generate(MinBits)
	if err != nil {
		t.Fatalf("Generate(A) error: %v", err)
	}
	kpB, err := Generate(MinBits)
	if err != nil {
		t.Fatalf("Generate(B) error: %v", err)
	}

	content := []byte("content")
	signature, err := kpA.Sign(content)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if err := kpB.Verify(content, signature); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("Verify(other key) = %v, want ErrSignatureInvalid", err)
	}
}

func TestDecodeSignature(t *testing.T) {
	raw := []byte{0x01, 0x02, 0x03}
	decoded, err := DecodeSignature(b64.Encode(raw))
	if err != nil {
		t.Fatalf("DecodeSignature error: %v", err)
	}
	if len(decoded) != len(raw) {
		t.Fatalf("decoded length = %d, want %d", len(decoded), len(raw))
	}

	if _, err := DecodeSignature("not!base64url"); !errors.Is(err, ErrSignatureParse) {
		t.Fatalf("DecodeSignature(malformed) = %v, want ErrSignatureParse", err)
	}
}
