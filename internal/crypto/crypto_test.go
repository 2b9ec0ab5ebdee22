package crypto

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateRandom(KeySize)
	if err != nil {
		t.Fatalf("GenerateRandom failed: %v", err)
	}
	return key
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)
	engine := NewEngine(key)

	for _, plaintext := range [][]byte{
		[]byte(""),
		[]byte("x"),
		[]byte("some secret content"),
		bytes.Repeat([]byte{0xAB}, 1<<18),
	} {
		artifact, err := engine.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if len(artifact) != NonceSize+len(plaintext)+TagSize {
			t.Errorf("artifact size = %d, want %d", len(artifact), NonceSize+len(plaintext)+TagSize)
		}

		decrypted, err := engine.Decrypt(artifact)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Errorf("round trip mismatch for %d-byte input", len(plaintext))
		}
	}
}

func TestNonceFreshness(t *testing.T) {
	engine := NewEngine(testKey(t))

	a, err := engine.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := engine.Encrypt([]byte("same input"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Error("nonce reused across encryptions")
	}
	if bytes.Equal(a, b) {
		t.Error("identical artifacts for two encryptions")
	}
}

func TestTamperDetection(t *testing.T) {
	engine := NewEngine(testKey(t))

	artifact, err := engine.Encrypt([]byte("integrity matters"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Flip one bit in every byte position: nonce, ciphertext and tag must
	// all be covered.
	for i := range artifact {
		tampered := append([]byte(nil), artifact...)
		tampered[i] ^= 0x01

		if _, err := engine.Decrypt(tampered); !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("Decrypt of artifact tampered at byte %d: got %v, want ErrAuthFailed", i, err)
		}
	}
}

func TestWrongKey(t *testing.T) {
	engine := NewEngine(testKey(t))
	other := NewEngine(testKey(t))

	artifact, err := engine.Encrypt([]byte("keyed content"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := other.Decrypt(artifact); !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Decrypt with wrong key: got %v, want ErrAuthFailed", err)
	}
}

func TestTruncatedArtifact(t *testing.T) {
	engine := NewEngine(testKey(t))

	for _, size := range []int{0, 1, NonceSize, NonceSize + TagSize - 1} {
		if _, err := engine.Decrypt(make([]byte, size)); !errors.Is(err, ErrInvalidCiphertext) {
			t.Errorf("Decrypt of %d-byte input: got %v, want ErrInvalidCiphertext", size, err)
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(testKey(t))

	content := bytes.Repeat([]byte("file content\n"), 10000)
	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.txt.jmn")
	dec := filepath.Join(dir, "decrypted.txt")

	if err := os.WriteFile(src, content, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := engine.EncryptFile(src, enc); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}
	if err := engine.DecryptFile(enc, dec); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}

	decrypted, err := os.ReadFile(dec)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(decrypted, content) {
		t.Error("file round trip mismatch")
	}
}

func TestDecryptFileLeavesNoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	engine := NewEngine(testKey(t))

	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.txt.jmn")
	dst := filepath.Join(dir, "out.txt")

	if err := os.WriteFile(src, []byte("content"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := engine.EncryptFile(src, enc); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}

	// Corrupt the tag
	artifact, err := os.ReadFile(enc)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	artifact[len(artifact)-1] ^= 0x01
	if err := os.WriteFile(enc, artifact, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := engine.DecryptFile(enc, dst); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("DecryptFile: got %v, want ErrAuthFailed", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("failed decryption left output behind")
	}
}

func TestKDFDeterministic(t *testing.T) {
	kdf, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if len(kdf.Salt) != SaltSize {
		t.Errorf("salt size = %d, want %d", len(kdf.Salt), SaltSize)
	}

	a := kdf.DeriveKey([]byte("password"))
	b := kdf.DeriveKey([]byte("password"))
	if !bytes.Equal(a, b) {
		t.Error("same password and salt derived different keys")
	}
	if len(a) != KeySize {
		t.Errorf("derived key size = %d, want %d", len(a), KeySize)
	}

	other, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	if bytes.Equal(a, other.DeriveKey([]byte("password"))) {
		t.Error("different salts derived the same key")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
