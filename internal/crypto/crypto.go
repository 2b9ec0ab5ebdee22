package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16    // Salt size in bytes
	KeySize      = 32    // AES-256 key size
	NonceSize    = 12    // GCM nonce size
	TagSize      = 16    // GCM authentication tag size
	DefaultIters = 65536 // PBKDF2 iterations for password hashing

	// copyChunkSize bounds the read buffer used when pulling file
	// content through EncryptFile/DecryptFile.
	copyChunkSize = 64 * 1024
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
)

// KDF derives fixed-size keys from passwords
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF() (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: DefaultIters,
	}, nil
}

// DeriveKey derives a 256-bit key from a password
func (k *KDF) DeriveKey(password []byte) []byte {
	return pbkdf2.Key(password, k.Salt, k.Iterations, KeySize, sha256.New)
}

// Engine provides authenticated encryption under a single symmetric key.
// Artifacts are laid out as nonce || ciphertext || tag; the tag covers the
// whole message, so no plaintext is released before the artifact verifies.
type Engine struct {
	key []byte
}

// NewEngine creates an engine bound to the given 256-bit key.
// The engine borrows the key; it does not copy it.
func NewEngine(key []byte) *Engine {
	return &Engine{
		key: key,
	}
}

// Encrypt encrypts plaintext using AES-256-GCM with a fresh random nonce
func (e *Engine) Encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	// Prepend nonce to ciphertext
	result := make([]byte, NonceSize+len(ciphertext))
	copy(result, nonce)
	copy(result[NonceSize:], ciphertext)

	return result, nil
}

// Decrypt decrypts an artifact produced by Encrypt. It returns
// ErrInvalidCiphertext for truncated input and ErrAuthFailed when the
// authentication tag does not verify (wrong key or tampered data).
func (e *Engine) Decrypt(artifact []byte) ([]byte, error) {
	if len(artifact) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := e.aead()
	if err != nil {
		return nil, err
	}

	nonce := artifact[:NonceSize]
	ciphertext := artifact[NonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// EncryptFile encrypts the content of src into a new artifact at dst.
// The destination is created with owner-only permissions.
func (e *Engine) EncryptFile(src, dst string) error {
	plaintext, err := readAll(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	defer ClearBytes(plaintext)

	artifact, err := e.Encrypt(plaintext)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, artifact, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// DecryptFile decrypts the artifact at src into dst. The destination is
// only written after the whole artifact has been authenticated; a failed
// decryption leaves dst untouched.
func (e *Engine) DecryptFile(src, dst string) error {
	artifact, err := readAll(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	plaintext, err := e.Decrypt(artifact)
	if err != nil {
		return err
	}
	defer ClearBytes(plaintext)

	if err := os.WriteFile(dst, plaintext, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// Destroy clears the engine's key from memory
func (e *Engine) Destroy() {
	ClearBytes(e.key)
}

func (e *Engine) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// readAll reads a file through a bounded buffer
func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var content []byte
	buf := make([]byte, copyChunkSize)
	for {
		n, err := f.Read(buf)
		content = append(content, buf[:n]...)
		if err == io.EOF {
			return content, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
