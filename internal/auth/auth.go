package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/illarion/jumanvault/internal/crypto"
)

const (
	ConfigFile    = "config"
	MasterKeyFile = "master.key"
	RecoveryFile  = "recovery.txt"

	BootstrapUsername = "admin"
	BootstrapPassword = "admin"

	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

var (
	ErrNotInitialized = errors.New("vault not initialized")
	// ErrMasterKeyMissing is returned when the data directory exists but the
	// master key file does not. Regenerating a key here would silently orphan
	// every stored file, so Init refuses instead.
	ErrMasterKeyMissing = errors.New("master key file missing from existing vault")
)

// Config holds the construction parameters for a Manager.
type Config struct {
	DataDir string
	Logger  *logrus.Logger
}

// Manager owns the vault's credential record, master key and recovery
// secret. It is constructed once at startup and passed by reference to the
// storage and backup layers; it is the sole owner of the master key for the
// life of the process.
type Manager struct {
	dataDir string
	log     *logrus.Logger

	cred      credential
	masterKey []byte
}

// New creates a Manager rooted at the given data directory.
// Call Init before any other operation.
func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Manager{
		dataDir: cfg.DataDir,
		log:     cfg.Logger,
		cred:    defaultCredential(),
	}
}

// Init bootstraps or loads the vault. It is idempotent: on a fresh data
// directory it creates the directory, writes the default credential record
// and generates the master key and recovery secret; on an existing one it
// loads them. A missing master key file in an existing vault is an error,
// never a reason to generate a new key.
func (m *Manager) Init() error {
	if err := os.MkdirAll(m.dataDir, DirPermSecure); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(m.configPath()); errors.Is(err, os.ErrNotExist) {
		return m.bootstrap()
	} else if err != nil {
		return fmt.Errorf("failed to stat config: %w", err)
	}

	cred, err := loadCredential(m.configPath())
	if err != nil {
		return err
	}
	m.cred = cred

	if m.cred.VaultID == "" {
		m.cred.VaultID = uuid.NewString()
		if err := saveCredential(m.configPath(), m.cred); err != nil {
			return err
		}
	}

	return m.loadMasterKey()
}

func (m *Manager) bootstrap() error {
	m.cred = defaultCredential()
	m.cred.VaultID = uuid.NewString()
	if err := saveCredential(m.configPath(), m.cred); err != nil {
		return err
	}

	key, err := crypto.GenerateRandom(crypto.KeySize)
	if err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(m.masterKeyPath(), []byte(encoded), FilePermSecure); err != nil {
		return fmt.Errorf("failed to write master key: %w", err)
	}
	m.masterKey = key

	secret, err := crypto.GenerateRandom(crypto.KeySize)
	if err != nil {
		return fmt.Errorf("failed to generate recovery secret: %w", err)
	}
	recEncoded := base64.StdEncoding.EncodeToString(secret)
	if err := os.WriteFile(m.recoveryPath(), []byte(recEncoded), FilePermSecure); err != nil {
		return fmt.Errorf("failed to write recovery secret: %w", err)
	}

	m.log.WithField("dir", m.dataDir).Info("vault initialized")
	return nil
}

func (m *Manager) loadMasterKey() error {
	encoded, err := os.ReadFile(m.masterKeyPath())
	if errors.Is(err, os.ErrNotExist) {
		return ErrMasterKeyMissing
	}
	if err != nil {
		return fmt.Errorf("failed to read master key: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(key) != crypto.KeySize {
		return fmt.Errorf("master key has unexpected size %d", len(key))
	}

	m.masterKey = key
	return nil
}

// VerifyPassword reports whether the candidate matches the vault password.
// Before any password has been set, only the bootstrap password matches.
// Mismatches are reported as false, never as an error.
func (m *Manager) VerifyPassword(candidate string) bool {
	if !m.cred.PasswordChanged || m.cred.PasswordHash == "" || m.cred.PasswordSalt == "" {
		return crypto.ConstantTimeCompare([]byte(candidate), []byte(BootstrapPassword)) &&
			!m.cred.PasswordChanged
	}

	salt, err := base64.StdEncoding.DecodeString(m.cred.PasswordSalt)
	if err != nil {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(m.cred.PasswordHash)
	if err != nil {
		return false
	}

	kdf := &crypto.KDF{Salt: salt, Iterations: crypto.DefaultIters}
	hash := kdf.DeriveKey([]byte(candidate))
	defer crypto.ClearBytes(hash)

	return crypto.ConstantTimeCompare(hash, stored)
}

// SetPassword derives a salted hash for the new password and persists the
// credential record atomically (write to a temp file, then rename).
func (m *Manager) SetPassword(newPassword string) error {
	kdf, err := crypto.NewKDF()
	if err != nil {
		return err
	}

	hash := kdf.DeriveKey([]byte(newPassword))
	defer crypto.ClearBytes(hash)

	updated := m.cred
	updated.PasswordSalt = base64.StdEncoding.EncodeToString(kdf.Salt)
	updated.PasswordHash = base64.StdEncoding.EncodeToString(hash)
	updated.PasswordChanged = true

	if err := saveCredential(m.configPath(), updated); err != nil {
		return err
	}
	m.cred = updated
	return nil
}

// VerifyRecoveryToken compares the trimmed token against the persisted
// recovery secret.
func (m *Manager) VerifyRecoveryToken(token string) (bool, error) {
	stored, err := os.ReadFile(m.recoveryPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read recovery secret: %w", err)
	}

	return crypto.ConstantTimeCompare(
		[]byte(strings.TrimSpace(string(stored))),
		[]byte(strings.TrimSpace(token)),
	), nil
}

// ResetPasswordWithRecovery sets a new password if the recovery token
// matches. The credential record is untouched on failure. Neither the
// master key nor the recovery secret is rotated.
func (m *Manager) ResetPasswordWithRecovery(token, newPassword string) (bool, error) {
	ok, err := m.VerifyRecoveryToken(token)
	if err != nil || !ok {
		return false, err
	}

	if err := m.SetPassword(newPassword); err != nil {
		return false, err
	}
	return true, nil
}

// MasterKey returns the vault's master key. The slice is shared, not
// copied; callers must not retain it past the operation they need it for.
func (m *Manager) MasterKey() []byte {
	return m.masterKey
}

// DataDir returns the vault's data directory path
func (m *Manager) DataDir() string {
	return m.dataDir
}

// Username returns the configured username
func (m *Manager) Username() string {
	return m.cred.Username
}

// PasswordChanged reports whether a password has ever been set
func (m *Manager) PasswordChanged() bool {
	return m.cred.PasswordChanged
}

// VaultID returns the vault's identifier, used to key the OS keyring cache
func (m *Manager) VaultID() string {
	return m.cred.VaultID
}

// Close clears the master key from memory
func (m *Manager) Close() {
	crypto.ClearBytes(m.masterKey)
	m.masterKey = nil
}

func (m *Manager) configPath() string {
	return filepath.Join(m.dataDir, ConfigFile)
}

func (m *Manager) masterKeyPath() string {
	return filepath.Join(m.dataDir, MasterKeyFile)
}

func (m *Manager) recoveryPath() string {
	return filepath.Join(m.dataDir, RecoveryFile)
}
