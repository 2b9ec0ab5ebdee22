package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/jumanvault/internal/crypto"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := New(Config{DataDir: filepath.Join(t.TempDir(), "vault"), Logger: quietLogger()})
	require.NoError(t, m.Init())
	return m
}

func TestInitBootstrap(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{ConfigFile, MasterKeyFile, RecoveryFile} {
		_, err := os.Stat(filepath.Join(m.DataDir(), name))
		assert.NoError(t, err, "expected %s to exist", name)
	}

	assert.Equal(t, BootstrapUsername, m.Username())
	assert.False(t, m.PasswordChanged())
	assert.Len(t, m.MasterKey(), crypto.KeySize)
	assert.NotEmpty(t, m.VaultID())
}

func TestInitIdempotent(t *testing.T) {
	m := newTestManager(t)
	key := append([]byte(nil), m.MasterKey()...)
	vaultID := m.VaultID()

	again := New(Config{DataDir: m.DataDir(), Logger: quietLogger()})
	require.NoError(t, again.Init())

	assert.Equal(t, key, again.MasterKey(), "master key must survive reloads")
	assert.Equal(t, vaultID, again.VaultID())
}

func TestDefaultCredential(t *testing.T) {
	m := newTestManager(t)

	assert.True(t, m.VerifyPassword(BootstrapPassword))
	assert.False(t, m.VerifyPassword(""))
	assert.False(t, m.VerifyPassword("Admin"))
	assert.False(t, m.VerifyPassword("admin "))
	assert.False(t, m.VerifyPassword("hunter2"))
}

func TestSetPassword(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SetPassword("correct horse"))
	assert.True(t, m.PasswordChanged())
	assert.True(t, m.VerifyPassword("correct horse"))
	assert.False(t, m.VerifyPassword(BootstrapPassword), "bootstrap password must stop working")
	assert.False(t, m.VerifyPassword("wrong"))

	// Persisted across reload
	again := New(Config{DataDir: m.DataDir(), Logger: quietLogger()})
	require.NoError(t, again.Init())
	assert.True(t, again.VerifyPassword("correct horse"))
}

func TestMasterKeyMissing(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.Remove(filepath.Join(m.DataDir(), MasterKeyFile)))

	again := New(Config{DataDir: m.DataDir(), Logger: quietLogger()})
	err := again.Init()
	assert.ErrorIs(t, err, ErrMasterKeyMissing)
}

func TestRecoveryToken(t *testing.T) {
	m := newTestManager(t)

	raw, err := os.ReadFile(filepath.Join(m.DataDir(), RecoveryFile))
	require.NoError(t, err)
	token := strings.TrimSpace(string(raw))

	ok, err := m.VerifyRecoveryToken(token)
	require.NoError(t, err)
	assert.True(t, ok)

	// Trimmed comparison
	ok, err = m.VerifyRecoveryToken("  " + token + "\n")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.VerifyRecoveryToken("not-the-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetPasswordWithRecovery(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetPassword("first"))

	raw, err := os.ReadFile(filepath.Join(m.DataDir(), RecoveryFile))
	require.NoError(t, err)
	token := strings.TrimSpace(string(raw))

	// Wrong token leaves the credential untouched
	ok, err := m.ResetPasswordWithRecovery("bogus", "second")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, m.VerifyPassword("first"))
	assert.False(t, m.VerifyPassword("second"))

	// Correct token replaces the password
	ok, err = m.ResetPasswordWithRecovery(token, "second")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.VerifyPassword("second"))
	assert.False(t, m.VerifyPassword("first"), "old password must fail after reset")

	// Recovery secret is not rotated when consumed
	ok, err = m.VerifyRecoveryToken(token)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaltRotatesOnSetPassword(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SetPassword("password"))
	firstSalt := m.cred.PasswordSalt
	firstHash := m.cred.PasswordHash

	require.NoError(t, m.SetPassword("password"))
	assert.NotEqual(t, firstSalt, m.cred.PasswordSalt, "salt must be fresh per set")
	assert.NotEqual(t, firstHash, m.cred.PasswordHash)
}
