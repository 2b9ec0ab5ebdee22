package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/jumanvault/internal/auth"
	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/store"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// newTestVault initializes a vault with two stored files and returns the
// backup service over it.
func newTestVault(t *testing.T) (*Service, *auth.Manager, *store.Store) {
	t.Helper()
	log := quietLogger()

	mgr := auth.New(auth.Config{DataDir: filepath.Join(t.TempDir(), "vault"), Logger: log})
	require.NoError(t, mgr.Init())

	st, err := store.New(mgr.DataDir(), log, nil)
	require.NoError(t, err)

	srcDir := t.TempDir()
	for _, name := range []string{"alpha.txt", "beta.bin"} {
		src := filepath.Join(srcDir, name)
		require.NoError(t, os.WriteFile(src, []byte("content of "+name), 0600))
		_, err := st.StoreEncrypted(src, mgr.MasterKey())
		require.NoError(t, err)
	}

	return New(mgr, st, log), mgr, st
}

func readDirContents(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	contents := map[string][]byte{}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return contents
	}
	require.NoError(t, err)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		contents[entry.Name()] = data
	}
	return contents
}

func TestBackupRoundTrip(t *testing.T) {
	svc, mgr, st := newTestVault(t)

	artifact, err := svc.Create(mgr.MasterKey())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(artifact, ArtifactSuffix))

	// The intermediate zip is gone
	_, err = os.Stat(strings.TrimSuffix(artifact, ArtifactSuffix))
	assert.True(t, os.IsNotExist(err), "intermediate zip must be deleted")

	target := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, svc.Restore(artifact, mgr.MasterKey(), target))

	// Storage contents are byte-identical
	want := readDirContents(t, st.Dir())
	got := readDirContents(t, filepath.Join(target, store.DirName))
	assert.Equal(t, want, got)

	// Config, master key and recovery secret travel with the archive
	for _, name := range []string{auth.ConfigFile, auth.MasterKeyFile, auth.RecoveryFile} {
		original, err := os.ReadFile(filepath.Join(mgr.DataDir(), name))
		require.NoError(t, err)
		restored, err := os.ReadFile(filepath.Join(target, name))
		require.NoError(t, err, "expected %s in restored tree", name)
		assert.Equal(t, original, restored, "restored %s differs", name)
	}
}

func TestRestoreWrongKey(t *testing.T) {
	svc, mgr, _ := newTestVault(t)

	artifact, err := svc.Create(mgr.MasterKey())
	require.NoError(t, err)

	wrongKey, err := crypto.GenerateRandom(crypto.KeySize)
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "restored")
	err = svc.Restore(artifact, wrongKey, target)
	assert.ErrorIs(t, err, ErrBadArtifact)
}

func TestRestoreCorruptArtifact(t *testing.T) {
	svc, mgr, _ := newTestVault(t)

	artifact, err := svc.Create(mgr.MasterKey())
	require.NoError(t, err)

	data, err := os.ReadFile(artifact)
	require.NoError(t, err)
	data[len(data)/2] ^= 0x01
	require.NoError(t, os.WriteFile(artifact, data, 0600))

	err = svc.Restore(artifact, mgr.MasterKey(), filepath.Join(t.TempDir(), "restored"))
	assert.ErrorIs(t, err, ErrBadArtifact)
}

func TestBackupWithPassphrase(t *testing.T) {
	svc, mgr, _ := newTestVault(t)
	svc.Passphrase = []byte("backup passphrase")

	artifact, err := svc.Create(mgr.MasterKey())
	require.NoError(t, err)

	// The master key no longer opens the artifact
	plain := New(mgr, nil, quietLogger())
	err = plain.Restore(artifact, mgr.MasterKey(), filepath.Join(t.TempDir(), "a"))
	assert.ErrorIs(t, err, ErrBadArtifact)

	// The passphrase does
	target := filepath.Join(t.TempDir(), "b")
	require.NoError(t, svc.Restore(artifact, mgr.MasterKey(), target))
	_, err = os.Stat(filepath.Join(target, auth.ConfigFile))
	assert.NoError(t, err)
}

func TestRestoreIntoExistingDirectory(t *testing.T) {
	svc, mgr, _ := newTestVault(t)

	artifact, err := svc.Create(mgr.MasterKey())
	require.NoError(t, err)

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "unrelated.txt"), []byte("keep me"), 0600))

	require.NoError(t, svc.Restore(artifact, mgr.MasterKey(), target))

	kept, err := os.ReadFile(filepath.Join(target, "unrelated.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("keep me"), kept)
}
