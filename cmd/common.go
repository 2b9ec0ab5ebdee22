package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/illarion/jumanvault/internal/auth"
	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/journal"
	"github.com/illarion/jumanvault/internal/keyring"
	"github.com/illarion/jumanvault/internal/store"
)

// Vault bundles the components every command needs: the credential/key
// manager, the encrypted storage and the temp-file journal.
type Vault struct {
	Auth    *auth.Manager
	Store   *store.Store
	Journal *journal.Journal
	Log     *logrus.Logger
}

// Close releases the vault's resources
func (v *Vault) Close() {
	if v.Journal != nil {
		v.Journal.Close()
	}
	v.Auth.Close()
}

// DataDir returns the vault's data directory: JUMAN_DATA_DIR if set,
// otherwise ~/Documents/JuMan.
func DataDir() string {
	if dir := os.Getenv("JUMAN_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "JuMan"
	}
	return filepath.Join(home, "Documents", "JuMan")
}

// OpenVault constructs and initializes the vault components. Stale temp
// files from earlier runs are swept here.
func OpenVault() *Vault {
	log := newLogger()

	mgr := auth.New(auth.Config{DataDir: DataDir(), Logger: log})
	if err := mgr.Init(); err != nil {
		if errors.Is(err, auth.ErrMasterKeyMissing) {
			fmt.Fprintln(os.Stderr, "Error: master.key is missing from the vault directory")
			fmt.Fprintln(os.Stderr, "Restore it from a backup; generating a new key would orphan all stored files")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}

	j, err := journal.Open(filepath.Join(mgr.DataDir(), journal.FileName), log)
	if err != nil {
		log.WithError(err).Warn("temp-file journal unavailable")
		j = nil
	} else if err := j.Sweep(); err != nil {
		log.WithError(err).Warn("temp-file sweep failed")
	}

	st, err := store.New(mgr.DataDir(), log, j)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	return &Vault{Auth: mgr, Store: st, Journal: j, Log: log}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if os.Getenv("JUMAN_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// Login verifies the vault password before a command runs. Order: the
// JUMAN_PASSWORD environment variable, then the OS keyring, then an
// interactive prompt. A stale keyring entry falls through to the prompt.
func Login(v *Vault) {
	if pw := os.Getenv("JUMAN_PASSWORD"); pw != "" {
		if v.Auth.VerifyPassword(pw) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error: wrong password")
		os.Exit(1)
	}

	if vaultID := v.Auth.VaultID(); vaultID != "" {
		if pw, err := keyring.GetPassword(vaultID); err == nil {
			if v.Auth.VerifyPassword(pw) {
				return
			}
			v.Log.Warn("keyring password is stale")
		}
	}

	pw, err := ReadPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(pw)

	if !v.Auth.VerifyPassword(string(pw)) {
		fmt.Fprintln(os.Stderr, "Error: wrong password")
		os.Exit(1)
	}
}

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// ReadPasswordConfirm reads a password twice and ensures both match
func ReadPasswordConfirm() ([]byte, error) {
	password1, err := ReadPassword("Enter new password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)

	password2, err := ReadPassword("Confirm new password: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, fmt.Errorf("passwords do not match")
	}

	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

// HandleError reports common errors consistently and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(os.Stderr, "Error: stored file not found")
		fmt.Fprintln(os.Stderr, "Use 'jumanvault ls' to see stored files")
	case errors.Is(err, crypto.ErrAuthFailed):
		fmt.Fprintln(os.Stderr, "Error: decryption failed (wrong key or tampered file)")
	case errors.Is(err, crypto.ErrInvalidCiphertext):
		fmt.Fprintln(os.Stderr, "Error: stored file is truncated or malformed")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
