package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/illarion/jumanvault/internal/auth"
	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/store"
)

const (
	// ArtifactSuffix is the extension of encrypted backup artifacts.
	ArtifactSuffix = ".jumanbackup"

	backupPrefix  = "juman_backup_"
	restorePrefix = "juman_restore_"
)

// ErrBadArtifact is returned when the backup artifact cannot be decrypted
// or is not a valid archive.
var ErrBadArtifact = errors.New("backup artifact is corrupt or encrypted under a different key")

// Service builds and restores encrypted snapshots of the whole vault: the
// storage directory plus the credential, master-key and recovery files.
//
// By default the artifact is wrapped under the vault's master key, which the
// archive itself contains; anyone holding the artifact and that key defeats
// the wrapping. Set Passphrase to derive an independent wrapping key
// instead.
type Service struct {
	mgr   *auth.Manager
	store *store.Store
	log   *logrus.Logger

	// Passphrase, when non-empty, replaces the caller-supplied key with one
	// derived from it for both Create and Restore.
	Passphrase []byte
}

// New creates a backup service over the given vault
func New(mgr *auth.Manager, st *store.Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		mgr:   mgr,
		store: st,
		log:   logger,
	}
}

// Create builds a zip of the vault's files, encrypts it into a
// timestamp-named artifact in the data directory, removes the intermediate
// unencrypted zip and returns the artifact path.
func (s *Service) Create(key []byte) (string, error) {
	stamp := strings.NewReplacer(":", "_", ".", "_").
		Replace(time.Now().UTC().Format(time.RFC3339Nano))
	zipPath := filepath.Join(s.mgr.DataDir(), backupPrefix+stamp+".zip")

	if err := s.writeArchive(zipPath); err != nil {
		os.Remove(zipPath)
		return "", err
	}

	artifact := zipPath + ArtifactSuffix
	engine := crypto.NewEngine(s.wrappingKey(key))
	if err := engine.EncryptFile(zipPath, artifact); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("failed to encrypt archive: %w", err)
	}

	if err := os.Remove(zipPath); err != nil {
		s.log.WithError(err).WithField("path", zipPath).Warn("could not remove intermediate archive")
	}

	return artifact, nil
}

// Restore decrypts the artifact into a private temporary file, unpacks all
// entries into targetDir and removes the temporary file whether or not
// decryption and unpacking succeeded. Wrong-key and corrupt artifacts are
// reported as ErrBadArtifact.
func (s *Service) Restore(artifact string, key []byte, targetDir string) error {
	tmp, err := os.CreateTemp("", restorePrefix+"*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).WithField("path", tmpPath).Warn("could not remove temp archive")
		}
	}()

	engine := crypto.NewEngine(s.wrappingKey(key))
	if err := engine.DecryptFile(artifact, tmpPath); err != nil {
		if errors.Is(err, crypto.ErrAuthFailed) || errors.Is(err, crypto.ErrInvalidCiphertext) {
			return fmt.Errorf("%w: %v", ErrBadArtifact, err)
		}
		return err
	}

	return extractArchive(tmpPath, targetDir)
}

// wrappingKey returns the key the artifact is sealed under: the
// caller-supplied key by default, or one derived from the configured
// passphrase.
func (s *Service) wrappingKey(key []byte) []byte {
	if len(s.Passphrase) == 0 {
		return key
	}
	kdf := &crypto.KDF{Salt: []byte(backupPrefix), Iterations: crypto.DefaultIters}
	return kdf.DeriveKey(s.Passphrase)
}

// writeArchive builds the unencrypted zip: the storage directory (if
// present) under storage/, plus the config, master-key and recovery files.
func (s *Service) writeArchive(zipPath string) error {
	out, err := os.OpenFile(zipPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	storageDir := s.store.Dir()
	if _, err := os.Stat(storageDir); err == nil {
		err := filepath.WalkDir(storageDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(storageDir, path)
			if err != nil {
				return err
			}
			return addFileEntry(zw, path, store.DirName+"/"+filepath.ToSlash(rel))
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to archive storage directory: %w", err)
		}
	}

	for _, name := range []string{auth.ConfigFile, auth.MasterKeyFile, auth.RecoveryFile} {
		path := filepath.Join(s.mgr.DataDir(), name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := addFileEntry(zw, path, name); err != nil {
			zw.Close()
			return fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Sync()
}

func addFileEntry(zw *zip.Writer, path, entryName string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(entryName)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// extractArchive unpacks every entry into targetDir, confining entry paths
// with os.Root so a crafted archive cannot escape the target.
func extractArchive(zipPath, targetDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(targetDir, 0700); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	root, err := os.OpenRoot(targetDir)
	if err != nil {
		return fmt.Errorf("failed to open target directory: %w", err)
	}
	defer root.Close()

	for _, entry := range zr.File {
		name := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("archive entry escapes target: %s", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := root.MkdirAll(name, 0700); err != nil {
				return fmt.Errorf("failed to create %s: %w", name, err)
			}
			continue
		}

		if dir := filepath.Dir(name); dir != "." {
			if err := root.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		if err := extractEntry(root, entry, name); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(root *os.Root, entry *zip.File, name string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", name, err)
	}
	defer src.Close()

	dst, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return nil
}
