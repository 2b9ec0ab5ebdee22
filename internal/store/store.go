package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/journal"
)

const (
	// DirName is the storage directory inside the vault's data directory.
	DirName = "storage"
	// Suffix is the canonical extension of stored artifacts.
	Suffix = ".jmn"
	// NameSep separates the id segment from the sanitized original name.
	NameSep = "__"

	tempPrefix         = "juman_"
	overwriteChunkSize = 8192
)

// ErrNotFound is returned when the tolerant resolution exhausted all
// strategies without a match.
var ErrNotFound = errors.New("stored file not found")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Store manages the directory of encrypted file copies. It is stateless
// request/response over the filesystem; the key for each operation is
// supplied by the caller.
type Store struct {
	dir     string
	log     *logrus.Logger
	journal *journal.Journal
}

// New creates a Store rooted at dataDir/storage, creating the directory if
// needed. The journal may be nil; temp files are then not registered for
// startup cleanup.
func New(dataDir string, logger *logrus.Logger, j *journal.Journal) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dir := filepath.Join(dataDir, DirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Store{
		dir:     dir,
		log:     logger,
		journal: j,
	}, nil
}

// Dir returns the storage directory path
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeName strips everything but alphanumerics, dot, underscore and
// hyphen from a display name.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// StoreEncrypted encrypts the source file into the storage directory under
// a fresh id and returns the stored filename. Only after encryption
// succeeds is the plaintext original deleted; that delete, like the
// hide-attribute step, is best effort and reported on the log channel only.
func (s *Store) StoreEncrypted(sourcePath string, key []byte) (string, error) {
	id := uuid.NewString()
	name := id + NameSep + SanitizeName(filepath.Base(sourcePath)) + Suffix
	dst := filepath.Join(s.dir, name)

	engine := crypto.NewEngine(key)
	if err := engine.EncryptFile(sourcePath, dst); err != nil {
		return "", err
	}

	s.hideFile(dst)

	if err := os.Remove(sourcePath); err != nil {
		s.log.WithError(err).WithField("path", sourcePath).Warn("could not remove plaintext original")
	} else {
		s.log.WithField("path", sourcePath).Debug("removed plaintext original")
	}

	return name, nil
}

// hideFile marks a stored file non-discoverable in casual directory
// listings. This is cosmetic, not a security control; only Windows has a
// hidden attribute and setting it is skipped elsewhere.
func (s *Store) hideFile(path string) {
	if runtime.GOOS != "windows" {
		s.log.WithField("path", path).Debug("hide attribute not supported on this platform")
		return
	}
	// Hidden is a DOS attribute; without a syscall wrapper the rename-based
	// convention would change the stored name, so leave the file visible.
	s.log.WithField("path", path).Debug("hide attribute not applied")
}

// DecryptToTemp resolves the query, decrypts the stored file into a newly
// created temporary file and returns its path. The temp file keeps the
// original extension where it can be recovered from the stored name, so
// external viewers can be chosen correctly. The file is registered in the
// journal for best-effort cleanup on the next startup.
func (s *Store) DecryptToTemp(query string, key []byte) (string, error) {
	path, err := s.Resolve(query)
	if err != nil {
		return "", err
	}

	pattern := tempPrefix + "*.dec"
	if ext := OriginalExt(filepath.Base(path)); ext != "" {
		pattern = tempPrefix + "*." + ext
	}

	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	engine := crypto.NewEngine(key)
	if err := engine.DecryptFile(path, tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if s.journal != nil {
		if err := s.journal.Record(tmpPath); err != nil {
			s.log.WithError(err).WithField("path", tmpPath).Warn("could not register temp file for cleanup")
		}
	}

	return tmpPath, nil
}

// Decrypt resolves the query and returns the decrypted content in memory.
// Callers own the returned slice and should clear it when done.
func (s *Store) Decrypt(query string, key []byte) ([]byte, error) {
	path, err := s.Resolve(query)
	if err != nil {
		return nil, err
	}

	artifact, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	engine := crypto.NewEngine(key)
	return engine.Decrypt(artifact)
}

// DecryptTo resolves the query and decrypts the stored file to a
// caller-chosen destination.
func (s *Store) DecryptTo(destination, query string, key []byte) error {
	path, err := s.Resolve(query)
	if err != nil {
		return err
	}

	engine := crypto.NewEngine(key)
	return engine.DecryptFile(path, destination)
}

// List returns the filenames of all regular files in the storage directory
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Delete resolves the query, overwrites the file content with zeros and
// unlinks it. It reports whether a file was actually removed. The
// overwrite is best effort; a failure there never blocks the delete.
func (s *Store) Delete(query string) (bool, error) {
	path, err := s.Resolve(query)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := overwriteZeros(path); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("secure overwrite failed")
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return true, nil
}

// overwriteZeros rewrites the whole file with zero bytes in fixed-size
// chunks and flushes to durable storage.
func overwriteZeros(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	zeros := make([]byte, overwriteChunkSize)
	var written int64
	for written < size {
		chunk := int64(len(zeros))
		if size-written < chunk {
			chunk = size - written
		}
		n, err := f.Write(zeros[:chunk])
		written += int64(n)
		if err != nil {
			return err
		}
	}

	return f.Sync()
}

// OriginalExt recovers the best-effort original extension from a stored
// name of the form {id}__{sanitizedName}.{ext}.jmn. It returns "" when no
// extension can be recovered.
func OriginalExt(storedName string) string {
	idx := strings.Index(storedName, NameSep)
	if idx < 0 {
		return ""
	}
	orig := storedName[idx+len(NameSep):]
	orig = strings.TrimSuffix(orig, Suffix)

	dot := strings.LastIndex(orig, ".")
	if dot < 0 || dot == len(orig)-1 {
		return ""
	}
	return orig[dot+1:]
}
