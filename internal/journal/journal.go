package journal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// FileName is the journal database file inside the data directory.
const FileName = "journal.db"

var tempFilesBucket = []byte("tempfiles")

// Journal records temporary plaintext files handed out by decrypt-to-temp
// so they can be swept on the next startup. Cleanup is best effort; a temp
// file that survives abnormal termination is removed by Sweep.
type Journal struct {
	db  *bolt.DB
	log *logrus.Logger
}

// Open opens or creates the journal database
func Open(path string, logger *logrus.Logger) (*Journal, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tempFilesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	return &Journal{db: db, log: logger}, nil
}

// Close closes the journal database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record registers a temp file for later cleanup
func (j *Journal) Record(path string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tempFilesBucket)
		created, _ := time.Now().MarshalBinary()
		return bucket.Put([]byte(path), created)
	})
}

// Forget drops a temp file entry without touching the file
func (j *Journal) Forget(path string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tempFilesBucket)
		return bucket.Delete([]byte(path))
	})
}

// Sweep removes every registered temp file and clears the registry.
// Removal failures are logged, never escalated; the entry is kept so a
// later sweep can retry.
func (j *Journal) Sweep() error {
	var paths []string
	err := j.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(tempFilesBucket)
		return bucket.ForEach(func(k, v []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	for _, path := range paths {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			j.log.WithError(err).WithField("path", path).Warn("could not remove temp file")
			continue
		}
		if err == nil {
			j.log.WithField("path", path).Debug("removed stale temp file")
		}
		if err := j.Forget(path); err != nil {
			j.log.WithError(err).WithField("path", path).Warn("could not drop journal entry")
		}
	}

	return nil
}
