// Package bolt is the local backing medium: the whole collection is one
// JSON snapshot under a single key in a bbolt bucket, the embedded
// equivalent of the key-value slot the record store contract asks for.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	bbolt "go.etcd.io/bbolt"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store"
)

var (
	bucketName  = []byte("optivault")
	snapshotKey = []byte("patient_records")
)

// Backend stores the collection snapshot in a bbolt database file.
type Backend struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the database file at path.
func Open(path string) (*Backend, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	log.Info().
		Str("path", path).
		Msg("Opened local record database")
	return &Backend{db: db}, nil
}

// Close closes the underlying database file.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Load reads the snapshot. A missing key or a snapshot that no longer
// parses is an empty collection, not an error; only a failed read of the
// medium itself surfaces as storage unavailable.
func (b *Backend) Load(ctx context.Context) ([]patient.Record, error) {
	var records []patient.Record

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		if bucket == nil {
			return nil
		}
		raw := bucket.Get(snapshotKey)
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			log.Warn().
				Err(err).
				Msg("Stored snapshot does not parse, treating as empty")
			records = nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot: %v", store.ErrStorageUnavailable, err)
	}
	return records, nil
}

// Save replaces the snapshot with the given collection.
func (b *Backend) Save(ctx context.Context, records []patient.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", store.ErrPersistenceFailure, err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return bucket.Put(snapshotKey, data)
	})
	if err != nil {
		return fmt.Errorf("%w: write snapshot: %v", store.ErrPersistenceFailure, err)
	}

	log.Debug().
		Int("count", len(records)).
		Msg("Snapshot written to local database")
	return nil
}
