// Package couchbase is the remote backing medium: one document per patient
// record in a Couchbase bucket. Transport errors never cross the backend
// boundary uncast; reads map to storage-unavailable and writes to
// persistence-failure.
package couchbase

import (
	"context"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store"
)

const docPrefix = "PatientRecord/"

// Config carries the cluster coordinates.
type Config struct {
	URL      string
	Username string
	Password string
	Bucket   string
}

// Backend stores each record as its own document, keyed PatientRecord/<id>.
type Backend struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	bucketName string
}

// Connect opens the cluster connection and waits for the bucket to be
// ready for key-value and query traffic.
func Connect(cfg Config) (*Backend, error) {
	log.Info().
		Str("url", cfg.URL).
		Str("bucket", cfg.Bucket).
		Msg("Creating Couchbase connection")

	cluster, err := gocb.Connect(cfg.URL, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect cluster: %w", err)
	}

	bucket := cluster.Bucket(cfg.Bucket)
	err = bucket.WaitUntilReady(30*time.Second, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue, gocb.ServiceTypeQuery},
	})
	if err != nil {
		cluster.Close(nil)
		return nil, fmt.Errorf("bucket not ready: %w", err)
	}

	log.Info().Msg("Couchbase connection created successfully")
	return &Backend{
		cluster:    cluster,
		bucket:     bucket,
		bucketName: cfg.Bucket,
	}, nil
}

// Close closes the cluster connection.
func (b *Backend) Close() error {
	return b.cluster.Close(nil)
}

func docID(id string) string {
	return docPrefix + id
}

// Load reads every record document. Unlike the local medium, a failure here
// must not be read as an empty collection, so it surfaces as storage
// unavailable.
func (b *Backend) Load(ctx context.Context) ([]patient.Record, error) {
	query := fmt.Sprintf(
		"SELECT RAW d FROM `%s`.`_default`.`_default` AS d WHERE META(d).id LIKE '%s%%'",
		b.bucketName, docPrefix)

	rows, err := b.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: query records: %v", store.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var records []patient.Record
	for rows.Next() {
		var rec patient.Record
		if err := rows.Row(&rec); err != nil {
			return nil, fmt.Errorf("%w: decode record row: %v", store.ErrStorageUnavailable, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read record rows: %v", store.ErrStorageUnavailable, err)
	}

	log.Debug().
		Int("count", len(records)).
		Msg("Loaded records from Couchbase")
	return records, nil
}

// Save rewrites the collection: every record is upserted and documents for
// records no longer in the collection are removed, so the stored set always
// equals the given snapshot.
func (b *Backend) Save(ctx context.Context, records []patient.Record) error {
	existing, err := b.existingIDs(ctx)
	if err != nil {
		return err
	}

	col := b.bucket.DefaultCollection()

	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		keep[docID(rec.ID)] = struct{}{}
		if _, err := col.Upsert(docID(rec.ID), rec, &gocb.UpsertOptions{Context: ctx}); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", store.ErrPersistenceFailure, docID(rec.ID), err)
		}
	}

	for id := range existing {
		if _, stays := keep[id]; stays {
			continue
		}
		if _, err := col.Remove(id, &gocb.RemoveOptions{Context: ctx}); err != nil {
			return fmt.Errorf("%w: remove %s: %v", store.ErrPersistenceFailure, id, err)
		}
	}

	log.Debug().
		Int("count", len(records)).
		Msg("Snapshot written to Couchbase")
	return nil
}

func (b *Backend) existingIDs(ctx context.Context) (map[string]struct{}, error) {
	query := fmt.Sprintf(
		"SELECT RAW META(d).id FROM `%s`.`_default`.`_default` AS d WHERE META(d).id LIKE '%s%%'",
		b.bucketName, docPrefix)

	rows, err := b.cluster.Query(query, &gocb.QueryOptions{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: query document ids: %v", store.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Row(&id); err != nil {
			return nil, fmt.Errorf("%w: decode id row: %v", store.ErrPersistenceFailure, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read id rows: %v", store.ErrPersistenceFailure, err)
	}
	return ids, nil
}
