package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/patient"
)

// Backend is the backing-medium capability: read the full snapshot, replace
// the full snapshot. Both the local key-value form and the remote document
// form sit behind this pair.
type Backend interface {
	Load(ctx context.Context) ([]patient.Record, error)
	Save(ctx context.Context, records []patient.Record) error
}

// Store is the durable home for the patient record collection. Every write
// is a read-modify-rewrite of the whole collection, so all mutating
// operations are serialized by a single mutex.
type Store struct {
	mu      sync.Mutex
	backend Backend
	newID   func() string
	now     func() time.Time
}

// Option overrides a Store collaborator, used by tests to pin ids and
// timestamps.
type Option func(*Store)

// WithIDSource replaces the identifier generator.
func WithIDSource(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces the creation-timestamp clock.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// New creates a Store over the given backing medium. Identifiers default to
// random UUIDs, which cannot realistically collide within a store's
// lifetime.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the full current collection.
func (s *Store) List(ctx context.Context) ([]patient.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	log.Debug().
		Int("count", len(records)).
		Msg("Listed patient records")
	return records, nil
}

// Create assigns an id and creation timestamp to the record, appends it to
// the collection and persists the result. The record must not carry an id
// yet; ids are assigned exactly once, here.
func (s *Store) Create(ctx context.Context, rec patient.Record) (patient.Record, error) {
	if rec.ID != "" {
		return patient.Record{}, errors.New("record already has an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.backend.Load(ctx)
	if err != nil {
		return patient.Record{}, fmt.Errorf("load collection: %w", err)
	}

	rec.ID = s.newID()
	rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	records = append(records, rec)

	if err := s.backend.Save(ctx, records); err != nil {
		return patient.Record{}, fmt.Errorf("save collection: %w", err)
	}

	log.Info().
		Str("id", rec.ID).
		Str("patient", rec.PatientName).
		Msg("Patient record created")
	return rec, nil
}

// Update replaces the record with the same id wholesale and persists the
// collection. It returns false, with the collection untouched, when no
// record carries that id; write errors are returned as errors.
func (s *Store) Update(ctx context.Context, rec patient.Record) (bool, error) {
	if rec.ID == "" {
		return false, errors.New("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.backend.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load collection: %w", err)
	}

	idx := -1
	for i := range records {
		if records[i].ID == rec.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		log.Warn().
			Str("id", rec.ID).
			Msg("Update targeted a record that does not exist")
		return false, nil
	}

	records[idx] = rec
	if err := s.backend.Save(ctx, records); err != nil {
		return false, fmt.Errorf("save collection: %w", err)
	}

	log.Info().
		Str("id", rec.ID).
		Msg("Patient record updated")
	return true, nil
}

// Merge adopts incoming records into the collection and persists the result
// as one rewrite. A record is adopted iff it carries a non-empty id that is
// not already present; everything else is silently dropped, favoring the
// existing copy. Returns the number of records adopted.
func (s *Store) Merge(ctx context.Context, incoming []patient.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.backend.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load collection: %w", err)
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.ID] = struct{}{}
	}

	added := 0
	for _, r := range incoming {
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		records = append(records, r)
		added++
	}

	if err := s.backend.Save(ctx, records); err != nil {
		return 0, fmt.Errorf("save collection: %w", err)
	}

	log.Info().
		Int("incoming", len(incoming)).
		Int("added", added).
		Msg("Merged imported records")
	return added, nil
}
