// Package memory provides an in-memory backing medium. It backs tests and
// throwaway demo setups; the store serializes access, so the backend itself
// only guards against concurrent readers.
package memory

import (
	"context"
	"sync"

	"brightlens.dev/optivault/internal/patient"
)

// Backend keeps the collection snapshot in process memory.
type Backend struct {
	mu      sync.RWMutex
	records []patient.Record

	// LoadErr and SaveErr, when set, are returned by the corresponding
	// operation. Tests use them to simulate an unreadable medium or a
	// failed rewrite.
	LoadErr error
	SaveErr error
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{}
}

// Load returns a copy of the current snapshot.
func (b *Backend) Load(ctx context.Context) ([]patient.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.LoadErr != nil {
		return nil, b.LoadErr
	}
	out := make([]patient.Record, len(b.records))
	copy(out, b.records)
	return out, nil
}

// Save replaces the snapshot.
func (b *Backend) Save(ctx context.Context, records []patient.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.records = make([]patient.Record, len(records))
	copy(b.records, records)
	return nil
}
