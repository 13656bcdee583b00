// Package transfer produces and consumes the full-snapshot export artifact
// and reconciles imports against the record store.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store"
)

var (
	// ErrNothingToExport reports an empty collection at export time. It is
	// informational, not a failure: no artifact is produced.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrMalformedImport means the import text does not parse into an
	// array of record-shaped values. Nothing is imported.
	ErrMalformedImport = errors.New("malformed import")
)

// ImportResult reports how an import went. Added may be less than Parsed:
// incoming records without an id, or whose id already exists, are dropped.
type ImportResult struct {
	Parsed int `json:"parsed"`
	Added  int `json:"added"`
}

// Codec serializes the collection to the interchange format and merges
// imports back in. It holds no state of its own; each call is one
// transaction against the store's snapshot at call time.
type Codec struct {
	store *store.Store
}

// NewCodec creates a Codec over the given store.
func NewCodec(s *store.Store) *Codec {
	return &Codec{store: s}
}

// FileName returns the conventional artifact name for the given day,
// patient_records_<YYYY-MM-DD>.json.
func FileName(now time.Time) string {
	return fmt.Sprintf("patient_records_%s.json", now.Format("2006-01-02"))
}

// Export serializes the entire collection as a pretty-printed JSON array.
// Returns ErrNothingToExport when the collection is empty.
func (c *Codec) Export(ctx context.Context) ([]byte, error) {
	records, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode records: %w", err)
	}

	log.Info().
		Int("count", len(records)).
		Msg("Exported patient records")
	return data, nil
}

// ExportToFile writes the export artifact into dir under the conventional
// name and returns the full path.
func (c *Codec) ExportToFile(ctx context.Context, dir string) (string, error) {
	data, err := c.Export(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(time.Now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	log.Info().
		Str("path", path).
		Msg("Export artifact written")
	return path, nil
}

// Import parses the text into candidate records and merges them into the
// store. Parsing is all-or-nothing: any shape violation fails the whole
// import with ErrMalformedImport before anything is persisted. Adoption is
// per record, by the store's merge rule.
func (c *Codec) Import(ctx context.Context, data []byte) (ImportResult, error) {
	// Shape check first: a JSON array of objects, nothing else.
	// json.Unmarshal accepts a top-level null into a slice, so reject
	// anything that is not literally an array up front.
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ImportResult{}, fmt.Errorf("%w: input is not a JSON array", ErrMalformedImport)
	}
	var shaped []map[string]json.RawMessage
	if err := json.Unmarshal(data, &shaped); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	for i, obj := range shaped {
		if obj == nil {
			return ImportResult{}, fmt.Errorf("%w: element %d is not a record", ErrMalformedImport, i)
		}
	}

	var incoming []patient.Record
	if err := json.Unmarshal(data, &incoming); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	added, err := c.store.Merge(ctx, incoming)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}

	log.Info().
		Int("parsed", len(incoming)).
		Int("added", added).
		Msg("Imported patient records")
	return ImportResult{Parsed: len(incoming), Added: added}, nil
}
