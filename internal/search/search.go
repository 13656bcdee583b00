// Package search answers name/mobile queries against the record store.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store"
)

// Field selects which record field a query matches against.
type Field string

const (
	FieldName   Field = "name"
	FieldMobile Field = "mobile"
)

// ParseField maps the wire value to a Field. The empty string defaults to
// mobile, the search form's default tab.
func ParseField(s string) (Field, error) {
	switch s {
	case "", string(FieldMobile):
		return FieldMobile, nil
	case string(FieldName):
		return FieldName, nil
	default:
		return "", fmt.Errorf("unknown search field %q", s)
	}
}

// Engine filters and orders the store's current contents.
type Engine struct {
	store *store.Store
}

// NewEngine creates an Engine over the given store.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Search returns the records whose chosen field contains the query,
// case-insensitively, ordered most recent first by effective timestamp
// (createdAt when present, else the visit date). An empty query matches
// everything. Ties keep the underlying list order.
func (e *Engine) Search(ctx context.Context, query string, field Field) ([]patient.Record, error) {
	records, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	needle := strings.ToLower(query)
	matched := make([]patient.Record, 0, len(records))
	for _, rec := range records {
		value := rec.PatientName
		if field == FieldMobile {
			value = rec.MobileNumber
		}
		if strings.Contains(strings.ToLower(value), needle) {
			matched = append(matched, rec)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].EffectiveTime().After(matched[j].EffectiveTime())
	})

	log.Debug().
		Str("field", string(field)).
		Str("query", query).
		Int("matches", len(matched)).
		Msg("Search completed")
	return matched, nil
}
