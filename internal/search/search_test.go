package search

import (
	"context"
	"testing"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store"
	"brightlens.dev/optivault/internal/store/memory"
)

func seededEngine(t *testing.T, records []patient.Record) *Engine {
	t.Helper()
	backend := memory.New()
	if err := backend.Save(context.Background(), records); err != nil {
		t.Fatalf("Seeding backend failed: %v", err)
	}
	return NewEngine(store.New(backend))
}

func fixtureRecords() []patient.Record {
	return []patient.Record{
		{ID: "1", PatientName: "John Smith", MobileNumber: "9876543210", Date: "2023-01-05", CreatedAt: "2023-01-05T09:00:00Z"},
		{ID: "2", PatientName: "Jane SMITH", MobileNumber: "9123456789", Date: "2023-02-10", CreatedAt: "2023-02-10T09:00:00Z"},
		{ID: "3", PatientName: "Asha Rao", MobileNumber: "8876501234", Date: "2023-03-15", CreatedAt: "2023-03-15T09:00:00Z"},
		// Never persisted through the store, so only the visit date orders it.
		{ID: "4", PatientName: "Ravi Kumar", MobileNumber: "7012345678", Date: "2023-04-01"},
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		input    string
		expected Field
		wantErr  bool
	}{
		{"", FieldMobile, false},
		{"mobile", FieldMobile, false},
		{"name", FieldName, false},
		{"email", "", true},
	}

	for _, tt := range tests {
		t.Run("input_"+tt.input, func(t *testing.T) {
			got, err := ParseField(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	engine := seededEngine(t, fixtureRecords())

	upper, err := engine.Search(context.Background(), "SMITH", FieldName)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	lower, err := engine.Search(context.Background(), "smith", FieldName)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(upper) != 2 || len(lower) != 2 {
		t.Fatalf("Expected 2 matches for both casings, got %d and %d", len(upper), len(lower))
	}
	for i := range upper {
		if upper[i].ID != lower[i].ID {
			t.Errorf("Result sets differ at %d: %q vs %q", i, upper[i].ID, lower[i].ID)
		}
	}
}

func TestSearchOrdering(t *testing.T) {
	engine := seededEngine(t, fixtureRecords())

	// Empty query matches everything; ordering is most recent first by
	// createdAt, falling back to the visit date.
	results, err := engine.Search(context.Background(), "", FieldName)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	expected := []string{"4", "3", "2", "1"}
	if len(results) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(results))
	}
	for i, id := range expected {
		if results[i].ID != id {
			t.Errorf("Position %d: expected id %q, got %q", i, id, results[i].ID)
		}
	}
}

func TestSearchMobileSubstring(t *testing.T) {
	engine := seededEngine(t, fixtureRecords())

	results, err := engine.Search(context.Background(), "987", FieldMobile)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "1" {
		t.Fatalf("Expected exactly record 1, got %+v", results)
	}
}

func TestSearchNoMatches(t *testing.T) {
	engine := seededEngine(t, fixtureRecords())

	results, err := engine.Search(context.Background(), "zzz", FieldName)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no matches, got %+v", results)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	engine := seededEngine(t, nil)

	results, err := engine.Search(context.Background(), "anything", FieldMobile)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result, got %+v", results)
	}
}
