package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/store/memory"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func sampleRecord() patient.Record {
	return patient.Record{
		Date:         "2023-04-08",
		PatientName:  "Asha Rao",
		MobileNumber: "9876543210",
		RightEye:     patient.EyeDetails{Sphere: "-1.25", Cylinder: "-0.50", Axis: "180", Add: "+1.00"},
		LeftEye:      patient.EyeDetails{Sphere: "-1.00"},
		FramePrice:   500,
		GlassPrice:   1200,
		TotalPrice:   1700,
		Remarks:      "first visit",
	}
}

func TestCreateAssignsIdentity(t *testing.T) {
	now := time.Date(2023, 4, 8, 12, 30, 0, 0, time.UTC)
	s := New(memory.New(), WithIDSource(sequenceIDs("rec")), WithClock(fixedClock(now)))

	stored, err := s.Create(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if stored.ID != "rec-1" {
		t.Errorf("Expected id rec-1, got %q", stored.ID)
	}
	if stored.CreatedAt != "2023-04-08T12:30:00Z" {
		t.Errorf("Expected createdAt 2023-04-08T12:30:00Z, got %q", stored.CreatedAt)
	}
	if stored.TotalPrice != 1700 {
		t.Errorf("Expected total 1700, got %v", stored.TotalPrice)
	}

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-1" {
		t.Errorf("Expected one stored record with id rec-1, got %+v", records)
	}
}

func TestCreateRejectsExistingID(t *testing.T) {
	s := New(memory.New())

	rec := sampleRecord()
	rec.ID = "already-there"
	if _, err := s.Create(context.Background(), rec); err == nil {
		t.Fatal("Expected error for record that already has an id")
	}
}

func TestUpdateReplacesRecord(t *testing.T) {
	s := New(memory.New(), WithIDSource(sequenceIDs("rec")), WithClock(fixedClock(time.Now())))

	stored, err := s.Create(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	changed := stored
	changed.Remarks = "changed"
	ok, err := s.Update(context.Background(), changed)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected update to find the record")
	}

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected one record, got %d", len(records))
	}
	if records[0].Remarks != "changed" {
		t.Errorf("Expected updated remarks, got %q", records[0].Remarks)
	}
	if records[0].ID != stored.ID || records[0].CreatedAt != stored.CreatedAt {
		t.Errorf("Identity changed across update: %+v", records[0])
	}
}

func TestUpdateUnknownIDReturnsFalse(t *testing.T) {
	s := New(memory.New(), WithIDSource(sequenceIDs("rec")), WithClock(fixedClock(time.Now())))

	stored, err := s.Create(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ghost := sampleRecord()
	ghost.ID = "nonexistent-id"
	ok, err := s.Update(context.Background(), ghost)
	if err != nil {
		t.Fatalf("Update errored: %v", err)
	}
	if ok {
		t.Fatal("Expected false for unknown id")
	}

	records, _ := s.List(context.Background())
	if len(records) != 1 || records[0].ID != stored.ID || records[0].Remarks != stored.Remarks {
		t.Errorf("Collection changed by a missed update: %+v", records)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	s := New(memory.New())
	if _, err := s.Update(context.Background(), sampleRecord()); err == nil {
		t.Fatal("Expected error for update without id")
	}
}

func TestCreateSurfacesPersistenceFailure(t *testing.T) {
	backend := memory.New()
	backend.SaveErr = ErrPersistenceFailure
	s := New(backend)

	if _, err := s.Create(context.Background(), sampleRecord()); !errors.Is(err, ErrPersistenceFailure) {
		t.Errorf("Expected ErrPersistenceFailure, got %v", err)
	}
}

func TestListSurfacesStorageUnavailable(t *testing.T) {
	backend := memory.New()
	backend.LoadErr = ErrStorageUnavailable
	s := New(backend)

	if _, err := s.List(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable, got %v", err)
	}
}

func TestMergeAdoptionRule(t *testing.T) {
	s := New(memory.New(), WithIDSource(sequenceIDs("rec")), WithClock(fixedClock(time.Now())))

	existing, err := s.Create(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	conflicting := existing
	conflicting.Remarks = "imported copy must lose"

	fresh := sampleRecord()
	fresh.ID = "imported-1"
	fresh.PatientName = "Ravi Kumar"

	noID := sampleRecord()

	added, err := s.Merge(context.Background(), []patient.Record{conflicting, fresh, noID})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 adopted record, got %d", added)
	}

	records, _ := s.List(context.Background())
	if len(records) != 2 {
		t.Fatalf("Expected 2 records after merge, got %d", len(records))
	}
	for _, r := range records {
		if r.ID == existing.ID && r.Remarks != existing.Remarks {
			t.Errorf("Existing record was overwritten on import: %+v", r)
		}
	}
}

func TestMergeDeduplicatesWithinImport(t *testing.T) {
	s := New(memory.New())

	dup := sampleRecord()
	dup.ID = "same-id"
	added, err := s.Merge(context.Background(), []patient.Record{dup, dup})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected a repeated id to be adopted once, got %d", added)
	}
}
