package prescription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testRecord(med string) Record {
	return Record{
		Medication:      med,
		Dosage:          "500mg",
		Frequency:       "2/day",
		IntervalHr:      6,
		Doctor:          "Reyes",
		AppointmentDate: "03/14/2025",
		AppointmentTime: "15:30",
		StartDate:       "03/10/2025",
		EndDate:         "03/20/2025",
	}
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prescriptions.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s, path
}

func TestFileStoreStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	records, err := s.GetAllPrescriptions(context.Background())
	if err != nil {
		t.Fatalf("GetAllPrescriptions: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestFileStoreAddAssignsIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, testRecord("Amoxicillin"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := s.Add(ctx, testRecord("Ibuprofen"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestFileStoreAddValidates(t *testing.T) {
	s, _ := newTestStore(t)
	rec := testRecord("Amoxicillin")
	rec.Frequency = ""
	rec.Doctor = " "

	_, err := s.Add(context.Background(), rec)
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if len(missing.Fields) != 2 {
		t.Errorf("missing fields = %v", missing.Fields)
	}
}

func TestFileStoreGetUpdateDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	added, err := s.Add(ctx, testRecord("Amoxicillin"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.GetByID(ctx, added.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Medication != "Amoxicillin" {
		t.Errorf("Medication = %q", got.Medication)
	}

	dosage := "250mg"
	updated, err := s.Update(ctx, added.ID, &UpdateRecordCommand{Dosage: &dosage})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Dosage != "250mg" || updated.UpdatedAt == nil {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.Delete(ctx, added.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetByID(ctx, added.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("after delete err = %v, want ErrRecordNotFound", err)
	}
	if err := s.Delete(ctx, 99); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Delete(99) err = %v, want ErrRecordNotFound", err)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, testRecord("Amoxicillin")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := s.Add(ctx, testRecord("Ibuprofen")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records, err := reopened.GetAllPrescriptions(ctx)
	if err != nil {
		t.Fatalf("GetAllPrescriptions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records after reopen, want 2", len(records))
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Errorf("ids = %d, %d", records[0].ID, records[1].ID)
	}
}

func TestFileStoreBackfillsMissingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prescriptions.json")
	doc := `[
		{"medication": "Amoxicillin", "dosage": "500mg"},
		{"id": 5, "medication": "Ibuprofen", "dosage": "200mg"}
	]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	records, _ := s.GetAllPrescriptions(context.Background())
	if records[0].ID != 6 {
		t.Errorf("backfilled id = %d, want 6", records[0].ID)
	}
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prescriptions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("no error for corrupt document")
	}
}
