// ABOUTME: Tests for the Badger-backed Repository implementation.
// ABOUTME: Verifies the key-value backend matches SQLite semantics.
package storage

import (
	"testing"

	"github.com/harperreed/clinic/internal/models"
)

func setupTestBadger(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open badger store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBadgerCreateAndGet(t *testing.T) {
	s := setupTestBadger(t)

	rec, err := s.CreatePatient(&models.PatientPayload{
		PatientName:     "Alice Chen",
		DoctorName:      "Dr. Okafor",
		PatientHistory:  "annual checkup",
		NextAppointment: 1000,
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if rec.ID != 1 {
		t.Errorf("Expected id 1, got %d", rec.ID)
	}
	if rec.UpdatedAt != nil {
		t.Error("Expected nil UpdatedAt on fresh record")
	}

	got, err := s.GetPatient(rec.ID)
	if err != nil {
		t.Fatalf("GetPatient failed: %v", err)
	}
	if got.PatientName != "Alice Chen" || got.DoctorName != "Dr. Okafor" {
		t.Errorf("Record mismatch: %+v", got)
	}
	if got.NextAppointment != 1000 {
		t.Errorf("NextAppointment mismatch: got %d", got.NextAppointment)
	}

	_, err = s.GetPatient(42)
	if !models.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestBadgerUpdateAndDelete(t *testing.T) {
	s := setupTestBadger(t)

	rec, err := s.CreatePatient(testPayload("Alice Chen", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	updated, err := s.UpdatePatient(rec.ID, testPayload("Alice Chen", "Dr. Banner"))
	if err != nil {
		t.Fatalf("UpdatePatient failed: %v", err)
	}
	if updated.DoctorName != "Dr. Banner" {
		t.Errorf("DoctorName mismatch: got %q", updated.DoctorName)
	}
	if updated.UpdatedAt == nil {
		t.Error("Expected UpdatedAt set after update")
	}

	if _, err := s.UpdatePatient(999, testPayload("Ghost", "Dr. Nobody")); !models.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
	if _, err := s.UpdatePatient(rec.ID, testPayload("", "Dr. Banner")); !models.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}

	deleted, err := s.DeletePatient(rec.ID)
	if err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}
	if deleted.ID != rec.ID {
		t.Errorf("Deleted id mismatch: got %d", deleted.ID)
	}
	if _, err := s.GetPatient(rec.ID); !models.IsNotFound(err) {
		t.Errorf("Expected not-found after delete, got %v", err)
	}

	changes, err := s.History(rec.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(changes))
	}
	if changes[2].ChangeType != models.ChangeDeleted {
		t.Errorf("Expected terminal deleted entry, got %q", changes[2].ChangeType)
	}
}

func TestBadgerUpdatedAtMonotonic(t *testing.T) {
	s := setupTestBadger(t)

	clock := uint64(1000)
	s.now = func() uint64 {
		clock += 7
		return clock
	}

	rec, err := s.CreatePatient(&models.PatientPayload{
		PatientName: "Alice Chen",
		DoctorName:  "Dr. Okafor",
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	first, err := s.SetInClinic(rec.ID, true)
	if err != nil {
		t.Fatalf("SetInClinic failed: %v", err)
	}
	if first.UpdatedAt == nil || *first.UpdatedAt < rec.CreatedAt {
		t.Fatalf("UpdatedAt %v not >= CreatedAt %d", first.UpdatedAt, rec.CreatedAt)
	}

	second, err := s.SetNextAppointment(rec.ID, 5000)
	if err != nil {
		t.Fatalf("SetNextAppointment failed: %v", err)
	}
	if second.UpdatedAt == nil || *second.UpdatedAt < *first.UpdatedAt {
		t.Fatalf("UpdatedAt %v regressed below %d", second.UpdatedAt, *first.UpdatedAt)
	}
	if second.CreatedAt != rec.CreatedAt {
		t.Errorf("CreatedAt drifted: got %d, want %d", second.CreatedAt, rec.CreatedAt)
	}
}

func TestBadgerIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("Failed to open badger store: %v", err)
	}
	a, err := s.CreatePatient(testPayload("Alice Chen", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if _, err := s.DeletePatient(a.ID); err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenBadger(dir)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()

	b, err := s.CreatePatient(testPayload("Bo Lindqvist", "Dr. Banner"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if b.ID <= a.ID {
		t.Errorf("Id %d reused after delete and reopen (last was %d)", b.ID, a.ID)
	}
}

func TestBadgerQueries(t *testing.T) {
	s := setupTestBadger(t)

	for _, p := range []struct {
		patient, doctor string
		inClinic        bool
	}{
		{"carol mbeki", "Dr. Okafor", false},
		{"Alice Chen", "Dr. Banner", true},
		{"Bo Lindqvist", "Dr. Okafor", false},
	} {
		rec, err := s.CreatePatient(testPayload(p.patient, p.doctor))
		if err != nil {
			t.Fatalf("CreatePatient failed: %v", err)
		}
		if p.inClinic {
			if _, err := s.SetInClinic(rec.ID, true); err != nil {
				t.Fatalf("SetInClinic failed: %v", err)
			}
		}
	}

	all, err := s.ListPatients()
	if err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 patients, got %d", len(all))
	}
	// Key iteration must preserve id order.
	for i := 1; i < len(all); i++ {
		if all[i].ID <= all[i-1].ID {
			t.Errorf("List out of order at %d: %d after %d", i, all[i].ID, all[i-1].ID)
		}
	}

	available, err := s.ListAvailable()
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}
	if len(available) != 2 {
		t.Errorf("Expected 2 available, got %d", len(available))
	}

	matches, err := s.SearchPatients("ALI")
	if err != nil {
		t.Fatalf("SearchPatients failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 matches for 'ALI', got %d", len(matches))
	}

	matches, err = s.SearchDoctors("okafor")
	if err != nil {
		t.Fatalf("SearchDoctors failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 matches for 'okafor', got %d", len(matches))
	}

	sorted, err := s.SortByName()
	if err != nil {
		t.Fatalf("SortByName failed: %v", err)
	}
	want := []string{"Alice Chen", "Bo Lindqvist", "carol mbeki"}
	for i, w := range want {
		if sorted[i].PatientName != w {
			t.Errorf("Position %d: got %q, want %q", i, sorted[i].PatientName, w)
		}
	}

	page, err := s.Paginate(1, 1)
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != all[1].ID {
		t.Errorf("Paginate(1, 1) mismatch: %+v", page)
	}
}

func TestBadgerWipe(t *testing.T) {
	s := setupTestBadger(t)

	rec, err := s.CreatePatient(testPayload("Alice Chen", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	if err := s.Wipe(); err != nil {
		t.Fatalf("Wipe failed: %v", err)
	}

	all, err := s.ListPatients()
	if err != nil {
		t.Fatalf("ListPatients failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected empty store after wipe, got %d records", len(all))
	}
	changes, err := s.History(rec.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("Expected empty history after wipe, got %d entries", len(changes))
	}

	fresh, err := s.CreatePatient(testPayload("Bo Lindqvist", "Dr. Banner"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if fresh.ID != 1 {
		t.Errorf("Expected id 1 after wipe, got %d", fresh.ID)
	}
}
