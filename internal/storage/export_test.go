// ABOUTME: Tests for export and import functionality.
// ABOUTME: Verifies JSON round-trips, markdown output, and allocator continuity.
package storage

import (
	"strings"
	"testing"

	"github.com/harperreed/clinic/internal/models"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := setupTestDB(t)

	a, err := src.CreatePatient(&models.PatientPayload{
		PatientName:    "Alice Chen",
		DoctorName:     "Dr. Okafor",
		PatientHistory: "annual checkup",
	})
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if _, err := src.SetInClinic(a.ID, true); err != nil {
		t.Fatalf("SetInClinic failed: %v", err)
	}
	b, err := src.CreatePatient(testPayload("Bo Lindqvist", "Dr. Banner"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if _, err := src.DeletePatient(b.ID); err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}

	out, err := ExportJSON(src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	dst := setupTestDB(t)
	if err := ImportJSON(dst, out); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}

	got, err := dst.GetPatient(a.ID)
	if err != nil {
		t.Fatalf("GetPatient after import failed: %v", err)
	}
	if got.PatientName != "Alice Chen" || !got.InClinic {
		t.Errorf("Imported record mismatch: %+v", got)
	}
	if got.UpdatedAt == nil {
		t.Error("Imported record lost UpdatedAt")
	}

	// History of both live and deleted records carries over.
	changes, err := dst.History(a.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("Expected 2 imported entries for live record, got %d", len(changes))
	}
	changes, err = dst.History(b.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(changes) != 2 {
		t.Errorf("Expected 2 imported entries for deleted record, got %d", len(changes))
	}

	// The allocator continues past every imported id.
	c, err := dst.CreatePatient(testPayload("Carol Mbeki", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if c.ID <= b.ID {
		t.Errorf("Allocator reissued id %d after import (max imported %d)", c.ID, b.ID)
	}
}

func TestExportYAML(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.CreatePatient(testPayload("Alice Chen", "Dr. Okafor")); err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	out, err := ExportYAML(db)
	if err != nil {
		t.Fatalf("ExportYAML failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "patient_name: Alice Chen") {
		t.Errorf("YAML missing patient name:\n%s", s)
	}
	if !strings.Contains(s, "tool: clinic") {
		t.Errorf("YAML missing tool marker:\n%s", s)
	}
}

func TestExportMarkdown(t *testing.T) {
	db := setupTestDB(t)

	rec, err := db.CreatePatient(testPayload("Alice Chen", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}
	if _, err := db.SetInClinic(rec.ID, true); err != nil {
		t.Fatalf("SetInClinic failed: %v", err)
	}

	md, err := ExportMarkdown(db, false)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "# Patient Records") {
		t.Error("Markdown missing title")
	}
	if !strings.Contains(md, "| Alice Chen |") {
		t.Errorf("Markdown missing patient row:\n%s", md)
	}
	if strings.Contains(md, "status changed") {
		t.Error("Markdown included history without --with-history")
	}

	md, err = ExportMarkdown(db, true)
	if err != nil {
		t.Fatalf("ExportMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "status changed") {
		t.Errorf("Markdown with history missing change entries:\n%s", md)
	}
}

func TestBadgerExportImportRoundTrip(t *testing.T) {
	src := setupTestBadger(t)

	a, err := src.CreatePatient(testPayload("Alice Chen", "Dr. Okafor"))
	if err != nil {
		t.Fatalf("CreatePatient failed: %v", err)
	}

	out, err := ExportJSON(src)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	// Cross-backend restore: badger export into sqlite.
	dst := setupTestDB(t)
	if err := ImportJSON(dst, out); err != nil {
		t.Fatalf("ImportJSON failed: %v", err)
	}

	got, err := dst.GetPatient(a.ID)
	if err != nil {
		t.Fatalf("GetPatient after import failed: %v", err)
	}
	if got.PatientName != "Alice Chen" {
		t.Errorf("Imported record mismatch: %+v", got)
	}
}
