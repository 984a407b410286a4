// ABOUTME: Unit tests for Charm-based patient storage.
// ABOUTME: Tests key formats and prefixes without touching the network.
package charm

import (
	"sort"
	"strings"
	"testing"
)

func TestPatientKeyFormat(t *testing.T) {
	key := patientKey(42)

	if key != "patient:00000000000000000042" {
		t.Errorf("Unexpected patient key: %s", key)
	}
}

func TestChangesKeyFormat(t *testing.T) {
	key := changesKey(42)

	if key != "changes:00000000000000000042" {
		t.Errorf("Unexpected changes key: %s", key)
	}
}

func TestKeyPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{"Patient", PatientPrefix, "patient:"},
		{"Changes", ChangesPrefix, "changes:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prefix != tt.expected {
				t.Errorf("Expected %s = %q, got %q", tt.name, tt.expected, tt.prefix)
			}
		})
	}

	if AllocKey != "alloc:patient" {
		t.Errorf("Expected AllocKey = %q, got %q", "alloc:patient", AllocKey)
	}
}

// Zero-padded keys must sort lexicographically in id order, since the list
// operations rely on sorted key iteration.
func TestPatientKeysSortById(t *testing.T) {
	ids := []uint64{1, 9, 10, 99, 100, 12345678901234567}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = patientKey(id)
	}

	if !sort.StringsAreSorted(keys) {
		t.Errorf("Keys not in id order: %v", keys)
	}
}

func TestDecodePatient(t *testing.T) {
	rec, err := decodePatient(patientKey(7), []byte(`{"id":7,"patient_name":"Alice Chen","doctor_name":"Dr. Okafor"}`))
	if err != nil {
		t.Fatalf("decodePatient failed: %v", err)
	}
	if rec.ID != 7 || rec.PatientName != "Alice Chen" {
		t.Errorf("Unexpected record: %+v", rec)
	}
}

// A corrupt stored record must surface as an error naming the key, never be
// silently dropped from list results.
func TestDecodePatientCorrupt(t *testing.T) {
	_, err := decodePatient(patientKey(7), []byte("not json"))
	if err == nil {
		t.Fatal("Expected error for corrupt record")
	}
	if !strings.Contains(err.Error(), patientKey(7)) {
		t.Errorf("Error should name the key, got: %v", err)
	}
}
