// ABOUTME: Integration tests for the clinic CLI.
// ABOUTME: Builds the binary and drives a full record-management workflow.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	clinicBinary := filepath.Join(projectRoot, "clinic")

	buildCmd := exec.Command("go", "build", "-o", clinicBinary, "./cmd/clinic")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(clinicBinary)

	// Use temp database
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--db", dbPath}, args...)
		cmd := exec.Command(clinicBinary, fullArgs...)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Register patients
	output, err := run("add", "Alice Chen", "Dr. Okafor")
	if err != nil {
		t.Fatalf("Failed to add patient: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Added Alice Chen") {
		t.Errorf("Expected 'Added Alice Chen' in output, got: %s", output)
	}

	output, err = run("add", "Bo Lindqvist", "Dr. Banner", "--history", "annual checkup")
	if err != nil {
		t.Fatalf("Failed to add patient: %v\n%s", err, output)
	}

	// List
	output, err = run("list")
	if err != nil {
		t.Fatalf("Failed to list: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Alice Chen") || !strings.Contains(output, "Bo Lindqvist") {
		t.Errorf("Expected both patients in list output, got: %s", output)
	}

	// Status workflow
	output, err = run("status", "in", "1")
	if err != nil {
		t.Fatalf("Failed to mark in clinic: %v\n%s", err, output)
	}
	output, err = run("list", "--available")
	if err != nil {
		t.Fatalf("Failed to list available: %v\n%s", err, output)
	}
	if strings.Contains(output, "Alice Chen") {
		t.Errorf("In-clinic patient should not be available, got: %s", output)
	}
	if !strings.Contains(output, "Bo Lindqvist") {
		t.Errorf("Expected Bo Lindqvist available, got: %s", output)
	}

	// Appointment
	output, err = run("appointment", "set", "2", "2026-09-01 09:30")
	if err != nil {
		t.Fatalf("Failed to set appointment: %v\n%s", err, output)
	}

	// Search
	output, err = run("search", "patients", "ali")
	if err != nil {
		t.Fatalf("Failed to search: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Alice Chen") {
		t.Errorf("Expected Alice Chen in search output, got: %s", output)
	}

	// History
	output, err = run("history", "1")
	if err != nil {
		t.Fatalf("Failed to show history: %v\n%s", err, output)
	}
	if !strings.Contains(output, "created") || !strings.Contains(output, "status changed") {
		t.Errorf("Expected created and status entries in history, got: %s", output)
	}

	// Delete keeps history
	output, err = run("delete", "2", "--force")
	if err != nil {
		t.Fatalf("Failed to delete: %v\n%s", err, output)
	}
	output, err = run("history", "2")
	if err != nil {
		t.Fatalf("Failed to show history after delete: %v\n%s", err, output)
	}
	if !strings.Contains(output, "deleted") {
		t.Errorf("Expected deleted entry in history, got: %s", output)
	}

	// Export
	output, err = run("export", "json")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Alice Chen") {
		t.Errorf("Expected Alice Chen in export, got: %s", output)
	}
}
