// ABOUTME: Export and import functionality for patient data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/clinic/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for patient data. NextID is
// the allocator high-water mark, carried so a restore never reissues an id
// that existed before the backup.
type ExportData struct {
	Version    string                           `json:"version" yaml:"version"`
	ExportedAt time.Time                        `json:"exported_at" yaml:"exported_at"`
	Tool       string                           `json:"tool" yaml:"tool"`
	NextID     uint64                           `json:"next_id" yaml:"next_id"`
	Patients   []*models.PatientRecord          `json:"patients" yaml:"patients"`
	History    map[uint64][]models.ChangeRecord `json:"history" yaml:"history"`
}

// GetAllData retrieves all data for export, including history of deleted
// records.
func (d *DB) GetAllData() (*ExportData, error) {
	patients, err := d.ListPatients()
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	history := make(map[uint64][]models.ChangeRecord)
	ids, err := d.historyIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		changes, err := d.History(id)
		if err != nil {
			return nil, fmt.Errorf("patient history: %w", err)
		}
		history[id] = changes
	}

	var high int64
	if err := d.db.QueryRow("SELECT high_water FROM id_alloc WHERE k = 0").Scan(&high); err != nil {
		return nil, fmt.Errorf("read id allocator: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "clinic",
		NextID:     uint64(high),
		Patients:   patients,
		History:    history,
	}, nil
}

// historyIDs returns every patient id with at least one audit entry,
// including ids whose records were deleted.
func (d *DB) historyIDs() ([]uint64, error) {
	rows, err := d.db.Query("SELECT DISTINCT patient_id FROM patient_changes ORDER BY patient_id ASC")
	if err != nil {
		return nil, fmt.Errorf("history ids: %w", err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history id: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	return ids, rows.Err()
}

// ImportData imports data from an export file, preserving ids, timestamps,
// and history. The allocator high-water mark is raised so imported ids are
// never reissued.
func (d *DB) ImportData(data *ExportData) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	maxID := data.NextID
	for _, rec := range data.Patients {
		if err := insertPatientTx(tx, rec); err != nil {
			return fmt.Errorf("import patient %d: %w", rec.ID, err)
		}
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}

	var ids []uint64
	for id := range data.History {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		for _, c := range data.History[id] {
			if err := appendChange(tx, id, c); err != nil {
				return fmt.Errorf("import history %d: %w", id, err)
			}
		}
		if id > maxID {
			maxID = id
		}
	}

	if err := raiseHighWater(tx, maxID); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	return tx.Commit()
}

// insertPatientTx inserts a record verbatim (id and timestamps preserved).
func insertPatientTx(tx *sql.Tx, rec *models.PatientRecord) error {
	var updatedAt interface{}
	if rec.UpdatedAt != nil {
		updatedAt = int64(*rec.UpdatedAt)
	}
	_, err := tx.Exec(`
		INSERT INTO patients (id, patient_name, doctor_name, patient_history, in_clinic, next_appointment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(rec.ID), rec.PatientName, rec.DoctorName, rec.PatientHistory,
		boolToInt(rec.InClinic), int64(rec.NextAppointment), int64(rec.CreatedAt), updatedAt)
	return err
}

// ExportJSON exports all data from a repository as JSON.
func ExportJSON(r Repository) ([]byte, error) {
	data, err := r.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data from a repository as YAML.
func ExportYAML(r Repository) ([]byte, error) {
	data, err := r.GetAllData()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ExportMarkdown exports the patient table (and optionally each record's
// history) as Markdown tables.
func ExportMarkdown(r Repository, withHistory bool) (string, error) {
	data, err := r.GetAllData()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Patient Records - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	sb.WriteString("| ID | Patient | Doctor | In Clinic | Next Appointment | Created |\n")
	sb.WriteString("|----|---------|--------|-----------|------------------|--------|\n")
	for _, p := range data.Patients {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			p.ID, p.PatientName, p.DoctorName,
			yesNo(p.InClinic),
			formatAppointment(p.NextAppointment),
			formatMillis(p.CreatedAt)))
	}

	if withHistory {
		for _, p := range data.Patients {
			changes := data.History[p.ID]
			if len(changes) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n## %s (id %d)\n\n", p.PatientName, p.ID))
			sb.WriteString("| Time | Change |\n")
			sb.WriteString("|------|--------|\n")
			for _, c := range changes {
				sb.WriteString(fmt.Sprintf("| %s | %s |\n",
					formatMillis(c.Timestamp), c.ChangeType))
			}
		}
	}

	return sb.String(), nil
}

// ImportJSON imports data into a repository from JSON bytes.
func ImportJSON(r Repository, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return r.ImportData(&exportData)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatAppointment(ms uint64) string {
	if ms == 0 {
		return "unscheduled"
	}
	return formatMillis(ms)
}

func formatMillis(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02 15:04")
}
