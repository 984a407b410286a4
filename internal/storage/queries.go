// ABOUTME: Read-only query operations for SQLite storage.
// ABOUTME: List, filter, search, sort, and paginate patient records.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/clinic/internal/models"
)

const patientColumns = "id, patient_name, doctor_name, patient_history, in_clinic, next_appointment, created_at, updated_at"

// GetPatient retrieves a record by id.
func (d *DB) GetPatient(id uint64) (*models.PatientRecord, error) {
	row := d.db.QueryRow("SELECT "+patientColumns+" FROM patients WHERE id = ?", int64(id))
	rec, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{ID: id}
	}
	return rec, err
}

// ListPatients retrieves the full table in id (insertion) order.
func (d *DB) ListPatients() ([]*models.PatientRecord, error) {
	return d.queryPatients("SELECT " + patientColumns + " FROM patients ORDER BY id ASC")
}

// ListAvailable retrieves records not currently marked in clinic.
func (d *DB) ListAvailable() ([]*models.PatientRecord, error) {
	return d.queryPatients("SELECT " + patientColumns + " FROM patients WHERE in_clinic = 0 ORDER BY id ASC")
}

// Paginate returns up to limit records starting at offset, in the same order
// as ListPatients. Offsets past the end and a limit of 0 yield an empty slice.
func (d *DB) Paginate(offset, limit int) ([]*models.PatientRecord, error) {
	if limit <= 0 || offset < 0 {
		return []*models.PatientRecord{}, nil
	}
	return d.queryPatients(
		"SELECT "+patientColumns+" FROM patients ORDER BY id ASC LIMIT ? OFFSET ?",
		limit, offset)
}

// SearchPatients finds records whose patient_name contains the query,
// case-insensitively. Matching happens in Go because SQLite's lower()
// only folds ASCII, which would miss names like "Åsa".
func (d *DB) SearchPatients(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return d.filterPatients(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.PatientName), q)
	})
}

// SearchDoctors finds records whose doctor_name contains the query,
// case-insensitively.
func (d *DB) SearchDoctors(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return d.filterPatients(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.DoctorName), q)
	})
}

// SortByName returns the full table sorted case-insensitively by patient
// name, ascending, with id as tiebreak. Sorting happens in Go for the same
// ASCII-folding reason as the searches.
func (d *DB) SortByName() ([]*models.PatientRecord, error) {
	patients, err := d.ListPatients()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(patients, func(i, j int) bool {
		a := strings.ToLower(patients[i].PatientName)
		b := strings.ToLower(patients[j].PatientName)
		if a != b {
			return a < b
		}
		return patients[i].ID < patients[j].ID
	})
	return patients, nil
}

func (d *DB) filterPatients(keep func(*models.PatientRecord) bool) ([]*models.PatientRecord, error) {
	all, err := d.ListPatients()
	if err != nil {
		return nil, err
	}
	matched := make([]*models.PatientRecord, 0, len(all))
	for _, rec := range all {
		if keep(rec) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// InClinic reports whether the patient is currently marked in clinic.
func (d *DB) InClinic(id uint64) (bool, error) {
	var inClinic int
	err := d.db.QueryRow("SELECT in_clinic FROM patients WHERE id = ?", int64(id)).Scan(&inClinic)
	if errors.Is(err, sql.ErrNoRows) {
		return false, &models.NotFoundError{ID: id}
	}
	if err != nil {
		return false, fmt.Errorf("check in clinic: %w", err)
	}
	return inClinic != 0, nil
}

func (d *DB) queryPatients(query string, args ...interface{}) ([]*models.PatientRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	return scanPatients(rows)
}

// getPatientTx loads a record inside an open transaction.
func getPatientTx(tx *sql.Tx, id uint64) (*models.PatientRecord, error) {
	row := tx.QueryRow("SELECT "+patientColumns+" FROM patients WHERE id = ?", int64(id))
	rec, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{ID: id}
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPatientRow scans one row into a PatientRecord.
func scanPatientRow(row rowScanner) (*models.PatientRecord, error) {
	var rec models.PatientRecord
	var id, nextAppointment, createdAt int64
	var inClinic int
	var updatedAt sql.NullInt64

	err := row.Scan(&id, &rec.PatientName, &rec.DoctorName, &rec.PatientHistory,
		&inClinic, &nextAppointment, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.ID = uint64(id)
	rec.InClinic = inClinic != 0
	rec.NextAppointment = uint64(nextAppointment)
	rec.CreatedAt = uint64(createdAt)
	if updatedAt.Valid {
		u := uint64(updatedAt.Int64)
		rec.UpdatedAt = &u
	}

	return &rec, nil
}

// scanPatient scans a single row, passing sql.ErrNoRows through for the
// caller to translate into NotFoundError.
func scanPatient(row *sql.Row) (*models.PatientRecord, error) {
	rec, err := scanPatientRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return rec, nil
}

// scanPatients scans multiple rows into a slice of records.
func scanPatients(rows *sql.Rows) ([]*models.PatientRecord, error) {
	var patients []*models.PatientRecord

	for rows.Next() {
		rec, err := scanPatientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, rec)
	}

	return patients, rows.Err()
}
