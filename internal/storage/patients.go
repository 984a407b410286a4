// ABOUTME: Patient record mutations for SQLite storage.
// ABOUTME: Each mutation is one transaction covering row, audit entry, and allocator.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/harperreed/clinic/internal/models"
)

// CreatePatient validates the payload, allocates the next id, inserts the
// record, and appends a "created" audit entry.
func (d *DB) CreatePatient(p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := d.now()

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := nextID(tx)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	rec := &models.PatientRecord{
		ID:              id,
		PatientName:     p.PatientName,
		DoctorName:      p.DoctorName,
		PatientHistory:  p.PatientHistory,
		InClinic:        p.InClinic,
		NextAppointment: p.NextAppointment,
		CreatedAt:       now,
	}

	_, err = tx.Exec(`
		INSERT INTO patients (id, patient_name, doctor_name, patient_history, in_clinic, next_appointment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
	`, int64(rec.ID), rec.PatientName, rec.DoctorName, rec.PatientHistory,
		boolToInt(rec.InClinic), int64(rec.NextAppointment), int64(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	if err := appendChange(tx, rec.ID, models.NewChange(models.ChangeCreated, now)); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return rec, nil
}

// UpdatePatient replaces all mutable fields of an existing record and appends
// an "updated" audit entry. Validation failures reject the call before any
// state change.
func (d *DB) UpdatePatient(id uint64, p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return d.mutatePatient(id, models.ChangeUpdated, func(rec *models.PatientRecord) {
		p.Apply(rec)
	})
}

// DeletePatient removes a record, appending a terminal "deleted" audit entry
// in the same transaction. It returns the record as it was immediately before
// removal. History rows are retained for audit until Wipe.
func (d *DB) DeletePatient(id uint64) (*models.PatientRecord, error) {
	now := d.now()

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := getPatientTx(tx, id)
	if err != nil {
		return nil, err
	}

	if err := appendChange(tx, id, models.NewChange(models.ChangeDeleted, now)); err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM patients WHERE id = ?", int64(id)); err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}
	return rec, nil
}

// SetInClinic sets the in-clinic flag. Every successful call bumps updated_at
// and appends a "status changed" entry, whether or not the value changed.
func (d *DB) SetInClinic(id uint64, inClinic bool) (*models.PatientRecord, error) {
	return d.mutatePatient(id, models.ChangeStatus, func(rec *models.PatientRecord) {
		rec.InClinic = inClinic
	})
}

// SetNextAppointment schedules (or, with 0, unschedules) the next appointment.
func (d *DB) SetNextAppointment(id uint64, appointment uint64) (*models.PatientRecord, error) {
	return d.mutatePatient(id, models.ChangeAppointment, func(rec *models.PatientRecord) {
		rec.NextAppointment = appointment
	})
}

// mutatePatient loads a record, applies mutate, bumps updated_at, writes the
// row back, and appends one audit entry, all in a single transaction.
func (d *DB) mutatePatient(id uint64, ct models.ChangeType, mutate func(*models.PatientRecord)) (*models.PatientRecord, error) {
	now := d.now()

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := getPatientTx(tx, id)
	if err != nil {
		return nil, err
	}

	mutate(rec)
	rec.UpdatedAt = &now

	_, err = tx.Exec(`
		UPDATE patients
		SET patient_name = ?, doctor_name = ?, patient_history = ?, in_clinic = ?, next_appointment = ?, updated_at = ?
		WHERE id = ?
	`, rec.PatientName, rec.DoctorName, rec.PatientHistory,
		boolToInt(rec.InClinic), int64(rec.NextAppointment), int64(now), int64(id))
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	if err := appendChange(tx, id, models.NewChange(ct, now)); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return rec, nil
}

// nextID bumps and returns the persisted allocator high-water mark. Deleted
// ids are never reissued because the mark only ever grows.
func nextID(tx *sql.Tx) (uint64, error) {
	var high int64
	if err := tx.QueryRow("SELECT high_water FROM id_alloc WHERE k = 0").Scan(&high); err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	id := uint64(high) + 1
	if _, err := tx.Exec("UPDATE id_alloc SET high_water = ? WHERE k = 0", int64(id)); err != nil {
		return 0, fmt.Errorf("advance id allocator: %w", err)
	}
	return id, nil
}

// raiseHighWater lifts the allocator mark to at least id. Used by import.
func raiseHighWater(tx *sql.Tx, id uint64) error {
	_, err := tx.Exec("UPDATE id_alloc SET high_water = ? WHERE k = 0 AND high_water < ?", int64(id), int64(id))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
