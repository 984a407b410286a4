// ABOUTME: Patient record operations for the Badger backend.
// ABOUTME: Mutations run in single Update transactions; queries filter in memory.
package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harperreed/clinic/internal/models"
)

// CreatePatient validates the payload, allocates the next id, stores the
// record, and appends a "created" audit entry, all in one transaction.
func (s *BadgerStore) CreatePatient(p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var rec *models.PatientRecord

	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := nextIDTxn(txn)
		if err != nil {
			return err
		}
		rec = &models.PatientRecord{
			ID:              id,
			PatientName:     p.PatientName,
			DoctorName:      p.DoctorName,
			PatientHistory:  p.PatientHistory,
			InClinic:        p.InClinic,
			NextAppointment: p.NextAppointment,
			CreatedAt:       now,
		}
		if err := putPatientTxn(txn, rec); err != nil {
			return err
		}
		return appendChangeTxn(txn, id, models.NewChange(models.ChangeCreated, now))
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return rec, nil
}

// UpdatePatient replaces all mutable fields and appends an "updated" entry.
func (s *BadgerStore) UpdatePatient(id uint64, p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.mutatePatient(id, models.ChangeUpdated, func(rec *models.PatientRecord) {
		p.Apply(rec)
	})
}

// DeletePatient removes a record, appending a terminal "deleted" entry in the
// same transaction, and returns the pre-delete snapshot. The record's change
// list is retained for audit until Wipe.
func (s *BadgerStore) DeletePatient(id uint64) (*models.PatientRecord, error) {
	now := s.now()
	var rec *models.PatientRecord

	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = getPatientTxn(txn, id)
		if err != nil {
			return err
		}
		if err := appendChangeTxn(txn, id, models.NewChange(models.ChangeDeleted, now)); err != nil {
			return err
		}
		return txn.Delete(patientKey(id))
	})
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("delete patient: %w", err)
	}
	return rec, nil
}

// SetInClinic sets the in-clinic flag, always bumping updated_at and
// appending a "status changed" entry.
func (s *BadgerStore) SetInClinic(id uint64, inClinic bool) (*models.PatientRecord, error) {
	return s.mutatePatient(id, models.ChangeStatus, func(rec *models.PatientRecord) {
		rec.InClinic = inClinic
	})
}

// SetNextAppointment schedules (or, with 0, unschedules) the next appointment.
func (s *BadgerStore) SetNextAppointment(id uint64, appointment uint64) (*models.PatientRecord, error) {
	return s.mutatePatient(id, models.ChangeAppointment, func(rec *models.PatientRecord) {
		rec.NextAppointment = appointment
	})
}

func (s *BadgerStore) mutatePatient(id uint64, ct models.ChangeType, mutate func(*models.PatientRecord)) (*models.PatientRecord, error) {
	now := s.now()
	var rec *models.PatientRecord

	err := s.db.Update(func(txn *badger.Txn) error {
		var err error
		rec, err = getPatientTxn(txn, id)
		if err != nil {
			return err
		}
		mutate(rec)
		rec.UpdatedAt = &now
		if err := putPatientTxn(txn, rec); err != nil {
			return err
		}
		return appendChangeTxn(txn, id, models.NewChange(ct, now))
	})
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return rec, nil
}

// GetPatient retrieves a record by id.
func (s *BadgerStore) GetPatient(id uint64) (*models.PatientRecord, error) {
	var rec *models.PatientRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getPatientTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListPatients retrieves the full table in id order (key order).
func (s *BadgerStore) ListPatients() ([]*models.PatientRecord, error) {
	return s.listWhere(nil)
}

// ListAvailable retrieves records not currently marked in clinic.
func (s *BadgerStore) ListAvailable() ([]*models.PatientRecord, error) {
	return s.listWhere(func(r *models.PatientRecord) bool {
		return !r.InClinic
	})
}

// Paginate returns up to limit records starting at offset, in id order.
func (s *BadgerStore) Paginate(offset, limit int) ([]*models.PatientRecord, error) {
	all, err := s.ListPatients()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || offset < 0 || offset >= len(all) {
		return []*models.PatientRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// SearchPatients finds records whose patient_name contains the query,
// case-insensitively.
func (s *BadgerStore) SearchPatients(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return s.listWhere(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.PatientName), q)
	})
}

// SearchDoctors finds records whose doctor_name contains the query,
// case-insensitively.
func (s *BadgerStore) SearchDoctors(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return s.listWhere(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.DoctorName), q)
	})
}

// SortByName returns all records sorted case-insensitively by patient name,
// ascending, with id as tiebreak.
func (s *BadgerStore) SortByName() ([]*models.PatientRecord, error) {
	patients, err := s.ListPatients()
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

// InClinic reports whether the patient is currently marked in clinic.
func (s *BadgerStore) InClinic(id uint64) (bool, error) {
	rec, err := s.GetPatient(id)
	if err != nil {
		return false, err
	}
	return rec.InClinic, nil
}

// History returns a record's audit trail in insertion order. Unknown ids
// yield an empty slice.
func (s *BadgerStore) History(id uint64) ([]models.ChangeRecord, error) {
	var changes []models.ChangeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		changes, err = readChangesTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// listWhere iterates all patient keys in order, keeping records that match
// the predicate (nil means keep everything).
func (s *BadgerStore) listWhere(keep func(*models.PatientRecord) bool) ([]*models.PatientRecord, error) {
	var patients []*models.PatientRecord

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(patientKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read patient: %w", err)
			}
			var rec models.PatientRecord
			if err := unmarshalPatient(val, &rec); err != nil {
				return err
			}
			if keep == nil || keep(&rec) {
				r := rec
				patients = append(patients, &r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patients, nil
}

// GetAllData retrieves all data for export, including history of deleted
// records.
func (s *BadgerStore) GetAllData() (*ExportData, error) {
	patients, err := s.ListPatients()
	if err != nil {
		return nil, err
	}

	history := make(map[uint64][]models.ChangeRecord)
	var nextID uint64

	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		nextID, err = readAlloc(txn)
		if err != nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(changesKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			id, err := parseKeyID(key, changesKeyPrefix)
			if err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read changes: %w", err)
			}
			var changes []models.ChangeRecord
			if err := unmarshalChanges(val, &changes); err != nil {
				return err
			}
			history[id] = changes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "clinic",
		NextID:     nextID,
		Patients:   patients,
		History:    history,
	}, nil
}

// ImportData imports data from an export, preserving ids, timestamps, and
// history, and raising the allocator high-water mark past every imported id.
func (s *BadgerStore) ImportData(data *ExportData) error {
	maxID := data.NextID
	for _, rec := range data.Patients {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	for id := range data.History {
		if id > maxID {
			maxID = id
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, rec := range data.Patients {
			if err := putPatientTxn(txn, rec); err != nil {
				return err
			}
		}
		for id, changes := range data.History {
			existing, err := readChangesTxn(txn, id)
			if err != nil {
				return err
			}
			merged := append(existing, changes...)
			if err := writeChangesTxn(txn, id, merged); err != nil {
				return err
			}
		}

		high, err := readAlloc(txn)
		if err != nil {
			return err
		}
		if maxID > high {
			return writeAlloc(txn, maxID)
		}
		return nil
	})
}
