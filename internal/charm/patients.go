// ABOUTME: Patient record CRUD operations for Charm KV storage.
// ABOUTME: Uses zero-padded keys and client-side filtering, syncing after writes.
package charm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/clinic/internal/models"
	"github.com/harperreed/clinic/internal/storage"
)

func patientKey(id uint64) string {
	return fmt.Sprintf("%s%020d", PatientPrefix, id)
}

func changesKey(id uint64) string {
	return fmt.Sprintf("%s%020d", ChangesPrefix, id)
}

// CreatePatient validates the payload, allocates the next id, stores the
// record, and appends a "created" audit entry. The write lock holds for the
// whole mutation, then changes sync to Charm Cloud.
func (c *Client) CreatePatient(p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(); err != nil {
		return nil, err
	}

	id, err := c.nextID()
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
		CreatedAt:       c.now(),
	}

	if err := c.putPatient(rec); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	if err := c.appendChange(id, models.NewChange(models.ChangeCreated, rec.CreatedAt)); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	c.syncIfEnabled()
	return rec, nil
}

// UpdatePatient replaces all mutable fields and appends an "updated" entry.
func (c *Client) UpdatePatient(id uint64, p *models.PatientPayload) (*models.PatientRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return c.mutatePatient(id, models.ChangeUpdated, func(rec *models.PatientRecord) {
		p.Apply(rec)
	})
}

// DeletePatient removes a record, appending a terminal "deleted" entry, and
// returns the pre-delete snapshot. The change list survives for audit.
func (c *Client) DeletePatient(id uint64) (*models.PatientRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(); err != nil {
		return nil, err
	}

	rec, err := c.getPatient(id)
	if err != nil {
		return nil, err
	}

	if err := c.appendChange(id, models.NewChange(models.ChangeDeleted, c.now())); err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}
	if err := c.kv.Delete([]byte(patientKey(id))); err != nil {
		return nil, fmt.Errorf("delete patient: %w", err)
	}

	c.syncIfEnabled()
	return rec, nil
}

// SetInClinic sets the in-clinic flag, always bumping updated_at and
// appending a "status changed" entry.
func (c *Client) SetInClinic(id uint64, inClinic bool) (*models.PatientRecord, error) {
	return c.mutatePatient(id, models.ChangeStatus, func(rec *models.PatientRecord) {
		rec.InClinic = inClinic
	})
}

// SetNextAppointment schedules (or, with 0, unschedules) the next appointment.
func (c *Client) SetNextAppointment(id uint64, appointment uint64) (*models.PatientRecord, error) {
	return c.mutatePatient(id, models.ChangeAppointment, func(rec *models.PatientRecord) {
		rec.NextAppointment = appointment
	})
}

func (c *Client) mutatePatient(id uint64, ct models.ChangeType, mutate func(*models.PatientRecord)) (*models.PatientRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(); err != nil {
		return nil, err
	}

	rec, err := c.getPatient(id)
	if err != nil {
		return nil, err
	}

	now := c.now()
	mutate(rec)
	rec.UpdatedAt = &now

	if err := c.putPatient(rec); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	if err := c.appendChange(id, models.NewChange(ct, now)); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}

	c.syncIfEnabled()
	return rec, nil
}

// GetPatient retrieves a record by id.
func (c *Client) GetPatient(id uint64) (*models.PatientRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getPatient(id)
}

// ListPatients retrieves the full table in id order.
func (c *Client) ListPatients() ([]*models.PatientRecord, error) {
	return c.listWhere(nil)
}

// ListAvailable retrieves records not currently marked in clinic.
func (c *Client) ListAvailable() ([]*models.PatientRecord, error) {
	return c.listWhere(func(r *models.PatientRecord) bool {
		return !r.InClinic
	})
}

// Paginate returns up to limit records starting at offset, in id order.
func (c *Client) Paginate(offset, limit int) ([]*models.PatientRecord, error) {
	all, err := c.ListPatients()
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
func (c *Client) SearchPatients(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return c.listWhere(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.PatientName), q)
	})
}

// SearchDoctors finds records whose doctor_name contains the query,
// case-insensitively.
func (c *Client) SearchDoctors(query string) ([]*models.PatientRecord, error) {
	q := strings.ToLower(query)
	return c.listWhere(func(r *models.PatientRecord) bool {
		return strings.Contains(strings.ToLower(r.DoctorName), q)
	})
}

// SortByName returns all records sorted case-insensitively by patient name,
// ascending, with id as tiebreak.
func (c *Client) SortByName() ([]*models.PatientRecord, error) {
	patients, err := c.ListPatients()
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
func (c *Client) InClinic(id uint64) (bool, error) {
	rec, err := c.GetPatient(id)
	if err != nil {
		return false, err
	}
	return rec.InClinic, nil
}

// History returns a record's audit trail in insertion order. Unknown ids
// yield an empty slice.
func (c *Client) History(id uint64) ([]models.ChangeRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readChanges(id)
}

// GetAllData retrieves all data for export, including history of deleted
// records.
func (c *Client) GetAllData() (*storage.ExportData, error) {
	patients, err := c.ListPatients()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make(map[uint64][]models.ChangeRecord)
	keys, err := c.keysWithPrefix(ChangesPrefix)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	for _, key := range keys {
		id, err := strconv.ParseUint(key[len(ChangesPrefix):], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse key %q: %w", key, err)
		}
		changes, err := c.readChanges(id)
		if err != nil {
			return nil, err
		}
		history[id] = changes
	}

	nextID, err := c.readAlloc()
	if err != nil {
		return nil, err
	}

	return &storage.ExportData{
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
func (c *Client) ImportData(data *storage.ExportData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkWritable(); err != nil {
		return err
	}

	maxID := data.NextID
	for _, rec := range data.Patients {
		if err := c.putPatient(rec); err != nil {
			return fmt.Errorf("import patient %d: %w", rec.ID, err)
		}
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}
	for id, changes := range data.History {
		existing, err := c.readChanges(id)
		if err != nil {
			return err
		}
		if err := c.writeChanges(id, append(existing, changes...)); err != nil {
			return fmt.Errorf("import history %d: %w", id, err)
		}
		if id > maxID {
			maxID = id
		}
	}

	high, err := c.readAlloc()
	if err != nil {
		return err
	}
	if maxID > high {
		if err := c.writeAlloc(maxID); err != nil {
			return err
		}
	}

	c.syncIfEnabled()
	return nil
}

// Internal helpers. All assume the appropriate lock is held.

func (c *Client) nextID() (uint64, error) {
	high, err := c.readAlloc()
	if err != nil {
		return 0, err
	}
	id := high + 1
	if err := c.writeAlloc(id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) readAlloc() (uint64, error) {
	ok, err := c.exists(AllocKey)
	if err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	if !ok {
		return 0, nil
	}
	val, err := c.get(AllocKey)
	if err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	high, err := strconv.ParseUint(string(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id allocator: %w", err)
	}
	return high, nil
}

func (c *Client) writeAlloc(high uint64) error {
	if err := c.kv.Set([]byte(AllocKey), []byte(strconv.FormatUint(high, 10))); err != nil {
		return fmt.Errorf("advance id allocator: %w", err)
	}
	return nil
}

func (c *Client) getPatient(id uint64) (*models.PatientRecord, error) {
	key := patientKey(id)
	ok, err := c.exists(key)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if !ok {
		return nil, &models.NotFoundError{ID: id}
	}
	data, err := c.get(key)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return decodePatient(key, data)
}

// decodePatient unmarshals a stored record. A record that fails to decode is
// a storage fault, not something to skip over.
func decodePatient(key string, data []byte) (*models.PatientRecord, error) {
	var rec models.PatientRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode patient %s: %w", key, err)
	}
	return &rec, nil
}

func (c *Client) putPatient(rec *models.PatientRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	return c.kv.Set([]byte(patientKey(rec.ID)), data)
}

func (c *Client) readChanges(id uint64) ([]models.ChangeRecord, error) {
	key := changesKey(id)
	ok, err := c.exists(key)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	if !ok {
		return []models.ChangeRecord{}, nil
	}
	data, err := c.get(key)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	var changes []models.ChangeRecord
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	return changes, nil
}

func (c *Client) writeChanges(id uint64, changes []models.ChangeRecord) error {
	data, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	return c.kv.Set([]byte(changesKey(id)), data)
}

func (c *Client) appendChange(id uint64, change models.ChangeRecord) error {
	changes, err := c.readChanges(id)
	if err != nil {
		return err
	}
	return c.writeChanges(id, append(changes, change))
}

// listWhere loads all patient records in key (id) order, keeping records
// that match the predicate (nil means keep everything).
func (c *Client) listWhere(keep func(*models.PatientRecord) bool) ([]*models.PatientRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.keysWithPrefix(PatientPrefix)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	sort.Strings(keys)

	var patients []*models.PatientRecord
	for _, key := range keys {
		data, err := c.get(key)
		if err != nil {
			return nil, fmt.Errorf("list patients: %w", err)
		}
		rec, err := decodePatient(key, data)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(rec) {
			patients = append(patients, rec)
		}
	}
	return patients, nil
}
