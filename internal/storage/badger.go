// ABOUTME: Badger-backed Repository implementation.
// ABOUTME: Pure keyed storage with zero-padded keys and a persisted allocator.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/harperreed/clinic/internal/models"
)

const (
	patientKeyPrefix = "patient:"
	changesKeyPrefix = "changes:"
	allocKey         = "alloc:patient"
)

// BadgerStore implements Repository on top of a Badger key-value store.
// Record keys are zero-padded so key order equals id order.
type BadgerStore struct {
	db   *badger.DB
	path string

	// now supplies epoch-millisecond timestamps; swapped out in tests.
	now func() uint64
}

// OpenBadger opens or creates a Badger database in the given directory.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db, path: dir, now: models.NowMillis}, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func patientKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", patientKeyPrefix, id))
}

func changesKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", changesKeyPrefix, id))
}

// nextIDTxn reads, bumps, and writes the allocator high-water mark inside
// the caller's transaction.
func nextIDTxn(txn *badger.Txn) (uint64, error) {
	high, err := readAlloc(txn)
	if err != nil {
		return 0, err
	}
	id := high + 1
	if err := writeAlloc(txn, id); err != nil {
		return 0, err
	}
	return id, nil
}

func readAlloc(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(allocKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, fmt.Errorf("read id allocator: %w", err)
	}
	high, err := strconv.ParseUint(string(val), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id allocator: %w", err)
	}
	return high, nil
}

func writeAlloc(txn *badger.Txn, high uint64) error {
	if err := txn.Set([]byte(allocKey), []byte(strconv.FormatUint(high, 10))); err != nil {
		return fmt.Errorf("advance id allocator: %w", err)
	}
	return nil
}

// getPatientTxn loads and decodes one record inside a transaction.
func getPatientTxn(txn *badger.Txn, id uint64) (*models.PatientRecord, error) {
	item, err := txn.Get(patientKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &models.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	var rec models.PatientRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	return &rec, nil
}

func putPatientTxn(txn *badger.Txn, rec *models.PatientRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	if err := txn.Set(patientKey(rec.ID), data); err != nil {
		return fmt.Errorf("put patient: %w", err)
	}
	return nil
}

// appendChangeTxn appends one audit entry to the record's change list. The
// list is stored whole as JSON so the append commits atomically with the
// record mutation in the same transaction.
func appendChangeTxn(txn *badger.Txn, id uint64, c models.ChangeRecord) error {
	changes, err := readChangesTxn(txn, id)
	if err != nil {
		return err
	}
	return writeChangesTxn(txn, id, append(changes, c))
}

func readChangesTxn(txn *badger.Txn, id uint64) ([]models.ChangeRecord, error) {
	item, err := txn.Get(changesKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []models.ChangeRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	var changes []models.ChangeRecord
	if err := json.Unmarshal(val, &changes); err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	return changes, nil
}

func writeChangesTxn(txn *badger.Txn, id uint64, changes []models.ChangeRecord) error {
	data, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	if err := txn.Set(changesKey(id), data); err != nil {
		return fmt.Errorf("write changes: %w", err)
	}
	return nil
}

func unmarshalPatient(data []byte, rec *models.PatientRecord) error {
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("unmarshal patient: %w", err)
	}
	return nil
}

func unmarshalChanges(data []byte, changes *[]models.ChangeRecord) error {
	if err := json.Unmarshal(data, changes); err != nil {
		return fmt.Errorf("unmarshal changes: %w", err)
	}
	return nil
}

// parseKeyID recovers the numeric id from a zero-padded key.
func parseKeyID(key, prefix string) (uint64, error) {
	id, err := strconv.ParseUint(key[len(prefix):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse key %q: %w", key, err)
	}
	return id, nil
}

// Wipe drops all records, history, and the allocator key.
func (s *BadgerStore) Wipe() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	return nil
}
