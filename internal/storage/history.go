// ABOUTME: Append-only per-record change log for SQLite storage.
// ABOUTME: Audit entries live in patient_changes and survive record deletion.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/clinic/internal/models"
)

// appendChange inserts one audit entry inside an open transaction. The seq
// column (autoincrement) fixes insertion order.
func appendChange(tx *sql.Tx, patientID uint64, c models.ChangeRecord) error {
	_, err := tx.Exec(`
		INSERT INTO patient_changes (event_id, patient_id, change_type, timestamp)
		VALUES (?, ?, ?, ?)
	`, c.EventID.String(), int64(patientID), string(c.ChangeType), int64(c.Timestamp))
	if err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	return nil
}

// History returns a record's audit trail in chronological (insertion) order.
// Ids with no history, including ids that never existed, yield an empty
// slice; the caller decides whether that implies "no such record".
func (d *DB) History(id uint64) ([]models.ChangeRecord, error) {
	rows, err := d.db.Query(`
		SELECT event_id, change_type, timestamp
		FROM patient_changes
		WHERE patient_id = ?
		ORDER BY seq ASC
	`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("patient history: %w", err)
	}
	defer rows.Close()

	changes := []models.ChangeRecord{}
	for rows.Next() {
		var c models.ChangeRecord
		var eventID, changeType string
		var timestamp int64

		if err := rows.Scan(&eventID, &changeType, &timestamp); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}

		c.EventID, _ = uuid.Parse(eventID)
		c.ChangeType = models.ChangeType(changeType)
		c.Timestamp = uint64(timestamp)
		changes = append(changes, c)
	}

	return changes, rows.Err()
}

// Wipe removes all records, all history, and resets the id allocator. This is
// the only path that discards audit entries.
func (d *DB) Wipe() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		"DELETE FROM patients",
		"DELETE FROM patient_changes",
		"UPDATE id_alloc SET high_water = 0 WHERE k = 0",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
	}

	return tx.Commit()
}
