// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for patients, patient_changes, and the id allocator.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY,
		patient_name TEXT NOT NULL,
		doctor_name TEXT NOT NULL,
		patient_history TEXT NOT NULL DEFAULT '',
		in_clinic INTEGER NOT NULL DEFAULT 0,
		next_appointment INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS patient_changes (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL UNIQUE,
		patient_id INTEGER NOT NULL,
		change_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS id_alloc (
		k INTEGER PRIMARY KEY CHECK (k = 0),
		high_water INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO id_alloc (k, high_water) VALUES (0, 0);

	CREATE INDEX IF NOT EXISTS idx_patients_name ON patients(patient_name COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_patients_in_clinic ON patients(in_clinic);
	CREATE INDEX IF NOT EXISTS idx_changes_patient ON patient_changes(patient_id, seq);
	`

	_, err := d.db.Exec(schema)
	return err
}
