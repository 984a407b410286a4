// ABOUTME: Repository interface for patient record storage.
// ABOUTME: Defines the contract all backends (sqlite, badger, charm) implement.
package storage

import (
	"github.com/harperreed/clinic/internal/models"
)

// Repository defines the storage interface for patient records.
// This interface allows swapping implementations (e.g., for testing).
//
// Mutation methods are atomic: a failed call leaves the table and history
// exactly as they were, and every successful mutation appends exactly one
// ChangeRecord to the record's history.
type Repository interface {
	// Record table mutations
	CreatePatient(p *models.PatientPayload) (*models.PatientRecord, error)
	UpdatePatient(id uint64, p *models.PatientPayload) (*models.PatientRecord, error)
	DeletePatient(id uint64) (*models.PatientRecord, error)
	SetInClinic(id uint64, inClinic bool) (*models.PatientRecord, error)
	SetNextAppointment(id uint64, appointment uint64) (*models.PatientRecord, error)

	// Reads
	GetPatient(id uint64) (*models.PatientRecord, error)
	ListPatients() ([]*models.PatientRecord, error)
	ListAvailable() ([]*models.PatientRecord, error)
	Paginate(offset, limit int) ([]*models.PatientRecord, error)
	SearchPatients(query string) ([]*models.PatientRecord, error)
	SearchDoctors(query string) ([]*models.PatientRecord, error)
	SortByName() ([]*models.PatientRecord, error)
	InClinic(id uint64) (bool, error)

	// History returns a record's audit trail in insertion order. Unknown ids
	// yield an empty slice, not an error.
	History(id uint64) ([]models.ChangeRecord, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Wipe removes all records, history, and the allocator high-water mark.
	Wipe() error

	// Lifecycle
	Close() error
}
