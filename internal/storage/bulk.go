// ABOUTME: Bulk update coordinator over any Repository.
// ABOUTME: Processes items strictly in order with per-item error isolation.
package storage

import (
	"github.com/harperreed/clinic/internal/models"
)

// UpdateItem is one (id, payload) pair in a bulk update request.
type UpdateItem struct {
	ID      uint64                `json:"id"`
	Payload models.PatientPayload `json:"payload"`
}

// UpdateResult is the outcome for one bulk update item. Exactly one of
// Record and Err is set.
type UpdateResult struct {
	ID     uint64
	Record *models.PatientRecord
	Err    error
}

// BulkUpdate applies each item left to right by delegating to
// r.UpdatePatient. One failing item never aborts or rolls back its siblings;
// the result slice has the same length and order as items. Sequential
// processing keeps the audit ordering in the history log reproducible.
func BulkUpdate(r Repository, items []UpdateItem) []UpdateResult {
	results := make([]UpdateResult, 0, len(items))
	for _, item := range items {
		payload := item.Payload
		rec, err := r.UpdatePatient(item.ID, &payload)
		results = append(results, UpdateResult{ID: item.ID, Record: rec, Err: err})
	}
	return results
}
