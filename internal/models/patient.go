// ABOUTME: PatientRecord, PatientPayload, and ChangeRecord models.
// ABOUTME: Defines record fields, change types, and payload validation.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeType tags a history entry with the operation that produced it.
type ChangeType string

const (
	ChangeCreated     ChangeType = "created"
	ChangeUpdated     ChangeType = "updated"
	ChangeStatus      ChangeType = "status changed"
	ChangeAppointment ChangeType = "appointment changed"
	ChangeDeleted     ChangeType = "deleted"
)

// AllChangeTypes returns all valid change types.
var AllChangeTypes = []ChangeType{
	ChangeCreated, ChangeUpdated, ChangeStatus, ChangeAppointment, ChangeDeleted,
}

// PatientRecord is one patient's stored data.
//
// Timestamps are epoch milliseconds. NextAppointment of 0 means unscheduled.
// UpdatedAt is nil until the first mutation after creation.
type PatientRecord struct {
	ID              uint64  `json:"id" yaml:"id"`
	PatientName     string  `json:"patient_name" yaml:"patient_name"`
	DoctorName      string  `json:"doctor_name" yaml:"doctor_name"`
	PatientHistory  string  `json:"patient_history,omitempty" yaml:"patient_history,omitempty"`
	InClinic        bool    `json:"in_clinic" yaml:"in_clinic"`
	NextAppointment uint64  `json:"next_appointment" yaml:"next_appointment"`
	CreatedAt       uint64  `json:"created_at" yaml:"created_at"`
	UpdatedAt       *uint64 `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// PatientPayload carries the mutable fields for create and update calls.
type PatientPayload struct {
	PatientName     string `json:"patient_name"`
	DoctorName      string `json:"doctor_name"`
	PatientHistory  string `json:"patient_history,omitempty"`
	InClinic        bool   `json:"in_clinic"`
	NextAppointment uint64 `json:"next_appointment"`
}

// Validate checks required fields. It returns a *ValidationError naming the
// first missing field, or nil if the payload is acceptable.
func (p *PatientPayload) Validate() error {
	if strings.TrimSpace(p.PatientName) == "" {
		return &ValidationError{Field: "patient_name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.DoctorName) == "" {
		return &ValidationError{Field: "doctor_name", Reason: "must not be empty"}
	}
	return nil
}

// Apply copies the payload onto an existing record, leaving ID and CreatedAt
// untouched. The caller is responsible for setting UpdatedAt.
func (p *PatientPayload) Apply(r *PatientRecord) {
	r.PatientName = p.PatientName
	r.DoctorName = p.DoctorName
	r.PatientHistory = p.PatientHistory
	r.InClinic = p.InClinic
	r.NextAppointment = p.NextAppointment
}

// ChangeRecord is an immutable audit entry for one committed mutation.
type ChangeRecord struct {
	EventID    uuid.UUID  `json:"event_id" yaml:"event_id"`
	ChangeType ChangeType `json:"change_type" yaml:"change_type"`
	Timestamp  uint64     `json:"timestamp" yaml:"timestamp"`
}

// NewChange creates a ChangeRecord with a generated event id.
func NewChange(ct ChangeType, timestamp uint64) ChangeRecord {
	return ChangeRecord{
		EventID:    uuid.New(),
		ChangeType: ct,
		Timestamp:  timestamp,
	}
}

// NowMillis returns the current wall clock as epoch milliseconds.
func NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
