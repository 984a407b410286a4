// ABOUTME: MCP tool implementations for patient records.
// ABOUTME: One tool per record-store operation, including bulk update.
package mcp

import (
	"context"
	"fmt"

	"github.com/harperreed/clinic/internal/models"
	"github.com/harperreed/clinic/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// add_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_patient",
		Description: "Create a new patient record",
	}, s.handleAddPatient)

	// get_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_patient",
		Description: "Get a patient record by id",
	}, s.handleGetPatient)

	// update_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_patient",
		Description: "Replace a patient record's mutable fields",
	}, s.handleUpdatePatient)

	// delete_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_patient",
		Description: "Delete a patient record, returning the pre-delete snapshot",
	}, s.handleDeletePatient)

	// list_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_patients",
		Description: "List all patient records in id order",
	}, s.handleListPatients)

	// list_available_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_available_patients",
		Description: "List patients not currently in clinic",
	}, s.handleListAvailable)

	// paginate_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "paginate_patients",
		Description: "List a page of patient records by offset and limit",
	}, s.handlePaginate)

	// search_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_patients",
		Description: "Search patients by name (case-insensitive substring)",
	}, s.handleSearchPatients)

	// search_doctors
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_doctors",
		Description: "Search patients by doctor name (case-insensitive substring)",
	}, s.handleSearchDoctors)

	// sort_patients_by_name
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sort_patients_by_name",
		Description: "List all patients sorted by patient name",
	}, s.handleSortByName)

	// mark_in_clinic
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "mark_in_clinic",
		Description: "Mark a patient as currently in clinic",
	}, s.handleMarkInClinic)

	// mark_not_in_clinic
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "mark_not_in_clinic",
		Description: "Mark a patient as not in clinic",
	}, s.handleMarkNotInClinic)

	// patient_in_clinic
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "patient_in_clinic",
		Description: "Check whether a patient is currently in clinic",
	}, s.handlePatientInClinic)

	// set_next_appointment
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_next_appointment",
		Description: "Set a patient's next appointment (epoch milliseconds, 0 to clear)",
	}, s.handleSetNextAppointment)

	// patient_history
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "patient_history",
		Description: "Get a patient's change history in chronological order",
	}, s.handlePatientHistory)

	// bulk_update_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "bulk_update_patients",
		Description: "Update many patients in one call with per-item results",
	}, s.handleBulkUpdate)
}

// Tool input/output types

type patientPayloadInput struct {
	PatientName     string `json:"patient_name" jsonschema:"Patient's full name"`
	DoctorName      string `json:"doctor_name" jsonschema:"Attending doctor's name"`
	PatientHistory  string `json:"patient_history,omitempty" jsonschema:"Free-form medical history"`
	InClinic        bool   `json:"in_clinic,omitempty" jsonschema:"Whether the patient is currently in clinic"`
	NextAppointment uint64 `json:"next_appointment,omitempty" jsonschema:"Next appointment as epoch milliseconds (0 = unscheduled)"`
}

func (in *patientPayloadInput) payload() *models.PatientPayload {
	return &models.PatientPayload{
		PatientName:     in.PatientName,
		DoctorName:      in.DoctorName,
		PatientHistory:  in.PatientHistory,
		InClinic:        in.InClinic,
		NextAppointment: in.NextAppointment,
	}
}

type patientIDInput struct {
	ID uint64 `json:"id" jsonschema:"Patient record id"`
}

type updatePatientInput struct {
	ID              uint64 `json:"id" jsonschema:"Patient record id"`
	PatientName     string `json:"patient_name" jsonschema:"Patient's full name"`
	DoctorName      string `json:"doctor_name" jsonschema:"Attending doctor's name"`
	PatientHistory  string `json:"patient_history,omitempty" jsonschema:"Free-form medical history"`
	InClinic        bool   `json:"in_clinic,omitempty" jsonschema:"Whether the patient is currently in clinic"`
	NextAppointment uint64 `json:"next_appointment,omitempty" jsonschema:"Next appointment as epoch milliseconds (0 = unscheduled)"`
}

type paginateInput struct {
	Offset int `json:"offset,omitempty" jsonschema:"Number of records to skip"`
	Limit  int `json:"limit" jsonschema:"Max records to return"`
}

type searchInput struct {
	Query string `json:"query" jsonschema:"Case-insensitive substring to match"`
}

type setAppointmentInput struct {
	ID          uint64 `json:"id" jsonschema:"Patient record id"`
	Appointment uint64 `json:"appointment" jsonschema:"Epoch milliseconds of the appointment; 0 clears it"`
}

type bulkUpdateInput struct {
	Updates []bulkUpdateItem `json:"updates" jsonschema:"Ordered list of per-patient updates"`
}

type bulkUpdateItem struct {
	ID              uint64 `json:"id" jsonschema:"Patient record id"`
	PatientName     string `json:"patient_name" jsonschema:"Patient's full name"`
	DoctorName      string `json:"doctor_name" jsonschema:"Attending doctor's name"`
	PatientHistory  string `json:"patient_history,omitempty" jsonschema:"Free-form medical history"`
	InClinic        bool   `json:"in_clinic,omitempty" jsonschema:"Whether the patient is currently in clinic"`
	NextAppointment uint64 `json:"next_appointment,omitempty" jsonschema:"Next appointment as epoch milliseconds"`
}

type patientOutput struct {
	Patient *models.PatientRecord `json:"patient"`
	Message string                `json:"message"`
}

type inClinicOutput struct {
	ID       uint64 `json:"id"`
	InClinic bool   `json:"in_clinic"`
}

type historyOutput struct {
	ID      uint64                `json:"id"`
	Changes []models.ChangeRecord `json:"changes"`
}

type bulkResultOutput struct {
	ID      uint64                `json:"id"`
	Patient *models.PatientRecord `json:"patient,omitempty"`
	Error   string                `json:"error,omitempty"`
}

type bulkUpdateOutput struct {
	Results []bulkResultOutput `json:"results"`
	Applied int                `json:"applied"`
	Failed  int                `json:"failed"`
}

// Tool handlers

func (s *Server) handleAddPatient(ctx context.Context, req *mcp.CallToolRequest, input patientPayloadInput) (*mcp.CallToolResult, patientOutput, error) {
	rec, err := s.repo.CreatePatient(input.payload())
	if err != nil {
		return nil, patientOutput{}, err
	}
	return nil, patientOutput{
		Patient: rec,
		Message: fmt.Sprintf("Added patient %s (id %d)", rec.PatientName, rec.ID),
	}, nil
}

func (s *Server) handleGetPatient(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, any, error) {
	rec, err := s.repo.GetPatient(input.ID)
	if err != nil {
		return nil, nil, err
	}
	return nil, rec, nil
}

func (s *Server) handleUpdatePatient(ctx context.Context, req *mcp.CallToolRequest, input updatePatientInput) (*mcp.CallToolResult, patientOutput, error) {
	payload := &models.PatientPayload{
		PatientName:     input.PatientName,
		DoctorName:      input.DoctorName,
		PatientHistory:  input.PatientHistory,
		InClinic:        input.InClinic,
		NextAppointment: input.NextAppointment,
	}
	rec, err := s.repo.UpdatePatient(input.ID, payload)
	if err != nil {
		return nil, patientOutput{}, err
	}
	return nil, patientOutput{
		Patient: rec,
		Message: fmt.Sprintf("Updated patient %d", rec.ID),
	}, nil
}

func (s *Server) handleDeletePatient(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, patientOutput, error) {
	rec, err := s.repo.DeletePatient(input.ID)
	if err != nil {
		return nil, patientOutput{}, err
	}
	return nil, patientOutput{
		Patient: rec,
		Message: fmt.Sprintf("Deleted patient %d", rec.ID),
	}, nil
}

func (s *Server) handleListPatients(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.ListPatients()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list patients: %w", err)
	}
	if len(patients) == 0 {
		return nil, map[string]interface{}{"message": "No patients found."}, nil
	}
	return nil, patients, nil
}

func (s *Server) handleListAvailable(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.ListAvailable()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list available patients: %w", err)
	}
	if len(patients) == 0 {
		return nil, map[string]interface{}{"message": "No available patients found."}, nil
	}
	return nil, patients, nil
}

func (s *Server) handlePaginate(ctx context.Context, req *mcp.CallToolRequest, input paginateInput) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.Paginate(input.Offset, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to paginate patients: %w", err)
	}
	return nil, patients, nil
}

func (s *Server) handleSearchPatients(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.SearchPatients(input.Query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return nil, patients, nil
}

func (s *Server) handleSearchDoctors(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.SearchDoctors(input.Query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to search doctors: %w", err)
	}
	return nil, patients, nil
}

func (s *Server) handleSortByName(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	patients, err := s.repo.SortByName()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sort patients: %w", err)
	}
	return nil, patients, nil
}

func (s *Server) handleMarkInClinic(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, patientOutput, error) {
	rec, err := s.repo.SetInClinic(input.ID, true)
	if err != nil {
		return nil, patientOutput{}, err
	}
	return nil, patientOutput{
		Patient: rec,
		Message: fmt.Sprintf("Patient %d marked in clinic", rec.ID),
	}, nil
}

func (s *Server) handleMarkNotInClinic(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, patientOutput, error) {
	rec, err := s.repo.SetInClinic(input.ID, false)
	if err != nil {
		return nil, patientOutput{}, err
	}
	return nil, patientOutput{
		Patient: rec,
		Message: fmt.Sprintf("Patient %d marked not in clinic", rec.ID),
	}, nil
}

func (s *Server) handlePatientInClinic(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, inClinicOutput, error) {
	inClinic, err := s.repo.InClinic(input.ID)
	if err != nil {
		return nil, inClinicOutput{}, err
	}
	return nil, inClinicOutput{ID: input.ID, InClinic: inClinic}, nil
}

func (s *Server) handleSetNextAppointment(ctx context.Context, req *mcp.CallToolRequest, input setAppointmentInput) (*mcp.CallToolResult, patientOutput, error) {
	rec, err := s.repo.SetNextAppointment(input.ID, input.Appointment)
	if err != nil {
		return nil, patientOutput{}, err
	}
	msg := fmt.Sprintf("Appointment set for patient %d", rec.ID)
	if input.Appointment == 0 {
		msg = fmt.Sprintf("Appointment cleared for patient %d", rec.ID)
	}
	return nil, patientOutput{Patient: rec, Message: msg}, nil
}

func (s *Server) handlePatientHistory(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, historyOutput, error) {
	changes, err := s.repo.History(input.ID)
	if err != nil {
		return nil, historyOutput{}, fmt.Errorf("failed to get history: %w", err)
	}
	return nil, historyOutput{ID: input.ID, Changes: changes}, nil
}

func (s *Server) handleBulkUpdate(ctx context.Context, req *mcp.CallToolRequest, input bulkUpdateInput) (*mcp.CallToolResult, bulkUpdateOutput, error) {
	items := make([]storage.UpdateItem, 0, len(input.Updates))
	for _, u := range input.Updates {
		items = append(items, storage.UpdateItem{
			ID: u.ID,
			Payload: models.PatientPayload{
				PatientName:     u.PatientName,
				DoctorName:      u.DoctorName,
				PatientHistory:  u.PatientHistory,
				InClinic:        u.InClinic,
				NextAppointment: u.NextAppointment,
			},
		})
	}

	results := storage.BulkUpdate(s.repo, items)

	out := bulkUpdateOutput{Results: make([]bulkResultOutput, 0, len(results))}
	for _, r := range results {
		item := bulkResultOutput{ID: r.ID, Patient: r.Record}
		if r.Err != nil {
			item.Error = r.Err.Error()
			out.Failed++
		} else {
			out.Applied++
		}
		out.Results = append(out.Results, item)
	}
	return nil, out, nil
}
