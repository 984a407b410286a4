// ABOUTME: MCP resource implementations for patient records.
// ABOUTME: Provides clinic://patients, clinic://available, and clinic://summary.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/clinic/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// clinic://patients - the full record table
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "clinic://patients",
		Name:        "All Patients",
		Description: "Every patient record in id order",
		MIMEType:    "application/json",
	}, s.handlePatientsResource)

	// clinic://available - patients not in clinic
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "clinic://available",
		Name:        "Available Patients",
		Description: "Patients not currently in clinic",
		MIMEType:    "application/json",
	}, s.handleAvailableResource)

	// clinic://summary - stat-card dashboard counts
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "clinic://summary",
		Name:        "Clinic Summary Dashboard",
		Description: "Counts of total, in-clinic, and upcoming-appointment patients",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handlePatientsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	patients, err := s.repo.ListPatients()
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	return jsonResource("clinic://patients", map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

func (s *Server) handleAvailableResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	patients, err := s.repo.ListAvailable()
	if err != nil {
		return nil, fmt.Errorf("failed to list available patients: %w", err)
	}

	return jsonResource("clinic://available", map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	patients, err := s.repo.ListPatients()
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	nowMillis := models.NowMillis()
	inClinic := 0
	upcoming := 0
	for _, p := range patients {
		if p.InClinic {
			inClinic++
		}
		if p.NextAppointment > nowMillis {
			upcoming++
		}
	}

	return jsonResource("clinic://summary", map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"counts": map[string]int{
			"total":                 len(patients),
			"in_clinic":             inClinic,
			"available":             len(patients) - inClinic,
			"upcoming_appointments": upcoming,
		},
	})
}

func jsonResource(uri string, payload interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
