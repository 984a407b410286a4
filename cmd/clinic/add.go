// ABOUTME: CLI command for registering new patients.
// ABOUTME: Validates required names and supports history, status, and appointment flags.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var (
	addHistory     string
	addInClinic    bool
	addAppointment string
)

var addCmd = &cobra.Command{
	Use:     "add <patient name> <doctor name>",
	Aliases: []string{"a"},
	Short:   "Register a new patient",
	Long: `Register a new patient record. Patient and doctor names are required
and must be non-empty; everything else is optional.

The record gets the next id from a persisted counter. Ids are never
reused, even after deletion.

Examples:
  clinic add "Alice" "Dr. Smith"
  clinic add "Bob" "Dr. Jones" --history "type 2 diabetes"
  clinic add "Carol" "Dr. Wu" --in-clinic
  clinic add "Dan" "Dr. Lee" --appointment "2026-09-01 09:30"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := &models.PatientPayload{
			PatientName:    args[0],
			DoctorName:     args[1],
			PatientHistory: addHistory,
			InClinic:       addInClinic,
		}

		if addAppointment != "" {
			ms, err := parseTimeMillis(addAppointment)
			if err != nil {
				return fmt.Errorf("invalid appointment time: %s", addAppointment)
			}
			payload.NextAppointment = ms
		}

		rec, err := repo.CreatePatient(payload)
		if err != nil {
			return fmt.Errorf("failed to add patient: %w", err)
		}

		color.Green("✓ Added %s", rec.PatientName)
		fmt.Printf("  %s %s (doctor: %s)\n",
			color.New(color.Faint).Sprintf("#%d", rec.ID),
			rec.PatientName, rec.DoctorName)

		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addHistory, "history", "", "free-form medical history")
	addCmd.Flags().BoolVar(&addInClinic, "in-clinic", false, "mark the patient as currently in clinic")
	addCmd.Flags().StringVar(&addAppointment, "appointment", "", "next appointment (YYYY-MM-DD HH:MM)")
	rootCmd.AddCommand(addCmd)
}
