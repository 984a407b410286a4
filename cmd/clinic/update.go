// ABOUTME: CLI command for rewriting an existing patient record.
// ABOUTME: Replaces the editable fields of a record with a fresh payload.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var (
	updateHistory     string
	updateInClinic    bool
	updateAppointment string
)

var updateCmd = &cobra.Command{
	Use:   "update <id> <patient name> <doctor name>",
	Short: "Replace a patient record's fields",
	Long: `Replace the editable fields of an existing patient record.

The update is full-payload: the record's name, doctor, history, status
and appointment are all rewritten from the arguments and flags given
here. Omitted flags reset their field to the zero value.

EXAMPLES:

  clinic update 7 "Alice Chen" "Dr. Okafor"
  clinic update 7 "Alice Chen" "Dr. Okafor" --history "post-op follow-up" --in-clinic`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		payload := &models.PatientPayload{
			PatientName:    args[1],
			DoctorName:     args[2],
			PatientHistory: updateHistory,
			InClinic:       updateInClinic,
		}
		if updateAppointment != "" {
			ts, err := parseTimeMillis(updateAppointment)
			if err != nil {
				return fmt.Errorf("invalid appointment time: %w", err)
			}
			payload.NextAppointment = ts
		}

		rec, err := repo.UpdatePatient(id, payload)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			if models.IsValidation(err) {
				return err
			}
			return fmt.Errorf("failed to update patient: %w", err)
		}

		color.Green("✓ Updated %s", rec.PatientName)
		color.New(color.Faint).Printf("  #%d\n", rec.ID)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateHistory, "history", "", "medical history note")
	updateCmd.Flags().BoolVar(&updateInClinic, "in-clinic", false, "mark the patient as currently in clinic")
	updateCmd.Flags().StringVar(&updateAppointment, "appointment", "", "next appointment time (e.g. \"2026-09-01 14:30\")")
	rootCmd.AddCommand(updateCmd)
}
