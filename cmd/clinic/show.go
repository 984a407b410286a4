// ABOUTME: CLI command for showing the full details of a single patient.
// ABOUTME: Looks up a record by id and prints every field.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"get", "info"},
	Short:   "Show a patient record",
	Long: `Show the full details of a single patient record by id.

EXAMPLES:

  clinic show 7
  clinic get 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		rec, err := repo.GetPatient(id)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			return fmt.Errorf("failed to get patient: %w", err)
		}

		printPatientDetail(rec)
		return nil
	},
}

func printPatientDetail(rec *models.PatientRecord) {
	faint := color.New(color.Faint)

	color.New(color.Bold).Printf("%s ", rec.PatientName)
	faint.Printf("#%d\n", rec.ID)
	fmt.Printf("  Doctor:       %s\n", rec.DoctorName)
	if rec.PatientHistory != "" {
		fmt.Printf("  History:      %s\n", rec.PatientHistory)
	}
	if rec.InClinic {
		fmt.Printf("  Status:       %s\n", color.YellowString("in clinic"))
	} else {
		fmt.Printf("  Status:       %s\n", color.GreenString("available"))
	}
	if rec.NextAppointment != 0 {
		fmt.Printf("  Appointment:  %s\n", formatMillis(rec.NextAppointment))
	} else {
		fmt.Printf("  Appointment:  %s\n", faint.Sprint("unscheduled"))
	}
	fmt.Printf("  Created:      %s\n", formatMillis(rec.CreatedAt))
	if rec.UpdatedAt != nil {
		fmt.Printf("  Updated:      %s\n", formatMillis(*rec.UpdatedAt))
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
}
