// ABOUTME: CLI command for scheduling a patient's next appointment.
// ABOUTME: Subcommands set a new appointment time or clear the current one.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var appointmentCmd = &cobra.Command{
	Use:     "appointment",
	Aliases: []string{"appt"},
	Short:   "Manage a patient's next appointment",
	Long: `Manage a patient's next appointment.

Accepted time formats:

  2026-09-01 14:30
  2026-09-01T14:30
  2026-09-01
  RFC3339 (2026-09-01T14:30:00Z)
  raw epoch milliseconds

EXAMPLES:

  clinic appointment set 7 "2026-09-01 14:30"
  clinic appointment clear 7`,
}

var appointmentSetCmd = &cobra.Command{
	Use:   "set <id> <time>",
	Short: "Set a patient's next appointment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ts, err := parseTimeMillis(args[1])
		if err != nil {
			return fmt.Errorf("invalid appointment time: %w", err)
		}
		rec, err := repo.SetNextAppointment(id, ts)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			return fmt.Errorf("failed to set appointment: %w", err)
		}
		color.Green("✓ Appointment for %s set to %s", rec.PatientName, formatMillis(rec.NextAppointment))
		color.New(color.Faint).Printf("  #%d\n", rec.ID)
		return nil
	},
}

var appointmentClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Clear a patient's next appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rec, err := repo.SetNextAppointment(id, 0)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			return fmt.Errorf("failed to clear appointment: %w", err)
		}
		color.Green("✓ Appointment for %s cleared", rec.PatientName)
		color.New(color.Faint).Printf("  #%d\n", rec.ID)
		return nil
	},
}

func init() {
	appointmentCmd.AddCommand(appointmentSetCmd)
	appointmentCmd.AddCommand(appointmentClearCmd)
	rootCmd.AddCommand(appointmentCmd)
}
