// ABOUTME: CLI command for toggling and checking a patient's in-clinic status.
// ABOUTME: Subcommands mark a patient in, mark them out, or report the current state.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage in-clinic status",
	Long: `Manage a patient's in-clinic status.

A patient is either in clinic or available. Marking in or out records
a status change in the patient's history even when the value does not
change.

EXAMPLES:

  clinic status in 7        # Patient 7 has arrived
  clinic status out 7       # Patient 7 has left
  clinic status check 7     # Is patient 7 in clinic?`,
}

var statusInCmd = &cobra.Command{
	Use:   "in <id>",
	Short: "Mark a patient as in clinic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(args[0], true)
	},
}

var statusOutCmd = &cobra.Command{
	Use:   "out <id>",
	Short: "Mark a patient as out of clinic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(args[0], false)
	},
}

var statusCheckCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "Check whether a patient is in clinic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		inClinic, err := repo.InClinic(id)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			return fmt.Errorf("failed to check status: %w", err)
		}
		if inClinic {
			fmt.Printf("Patient %d is %s\n", id, color.YellowString("in clinic"))
		} else {
			fmt.Printf("Patient %d is %s\n", id, color.GreenString("available"))
		}
		return nil
	},
}

func setStatus(arg string, inClinic bool) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	rec, err := repo.SetInClinic(id, inClinic)
	if err != nil {
		if models.IsNotFound(err) {
			return fmt.Errorf("patient %d not found", id)
		}
		return fmt.Errorf("failed to change status: %w", err)
	}
	if inClinic {
		color.Green("✓ %s is now in clinic", rec.PatientName)
	} else {
		color.Green("✓ %s is now available", rec.PatientName)
	}
	color.New(color.Faint).Printf("  #%d\n", rec.ID)
	return nil
}

func init() {
	statusCmd.AddCommand(statusInCmd)
	statusCmd.AddCommand(statusOutCmd)
	statusCmd.AddCommand(statusCheckCmd)
	rootCmd.AddCommand(statusCmd)
}
