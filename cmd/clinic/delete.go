// ABOUTME: CLI command for deleting a patient record.
// ABOUTME: Removes the record after a confirmation prompt unless forced.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete a patient record",
	Long: `Delete a patient record by id.

The record's change history is kept so the deletion stays auditable;
use 'clinic history <id>' to read it afterwards.

EXAMPLES:

  clinic delete 7
  clinic delete 7 --force     # Skip the confirmation prompt`,
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

		if !deleteForce {
			fmt.Printf("Delete %s (#%d)? [y/N] ", rec.PatientName, rec.ID)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		deleted, err := repo.DeletePatient(id)
		if err != nil {
			if models.IsNotFound(err) {
				return fmt.Errorf("patient %d not found", id)
			}
			return fmt.Errorf("failed to delete patient: %w", err)
		}

		color.Green("✓ Deleted %s", deleted.PatientName)
		color.New(color.Faint).Printf("  #%d\n", deleted.ID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "delete without confirmation")
	rootCmd.AddCommand(deleteCmd)
}
