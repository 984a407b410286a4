// ABOUTME: CLI command for free-text search over patient and doctor names.
// ABOUTME: Case-insensitive substring matching against the record table.
package main

import (
	"fmt"

	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search patient records",
	Long: `Search patient records by name.

Matching is a case-insensitive substring check, so "ali" matches
"Alice Chen" and "Salim Odeh" alike.

EXAMPLES:

  clinic search patients ali
  clinic search doctors okafor`,
}

var searchPatientsCmd = &cobra.Command{
	Use:   "patients <query>",
	Short: "Search by patient name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0], repo.SearchPatients)
	},
}

var searchDoctorsCmd = &cobra.Command{
	Use:   "doctors <query>",
	Short: "Search by doctor name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(args[0], repo.SearchDoctors)
	},
}

func runSearch(query string, search func(string) ([]*models.PatientRecord, error)) error {
	patients, err := search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(patients) == 0 {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}
	printPatients(patients)
	return nil
}

func init() {
	searchCmd.AddCommand(searchPatientsCmd)
	searchCmd.AddCommand(searchDoctorsCmd)
	rootCmd.AddCommand(searchCmd)
}
