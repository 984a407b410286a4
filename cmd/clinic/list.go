// ABOUTME: CLI command for listing patient records.
// ABOUTME: Supports availability filtering, name sorting, and pagination.
package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/models"
	"github.com/spf13/cobra"
)

var (
	listAvailable bool
	listSortName  bool
	listOffset    int
	listLimit     int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List patient records",
	Long: `List patient records.

OUTPUT FORMAT:

  Each line shows: ID  NAME  DOCTOR  STATUS  NEXT APPOINTMENT

  The default order is id ascending (insertion order), which is stable
  across calls and what pagination pages over.

FILTERING & ORDERING:

  --available     only patients not currently in clinic
  --sort-name     sort alphabetically by patient name (case-insensitive)
  --offset/-s and --limit/-n page through the id-ordered table

EXAMPLES:

  clinic list                       # All patients in id order
  clinic list --available           # Patients free for scheduling
  clinic list --sort-name           # Alphabetical
  clinic list -s 20 -n 10           # Records 21-30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listSortName && listAvailable {
			return fmt.Errorf("--sort-name and --available cannot be combined")
		}

		var patients []*models.PatientRecord
		var err error

		switch {
		case listSortName:
			patients, err = repo.SortByName()
		case listAvailable:
			patients, err = repo.ListAvailable()
		case cmd.Flags().Changed("limit") || cmd.Flags().Changed("offset"):
			patients, err = repo.Paginate(listOffset, listLimit)
		default:
			patients, err = repo.ListPatients()
		}
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}

		if len(patients) == 0 {
			fmt.Println("No patients found.")
			return nil
		}

		printPatients(patients)
		return nil
	},
}

func printPatients(patients []*models.PatientRecord) {
	faint := color.New(color.Faint)
	for _, p := range patients {
		status := "available"
		if p.InClinic {
			status = "in clinic"
		}
		appointment := "unscheduled"
		if p.NextAppointment != 0 {
			appointment = formatMillis(p.NextAppointment)
		}
		fmt.Printf("%s %s %s %s %s\n",
			faint.Sprintf("#%-5d", p.ID),
			padRight(truncate(p.PatientName, 20), 20),
			padRight(truncate(p.DoctorName, 20), 20),
			padRight(status, 10),
			faint.Sprint(appointment))
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

func init() {
	listCmd.Flags().BoolVar(&listAvailable, "available", false, "only patients not in clinic")
	listCmd.Flags().BoolVar(&listSortName, "sort-name", false, "sort by patient name")
	listCmd.Flags().IntVarP(&listOffset, "offset", "s", 0, "records to skip (pagination)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results (pagination)")
	rootCmd.AddCommand(listCmd)
}
