// ABOUTME: CLI command for printing a patient's change history.
// ABOUTME: Lists every recorded change event in chronological order.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyVerbose bool

var historyCmd = &cobra.Command{
	Use:     "history <id>",
	Aliases: []string{"log"},
	Short:   "Show a patient's change history",
	Long: `Show the change history of a patient record.

Every create, update, status change, appointment change and deletion
is recorded as one event. History survives deletion of the record
itself, so this works for ids that no longer resolve.

EXAMPLES:

  clinic history 7
  clinic history 7 --verbose    # Include event ids`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		changes, err := repo.History(id)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		if len(changes) == 0 {
			fmt.Printf("No history for patient %d.\n", id)
			return nil
		}

		faint := color.New(color.Faint)
		for _, c := range changes {
			fmt.Printf("%s  %s", faint.Sprint(formatMillis(c.Timestamp)), c.ChangeType)
			if historyVerbose {
				faint.Printf("  %s", c.EventID)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVarP(&historyVerbose, "verbose", "v", false, "include event ids")
	rootCmd.AddCommand(historyCmd)
}
