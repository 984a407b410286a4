// ABOUTME: CLI command for applying a batch of patient updates from a JSON file.
// ABOUTME: Each item succeeds or fails on its own; the batch never aborts early.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/storage"
	"github.com/spf13/cobra"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <file.json>",
	Short: "Apply a batch of patient updates",
	Long: `Apply a batch of patient updates read from a JSON file.

The file holds an array of update items:

  [
    {"id": 3, "payload": {"patient_name": "Alice Chen", "doctor_name": "Dr. Okafor",
      "patient_history": "", "in_clinic": false, "next_appointment": 0}},
    {"id": 9, "payload": {...}}
  ]

Items are applied in file order. A failing item (unknown id, blank
name) is reported and skipped; the remaining items still run.

EXAMPLES:

  clinic bulk updates.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		var items []storage.UpdateItem
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}
		if len(items) == 0 {
			fmt.Println("Nothing to do.")
			return nil
		}

		results := storage.BulkUpdate(repo, items)

		applied := 0
		for _, res := range results {
			if res.Err != nil {
				color.Red("✗ #%d: %v", res.ID, res.Err)
				continue
			}
			applied++
			color.Green("✓ #%d: %s", res.ID, res.Record.PatientName)
		}

		faint := color.New(color.Faint)
		faint.Printf("%d applied, %d failed\n", applied, len(results)-applied)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bulkCmd)
}
