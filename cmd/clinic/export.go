// ABOUTME: CLI commands for exporting and importing the full clinic dataset.
// ABOUTME: Supports JSON and YAML snapshots plus a human-readable markdown report.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportHistory bool
)

var exportCmd = &cobra.Command{
	Use:   "export <json|yaml|markdown>",
	Short: "Export all clinic data",
	Long: `Export all clinic data in the given format.

JSON and YAML snapshots carry everything needed for a lossless
restore: records, change histories (including histories of deleted
records) and the id allocator position. Markdown is a read-only
report for humans.

EXAMPLES:

  clinic export json > backup.json
  clinic export yaml -o backup.yaml
  clinic export markdown --with-history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out []byte
		var err error

		switch args[0] {
		case "json":
			out, err = storage.ExportJSON(repo)
		case "yaml":
			out, err = storage.ExportYAML(repo)
		case "markdown", "md":
			var md string
			md, err = storage.ExportMarkdown(repo, exportHistory)
			out = []byte(md)
		default:
			return fmt.Errorf("unknown format %q (want json, yaml or markdown)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput == "" {
			fmt.Print(string(out))
			return nil
		}
		if err := os.WriteFile(exportOutput, out, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		color.Green("✓ Exported to %s", exportOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import clinic data from a JSON export",
	Long: `Import clinic data from a JSON export file.

Records keep their original ids and histories. The id allocator is
raised past the highest imported id so future records never collide.

EXAMPLES:

  clinic import backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		if err := storage.ImportJSON(repo, data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		color.Green("✓ Imported %s", args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportHistory, "with-history", false, "include change histories in markdown output")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
