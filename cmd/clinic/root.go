// ABOUTME: Root Cobra command for clinic CLI.
// ABOUTME: Opens the configured storage backend via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/harperreed/clinic/internal/config"
	"github.com/harperreed/clinic/internal/storage"
	"github.com/spf13/cobra"
)

var (
	repo   storage.Repository
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "clinic",
	Short: "Patient record manager",
	Long: `Clinic is a CLI tool for managing patient records.

WHAT IT STORES:

  Patient records    name, doctor, free-form history, in-clinic status,
                     next appointment
  Change history     an append-only audit trail per record (created,
                     updated, status changed, appointment changed, deleted)

QUICK START:

  $ clinic add "Alice" "Dr. Smith"          # Register a patient
  $ clinic list                             # See all patients
  $ clinic status in 1                      # Mark patient 1 in clinic
  $ clinic appointment set 1 "2026-09-01 09:30"
  $ clinic history 1                        # Audit trail for patient 1

SEARCH & SORT:

  $ clinic search patients ali              # Case-insensitive name search
  $ clinic search doctors smith             # Search by doctor
  $ clinic list --sort-name                 # Alphabetical listing
  $ clinic list --offset 20 --limit 10      # Page through records

BULK UPDATES:

  $ clinic bulk updates.json                # Apply many updates in order;
                                            # one bad item never blocks the rest

MCP INTEGRATION:

  Run 'clinic mcp' to start the Model Context Protocol server for use with
  browser UIs or MCP-compatible AI assistants. Add to your client config:

  {
    "mcpServers": {
      "clinic": { "command": "clinic", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Records are stored in SQLite at ~/.local/share/clinic/clinic.db by
  default. The backend is switchable to Badger or Charm Cloud (E2E
  encrypted sync) in ~/.config/clinic/config.json. Record ids are
  allocated from a persisted counter and never reused, even after
  deletion.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip storage init for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if dbPath != "" {
			var err error
			repo, err = storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			return repo.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (overrides config)")
}

// parseID parses a patient id argument.
func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid patient id: %s", s)
	}
	return id, nil
}

// parseTimeMillis parses a human timestamp into epoch milliseconds.
func parseTimeMillis(s string) (uint64, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return uint64(t.UnixMilli()), nil
		}
	}
	// Raw epoch milliseconds are accepted as-is
	if ms, err := strconv.ParseUint(s, 10, 64); err == nil {
		return ms, nil
	}
	return 0, fmt.Errorf("unrecognized time format")
}

func formatMillis(ms uint64) string {
	return time.UnixMilli(int64(ms)).Local().Format("2006-01-02 15:04")
}
