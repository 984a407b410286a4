// ABOUTME: CLI commands for viewing and changing clinic configuration.
// ABOUTME: Manages the storage backend and data directory settings.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/clinic/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change configuration",
	Long: `View or change clinic configuration.

Settings live in a JSON file under your XDG config directory
(~/.config/clinic/config.json by default).

SETTINGS:

  backend     Storage backend: sqlite (default), badger, or charm
  data-dir    Root directory for local data files

EXAMPLES:

  clinic config show
  clinic config set backend badger
  clinic config set data-dir ~/clinic-data`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		faint := color.New(color.Faint)
		fmt.Printf("backend:   %s\n", cfg.GetBackend())
		fmt.Printf("data-dir:  %s\n", cfg.GetDataDir())
		faint.Printf("config:    %s\n", config.GetConfigPath())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		key, value := args[0], args[1]
		switch key {
		case "backend":
			switch value {
			case "sqlite", "badger", "charm":
				cfg.Backend = value
			default:
				return fmt.Errorf("unknown backend %q (want sqlite, badger or charm)", value)
			}
		case "data-dir":
			cfg.DataDir = value
		default:
			return fmt.Errorf("unknown setting %q (want backend or data-dir)", key)
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		color.Green("✓ %s set to %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
