// ABOUTME: CLI command that serves the clinic over the Model Context Protocol.
// ABOUTME: Speaks MCP on stdio so assistants can manage records directly.
package main

import (
	"fmt"

	"github.com/harperreed/clinic/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

The server exposes the full record API as tools (add_patient,
update_patient, search_patients, bulk_update_patients, ...) plus
read-only resources for the patient list and a clinic summary.

Add to an assistant's MCP config:

  {
    "mcpServers": {
      "clinic": {
        "command": "clinic",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(repo)
		if err != nil {
			return fmt.Errorf("failed to create mcp server: %w", err)
		}
		if err := server.Serve(cmd.Context()); err != nil {
			return fmt.Errorf("mcp server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
