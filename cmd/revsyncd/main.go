package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/cmd/revsyncd/commands"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "revsyncd",
	Short: "revsyncd - Approved-revision semantic sync engine",
	Long: `revsyncd - Keep a wiki's semantic index aligned with approved revisions.

When a document's approved revision differs from its latest, the engine
re-derives structured data from the approved content, stamps it with the
latest revision id so the index accepts it, and rewrites the index.

Available commands:
  serve   - Start the HTTP server and fallback job daemon
  sync    - Run a one-off reconciliation pass for a document
  db      - Manage the engine database
  version - Show build information

Examples:
  revsyncd serve                      # Start the server
  revsyncd sync Main:Welcome          # Reconcile one document now
  revsyncd db stats                   # Show database statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
