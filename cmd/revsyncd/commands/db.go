package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walkwithdeath/SMWApprovedRevsDataSync/config"
	"github.com/walkwithdeath/SMWApprovedRevsDataSync/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the engine database",
	Long: `db — Manage engine database operations

Examples:
  revsyncd db stats     # Show document, revision, and job counts
  revsyncd db migrate   # Apply pending schema migrations`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE:  runDbStats,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbPathFlag string

func init() {
	DbCmd.AddCommand(dbStatsCmd)
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.PersistentFlags().StringVar(&dbPathFlag, "db-path", "", "Custom database path (overrides config)")
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase(dbPathFlag)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	var documents, revisions, approvals, facts int
	row := database.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM revisions),
			(SELECT COUNT(*) FROM approvals),
			(SELECT COUNT(*) FROM semantic_data)
	`)
	if err := row.Scan(&documents, &revisions, &approvals, &facts); err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "failed to query storage stats")
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	path := dbPathFlag
	if path == "" {
		path = cfg.Database.Path
	}
	fmt.Printf("Database Path:  %s\n", path)
	fmt.Printf("Documents:      %d\n", documents)
	fmt.Printf("Revisions:      %d\n", revisions)
	fmt.Printf("Approvals:      %d\n", approvals)
	fmt.Printf("Indexed Facts:  %d\n", facts)
	fmt.Println()

	rows, err := database.Query(`
		SELECT status, COUNT(*) FROM sync_jobs GROUP BY status ORDER BY status
	`)
	if err != nil {
		return errors.Wrap(err, "failed to query job stats")
	}
	defer rows.Close()

	fmt.Println("Fallback Jobs:")
	any := false
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return errors.Wrap(err, "failed to scan job stats")
		}
		fmt.Printf("  %-10s %d\n", status, count)
		any = true
	}
	if !any {
		fmt.Println("  (none)")
	}
	return rows.Err()
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	// openDatabase migrates as part of opening
	database, err := openDatabase(dbPathFlag)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	fmt.Println("Migrations applied")
	return nil
}
