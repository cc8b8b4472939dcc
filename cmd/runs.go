package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackendSetup validates the run-store settings without opening the store.
func runsBackendSetup(_ *cobra.Command, _ []string) error {
	if err := loadInput(); err != nil {
		return err
	}
	return contract.ProcessStoreOnly(cfg, input)
}

// runsSetup validates the run-store settings and opens the store.
func runsSetup(cmd *cobra.Command, args []string) error {
	if err := runsBackendSetup(cmd, args); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}
	return nil
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored scrape runs and repository ratings",
	Long: `Manage the history of scrape runs kept for trend tracking.

Each scrape stores one run row (start, end, project counts, config) and one
rating row per repository.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run tracking statistics
  export  - Export runs and ratings to Parquet
  clear   - Remove all run data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  devhealth runs status

  # Export for analysis in pandas/DuckDB
  devhealth runs export --output-file devhealth-history`,
}

var runsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run tracking statistics and connection details",
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run store status", err)
		}
		iocache.PrintRunStoreStatus(os.Stdout, status)
	},
}

var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs and ratings",
	Long: `Delete all stored scrape runs and repository ratings.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the run tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  devhealth runs export --output-file backup
  devhealth runs clear`,
	PreRunE: runsBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and ratings to Parquet",
	Long: `Export stored runs and repository ratings to two Parquet files:
<output-file>.scrape_runs.parquet and <output-file>.repo_ratings.parquet.

Requires: --output-file parameter

Examples:
  devhealth runs export --output-file devhealth-history`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		outputFile := viper.GetString("output-file")
		if err := iocache.ExportRuns(iocache.Manager.GetRunStore(), outputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations for the run store",
	Long: `Apply or roll back the run store's schema migrations.

Examples:
  # Migrate to latest version
  devhealth runs migrate

  # Roll back everything
  devhealth runs migrate --target-version 0`,
	PreRunE: runsBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Migrations applied successfully.")
	},
}
