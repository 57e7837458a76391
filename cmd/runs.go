package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/iocache"
	"github.com/huangsam/fragscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runBackendFromConfig reads and validates the run store settings.
// An empty backend means run tracking is disabled.
func runBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.NoneBackend
	if s := viper.GetString("run-backend"); s != "" {
		backend = schema.DatabaseBackend(s)
	}
	connStr := viper.GetString("run-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run store operations.
func runsSetup() error {
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}

	// Initialize the run store only (no trace cache for run commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run store: %w", err)
	}

	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for run commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetupWrapper resolves the run store settings without creating any tables,
// so migrations can start from an empty database.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runBackendFromConfig()
	if err != nil {
		return err
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	return nil
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs and called peaks",
	Long: `Manage the history of pipeline runs.

With --run-backend set, every run stores its settings and sample totals,
plus every peak of every sample with its size, bin and quality.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run store statistics
  export  - Export runs and peaks to Parquet
  clear   - Remove all recorded runs
  migrate - Run database schema migrations`,
}

// runsClearCmd clears the run store.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and peaks",
	Long: `Delete all stored runs and peaks.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  fragscan runs export --output-file backup
  fragscan runs clear`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		iocache.CloseStores() // release the SQLite file before removing it
		if err := iocache.ClearRuns(cfg.RunBackend, runDBPath(), cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run store statistics and connection details",
	Long: `Show the backend, run count, run time range, sample total and table sizes.

Examples:
  fragscan runs status --run-backend sqlite`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", errors.New("run tracking is disabled. Set --run-backend"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports runs and peaks to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and peaks to Parquet",
	Long: `Export all recorded data to two Parquet files:
  <output-file>.runs.parquet  - one row per run
  <output-file>.peaks.parquet - one row per peak

Requires: --output-file parameter

Examples:
  fragscan runs export --run-backend sqlite --output-file history
  duckdb -c "SELECT bin, count(*) FROM read_parquet('history.peaks.parquet') GROUP BY bin"`,
	PreRunE: runsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExportRuns(iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  fragscan runs migrate --run-backend sqlite
  fragscan runs migrate --run-backend sqlite --target-version 1
  fragscan runs migrate --run-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		ver, err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("Run store is at schema version %d.\n", ver)
	},
}

// runDBPath returns the SQLite file backing the run store.
func runDBPath() string {
	if cfg.RunBackend == schema.SQLiteBackend && cfg.RunDBConnect != "" {
		return cfg.RunDBConnect
	}
	return contract.GetRunDBFilePath()
}
