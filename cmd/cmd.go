// Package cmd defines the command-line interface for fragscan.
package cmd

import (
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(peaksCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(laddersCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("ladder", contract.DefaultLadder, "Size standard name (see 'fragscan ladders')")
	rootCmd.PersistentFlags().String("ladder-dye", "", "Dye of the ladder channel (defaults to the size standard's dye)")
	rootCmd.PersistentFlags().String("ladder-file", "", "YAML file with additional size standards")
	rootCmd.PersistentFlags().String("baseline-method", string(schema.MedianBaseline), "Baseline estimation: median or minimum or none")
	rootCmd.PersistentFlags().Int("baseline-window", schema.DefaultBaselineWindow, "Baseline window in scans (odd)")
	rootCmd.PersistentFlags().String("allele-method", string(schema.LeastSquareMethod), "Sizing method: leastsquare or cubicspline or localsouthern")
	rootCmd.PersistentFlags().Float64("ladder-min-rfu", 0, "Minimum ladder peak height (0 = default)")
	rootCmd.PersistentFlags().Float64("nonladder-min-rfu", 0, "Minimum allele peak height (0 = default)")
	rootCmd.PersistentFlags().Int("min-rtime", 0, "First scan to search for peaks (0 = default)")
	rootCmd.PersistentFlags().Int("max-rtime", 0, "Last scan to search for peaks (0 = default)")
	rootCmd.PersistentFlags().Int("stutter-rtime", 0, "Scan distance for stutter detection (0 = default)")
	rootCmd.PersistentFlags().Float64("stutter-height", 0, "Height ratio for stutter detection (0 = default)")
	rootCmd.PersistentFlags().Bool("keep-artifacts", false, "Keep peaks flagged as pull-up artifacts")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or tsv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("peaks-format", string(schema.StandardFormat), "Peak listing layout: standard or peakscanner")
	rootCmd.PersistentFlags().String("bad-files", "", "Write traces whose ladder did not align to this file")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().IntP("verbose", "v", contract.DefaultVerbosity, "Diagnostic verbosity: 0 warnings, 1 info, 2 debug")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("use-cache", false, "Cache normalized traces between runs")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("anchors", "", "Pin ladder peaks as rtime:size pairs (e.g., '1520:100,2410:200')")
	rootCmd.PersistentFlags().Bool("all", false, "Include noise, stutter and ladder peaks in listings")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
