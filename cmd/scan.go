package cmd

import (
	"github.com/huangsam/fragscan/core"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/spf13/cobra"
)

// scanCmd sizes every allele peak.
var scanCmd = &cobra.Command{
	Use:   "scan <trace-path>...",
	Short: "Align the size standard and size every allele peak.",
	Long: `Run the full fragment analysis pipeline on ABIF (.fsa/.ab1) or JSON traces.

For every trace this will:
- Remove the baseline and smooth each dye channel
- Detect peaks, drop artifacts and classify noise and stutter
- Align the ladder channel against the selected size standard
- Convert the scan time of each allele peak into a fragment size

Directories are searched recursively for trace files.

Examples:
  # Size a plate of traces against GS600 LIZ
  fragscan scan plate1/ --ladder LIZ600

  # Use local Southern calibration and export to CSV
  fragscan scan plate1/ --allele-method localsouthern --output csv --output-file alleles.csv

  # Pin two ladder peaks when the ladder is hard to align
  fragscan scan sample.fsa --anchors 1520:100,2410:200

  # List noise and stutter peaks too
  fragscan scan sample.fsa --all`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScan(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run scan", err)
		}
	},
}

// peaksCmd lists sized peaks in a tabular exchange format.
var peaksCmd = &cobra.Command{
	Use:   "peaks <trace-path>...",
	Short: "List sized peaks in standard or peak scanner layout.",
	Long: `Run the pipeline and print one line per peak.

Formats:
  standard    - tab separated SAMPLE, FILENAME, DYE, RTIME, SIZE, HEIGHT, AREA, SCORE
  peakscanner - comma separated layout of the peak scanner export

Examples:
  fragscan peaks plate1/ --peaks-format peakscanner --output-file peaks.csv`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePeaks(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list peaks", err)
		}
	},
}

// alignCmd only aligns the ladder channel.
var alignCmd = &cobra.Command{
	Use:   "align <trace-path>...",
	Short: "Align the size standard channel and report alignment quality.",
	Long: `Scan only the ladder channel of each trace and align it against the size standard.

Reports the winning strategy, its score, the residual sum of squares and how
many ladder sizes were matched. Every strategy attempt is kept in CSV and JSON output.

Use --bad-files to collect traces whose ladder could not be aligned.

Examples:
  fragscan align plate1/ --bad-files mismatched.txt
  fragscan align plate1/ --ladder ROX500 --ladder-dye ROX --output json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAlign(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run ladder alignment", err)
		}
	},
}

// laddersCmd lists every registered size standard.
var laddersCmd = &cobra.Command{
	Use:   "ladders",
	Short: "List the registered size standards.",
	Long: `Show the built-in size standards plus any loaded with --ladder-file.

Examples:
  fragscan ladders
  fragscan ladders --ladder-file panels.yaml --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteLadders(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list ladders", err)
		}
	},
}
