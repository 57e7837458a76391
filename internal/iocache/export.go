package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/parquet"
)

// ExportRuns writes every recorded run and peak to Parquet files named after outputFile.
func ExportRuns(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled. Set --run-backend to record runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total peak records: %d\n", status.TableSizes[peaksTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	peaks, err := store.GetAllPeaks()
	if err != nil {
		return fmt.Errorf("failed to retrieve peaks: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	peaksFile := outputFile + ".peaks.parquet"
	if err := parquet.WritePeaksParquet(parquet.ConvertPeakRecords(peaks), peaksFile); err != nil {
		return fmt.Errorf("failed to write peaks: %w", err)
	}
	fmt.Printf("Exported %d peaks to: %s\n", len(peaks), peaksFile)
	return nil
}
