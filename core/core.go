// Package core has core logic for processing samples and batches of trace files.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/outwriter"
	"github.com/huangsam/fragscan/internal/tracefile"
	"github.com/huangsam/fragscan/schema"
)

// ExecutorFunc defines the function signature for executing different pipeline modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteScan aligns the ladder and sizes every sample, then prints the called peaks.
// It serves as the main entry point for the 'scan' mode.
func ExecuteScan(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	batch, runErr := runBatch(ctx, cfg, mgr)
	if batch == nil {
		return runErr
	}
	if err := outwriter.WriteScanResults(batch, cfg, batch.Duration); err != nil {
		return err
	}
	return finishBatch(cfg, batch, runErr)
}

// ExecutePeaks sizes every sample and prints the full peak listing
// in the configured peaks format.
func ExecutePeaks(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	batch, runErr := runBatch(ctx, cfg, mgr)
	if batch == nil {
		return runErr
	}
	if err := outwriter.WritePeakListing(batch, cfg); err != nil {
		return err
	}
	return finishBatch(cfg, batch, runErr)
}

// ExecuteAlign only aligns the ladder channel of every sample and prints
// the alignment report.
func ExecuteAlign(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	batch, runErr := GetAlignResults(ctx, cfg, mgr)
	if batch == nil {
		return runErr
	}
	if err := outwriter.WriteAlignResults(batch, cfg, batch.Duration); err != nil {
		return err
	}
	return finishBatch(cfg, batch, runErr)
}

// ExecuteLadders prints every registered ladder.
func ExecuteLadders(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	names := schema.LadderNames()
	ladders := make([]schema.Ladder, 0, len(names))
	for _, name := range names {
		if l, ok := schema.LookupLadder(name); ok {
			ladders = append(ladders, l)
		}
	}
	return outwriter.WriteLadders(ladders, cfg)
}

// GetScanResults sizes every sample without writing any output.
// Per-sample failures are joined in the returned error next to a usable batch.
func GetScanResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.BatchResult, error) {
	return runBatch(ctx, cfg, mgr)
}

// GetAlignResults aligns the ladder of every sample without writing any output.
func GetAlignResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.BatchResult, error) {
	return runBatch(withAlignOnly(ctx), cfg, mgr)
}

// runBatch expands the input paths and processes them.
// A nil batch means nothing could be processed.
func runBatch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.BatchResult, error) {
	paths, err := tracefile.Expand(cfg.InputPaths)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no trace files found")
	}
	if !shouldSuppressHeader(ctx) {
		outwriter.LogRunHeader(cfg, len(paths))
	}
	return ProcessBatch(ctx, cfg, paths, mgr, contract.NewConsoleObserver(cfg.Verbosity))
}

// finishBatch writes the bad files report and summarizes mismatches.
func finishBatch(cfg *contract.Config, batch *schema.BatchResult, runErr error) error {
	if cfg.BadFiles != "" {
		if err := outwriter.WriteBadFiles(cfg.BadFiles, batch); err != nil {
			return errors.Join(runErr, fmt.Errorf("writing bad files: %w", err))
		}
	}
	if n := len(batch.Mismatched()); n > 0 {
		contract.LogWarn("Ladder mismatch", fmt.Errorf("%d of %d samples did not match %s", n, len(batch.Samples), cfg.Ladder.Name))
	}
	return runErr
}
