package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/internal/tracefile"
	"github.com/huangsam/fragscan/schema"
)

// sampleJob is one input path and its position in the batch.
type sampleJob struct {
	index int
	path  string
}

// sampleOutcome carries a worker result back to its batch position.
type sampleOutcome struct {
	index  int
	result *schema.SampleResult
}

// ProcessBatch loads and processes every path with cfg.Workers concurrent workers.
// Results keep the order of paths. A sample whose ladder does not align is
// reported but does not stop the batch. The returned error joins the failures.
func ProcessBatch(ctx context.Context, cfg *contract.Config, paths []string, mgr contract.CacheManager, obs contract.Observer) (*schema.BatchResult, error) {
	start := time.Now()
	batch := &schema.BatchResult{RunID: uuid.NewString()}

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Run Tracking (if configured) ---
	var runID int64
	var runStore contract.RunStore
	if mgr != nil {
		runStore = mgr.GetRunStore()
	}
	if runStore != nil {
		var err error
		runID, err = runStore.BeginRun(batch.RunID, start, cfg.ParamsSummary())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withRunID(ctx, runID)
		}
	}

	// --- 1. Process samples ---
	batch.Samples = processSamples(ctx, cfg, paths, obs)

	// --- 2. End Run Tracking ---
	var totals contract.RunTotals
	var errs []error
	for _, r := range batch.Samples {
		totals.Samples++
		switch r.Status {
		case schema.StatusFailed:
			totals.Failed++
			errs = append(errs, fmt.Errorf("%s: %s", r.Path, r.Error))
		case schema.StatusLadderMismatch:
			totals.Mismatched++
		}
	}
	if runStore != nil && runID > 0 {
		if err := runStore.EndRun(runID, time.Now(), totals); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	batch.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return batch, errors.Join(errs...)
}

// processSamples fans paths out to the worker pool and collects the results in order.
func processSamples(ctx context.Context, cfg *contract.Config, paths []string, obs contract.Observer) []*schema.SampleResult {
	jobs := make(chan sampleJob, len(paths))
	outcomes := make(chan sampleOutcome, len(paths))
	var wg sync.WaitGroup

	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for job := range jobs {
				outcomes <- sampleOutcome{index: job.index, result: processPath(ctx, cfg, job.path, obs)}
			}
		})
	}

	for i, path := range paths {
		jobs <- sampleJob{index: i, path: path}
	}
	close(jobs)

	wg.Wait()
	close(outcomes)

	results := make([]*schema.SampleResult, len(paths))
	for o := range outcomes {
		results[o.index] = o.result
	}
	return results
}

// processPath loads a single trace file and runs the pipeline on it.
func processPath(ctx context.Context, cfg *contract.Config, path string, obs contract.Observer) *schema.SampleResult {
	failed := &schema.SampleResult{
		SampleID:     uuid.NewString(),
		Sample:       path,
		Path:         path,
		Status:       schema.StatusFailed,
		AlleleMethod: cfg.Params.AlleleMethod,
	}
	if err := ctx.Err(); err != nil {
		failed.Error = err.Error()
		return failed
	}

	sample, err := tracefile.Load(path, cfg.LadderDye)
	if err != nil {
		failed.Error = err.Error()
		contract.Emit(contract.WithScope(obs, path, ""), schema.WarnLevel, "load", "%v", err)
		return failed
	}

	result := ProcessSample(ctx, cfg, sample, obs)
	recordSample(ctx, result)
	return result
}

// recordSample stores the peaks of a finished sample when run tracking is active.
func recordSample(ctx context.Context, result *schema.SampleResult) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	store := mgr.GetRunStore()
	if store == nil {
		return
	}
	if err := store.RecordSample(runID, result); err != nil {
		contract.LogWarn(fmt.Sprintf("Failed to record sample %s", result.Sample), err)
	}
}
