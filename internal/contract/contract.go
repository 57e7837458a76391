// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/fragscan/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetTraceStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking pipeline runs and storing called peaks.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(runUUID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totals RunTotals) error

	// RecordSample stores every peak of a processed sample
	RecordSample(runID int64, result *schema.SampleResult) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns retrieves all runs
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllPeaks retrieves all recorded peaks
	GetAllPeaks() ([]schema.PeakRecord, error)

	// Close closes the underlying connection
	Close() error
}

// RunTotals summarizes sample outcomes at the end of a run.
type RunTotals struct {
	Samples    int
	Failed     int
	Mismatched int
}

// Observer receives diagnostics emitted by pipeline stages.
// Implementations must be safe for concurrent use when shared across workers.
type Observer interface {
	Observe(d schema.Diagnostic)
}
