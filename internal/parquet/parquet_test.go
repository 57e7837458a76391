package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragscan/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Run))
	for _, col := range []string{
		"run_id", "run_uuid", "start_time", "end_time", "run_duration_ms",
		"total_samples", "failed_samples", "mismatched_samples", "config_params",
	} {
		_, ok := s.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}
}

func TestPeakStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Peak))
	for _, col := range []string{
		"run_id", "sample_id", "sample", "status", "dye", "rtime", "rfu", "area",
		"size", "bin", "qscore", "qcall", "peak_type", "method", "deviation", "call_time",
	} {
		_, ok := s.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}
}

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWriteRunsParquet(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	duration, samples, failed := int32(90000), int32(24), int32(1)
	params := `{"ladder":"LIZ600"}`

	records := []schema.RunRecord{
		{RunID: 1, RunUUID: "a", StartTime: start, EndTime: &end, RunDurationMs: &duration,
			TotalSamples: &samples, FailedSamples: &failed, ConfigParams: &params},
		{RunID: 2, RunUUID: "b", StartTime: start.Add(time.Hour)},
	}
	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteRunsParquet(ConvertRunRecords(records), path))

	rows := readAll[Run](t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].RunUUID)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Millisecond)
	require.NotNil(t, rows[0].TotalSamples)
	assert.Equal(t, int32(24), *rows[0].TotalSamples)
	assert.Nil(t, rows[0].MismatchedSamples)
	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].ConfigParams)
}

func TestWritePeaksParquet(t *testing.T) {
	deviation := 0.04
	records := []schema.PeakRecord{
		{RunID: 1, SampleID: "s1", Sample: "A01", Status: "ok", Dye: "FAM", RTime: 3503, RFU: 1200,
			Area: 8000, Size: 250.3, Bin: 250, QScore: 0.9, QCall: 1, PeakType: "called",
			Method: "leastsquare", Deviation: &deviation, CallTime: time.Now()},
		{RunID: 1, SampleID: "s1", Sample: "A01", Status: "ok", Dye: "FAM", RTime: 900, RFU: 80,
			Size: -1, Bin: -1, PeakType: "noise", Method: "notavailable", CallTime: time.Now()},
	}
	path := filepath.Join(t.TempDir(), "peaks.parquet")
	require.NoError(t, WritePeaksParquet(ConvertPeakRecords(records), path))

	rows := readAll[Peak](t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(250), rows[0].Bin)
	require.NotNil(t, rows[0].Deviation)
	assert.InDelta(t, 0.04, *rows[0].Deviation, 1e-12)
	assert.Nil(t, rows[1].Deviation)
	assert.Equal(t, "noise", rows[1].PeakType)
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WritePeaksParquet(nil, filepath.Join(t.TempDir(), "missing", "peaks.parquet"))
	assert.Error(t, err)
}
