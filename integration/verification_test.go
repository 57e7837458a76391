//go:build basic

// Package integration contains integration tests for fragscan.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database backends: go test -tags database ./integration
package integration

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScanVerification sizes synthetic traces and checks every call against the planted fragments.
func TestScanVerification(t *testing.T) {
	planted := map[string][]float64{
		"S01": {120, 260},
		"S02": {180},
		"S03": {95, 310, 420},
	}
	dir := writeTraces(t, planted)

	out, err := runFragscan(t, dir, "scan", "traces", "--ladder", "LIZ500", "--output", "csv", "--color", "no")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	header := records[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}

	got := make(map[string][]float64)
	for _, rec := range records[1:] {
		size, err := strconv.ParseFloat(rec[col("size")], 64)
		require.NoError(t, err)
		got[rec[col("sample")]] = append(got[rec[col("sample")]], size)
	}

	for sample, sizes := range planted {
		t.Run(sample, func(t *testing.T) {
			require.Len(t, got[sample], len(sizes))
			for i, want := range sizes {
				assert.InDelta(t, want, got[sample][i], 1.0, "fragment %d", i)
			}
		})
	}
}

// TestAlignVerification checks that a broken ladder is reported and listed as a bad file.
func TestAlignVerification(t *testing.T) {
	dir := writeTraces(t, map[string][]float64{"S01": {120}}, "B01")
	badFiles := filepath.Join(dir, "bad.txt")

	out, err := runFragscan(t, dir, "align", "traces", "--ladder", "LIZ500", "--output", "json", "--bad-files", badFiles)
	require.NoError(t, err)

	var rows []struct {
		Sample  string `json:"sample"`
		Status  string `json:"status"`
		Matched int    `json:"matched"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	// Traces are processed in path order.
	assert.Equal(t, "B01", rows[0].Sample)
	assert.Equal(t, string(schema.StatusLadderMismatch), rows[0].Status)
	assert.Equal(t, "S01", rows[1].Sample)
	assert.Equal(t, string(schema.StatusOK), rows[1].Status)
	assert.Equal(t, 16, rows[1].Matched)

	listed, err := os.ReadFile(badFiles)
	require.NoError(t, err)
	assert.Equal(t, "LadderMismatch: traces/B01.json\n", string(listed))
}

// TestCustomLadderFile registers a ladder from YAML and lists it.
func TestCustomLadderFile(t *testing.T) {
	dir := t.TempDir()
	ladderFile := filepath.Join(dir, "ladders.yaml")
	require.NoError(t, os.WriteFile(ladderFile, []byte(`ladders:
  - name: mini8
    dye: ROX
    sizes: [50, 75, 100, 150, 200, 250, 300, 350]
`), 0o644))

	out, err := runFragscan(t, dir, "ladders", "--ladder-file", ladderFile, "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "MINI8,ROX,8,50,350")
	assert.Contains(t, out, "LIZ600,LIZ,36")
}

// TestRunTrackingSQLite records a run in SQLite and exports it to Parquet.
func TestRunTrackingSQLite(t *testing.T) {
	dir := writeTraces(t, map[string][]float64{"S01": {120, 260}})
	runDB := filepath.Join(dir, "runs.db")

	_, err := runFragscan(t, dir, "scan", "traces", "--ladder", "LIZ500", "--output", "csv",
		"--run-backend", "sqlite", "--run-db-connect", runDB)
	require.NoError(t, err)

	status, err := runFragscan(t, dir, "runs", "status", "--run-backend", "sqlite", "--run-db-connect", runDB)
	require.NoError(t, err)
	assert.Contains(t, status, "Total Runs: 1")

	_, err = runFragscan(t, dir, "runs", "export", "--run-backend", "sqlite", "--run-db-connect", runDB,
		"--output-file", filepath.Join(dir, "history"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "history.runs.parquet"))
	assert.FileExists(t, filepath.Join(dir, "history.peaks.parquet"))
}
