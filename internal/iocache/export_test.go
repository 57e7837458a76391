package iocache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRuns(t *testing.T) {
	store := newTestRunStore(t)
	id, err := store.BeginRun("export", time.Now(), map[string]any{"ladder": "LIZ500"})
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(id, sampleWithPeaks()))

	out := filepath.Join(t.TempDir(), "fragscan")
	require.NoError(t, ExportRuns(store, out))

	for _, suffix := range []string{".runs.parquet", ".peaks.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestExportRunsErrors(t *testing.T) {
	assert.ErrorContains(t, ExportRuns(nil, "out"), "disabled")
	assert.ErrorContains(t, ExportRuns(newTestRunStore(t), ""), "--output-file")
	assert.ErrorContains(t, ExportRuns(newTestRunStore(t), "out"), "no run data")

	failing := &MockRunStore{}
	failing.On("GetStatus").Return(schema.RunStatus{}, errors.New("boom"))
	assert.ErrorContains(t, ExportRuns(failing, "out"), "boom")
	failing.AssertExpectations(t)
}
