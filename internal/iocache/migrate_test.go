package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRunsSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	version, err := MigrateRuns(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// Already at the latest version
	version, err = MigrateRuns(schema.SQLiteBackend, path, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// The migrated schema is usable by the store
	store, err := NewRunStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	id, err := store.BeginRun("migrated", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordSample(id, sampleWithPeaks()))
	require.NoError(t, store.Close())

	version, err = MigrateRuns(schema.SQLiteBackend, path, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	version, err = MigrateRuns(schema.SQLiteBackend, path, 0)
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestMigrateRunsNoneBackend(t *testing.T) {
	_, err := MigrateRuns(schema.NoneBackend, "", -1)
	assert.Error(t, err)
}
