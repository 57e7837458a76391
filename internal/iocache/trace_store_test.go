package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTraceStore(t *testing.T) *TraceStoreImpl {
	t.Helper()
	store, err := NewTraceStore(traceTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*TraceStoreImpl)
}

func TestTraceStoreGetSet(t *testing.T) {
	store := newTestTraceStore(t)

	_, _, _, err := store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	now := time.Now().Unix()
	require.NoError(t, store.Set("k1", []byte(`{"Signal":[1]}`), 1, now))
	value, version, ts, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, `{"Signal":[1]}`, string(value))
	assert.Equal(t, 1, version)
	assert.Equal(t, now, ts)

	// Upsert replaces the previous entry
	require.NoError(t, store.Set("k1", []byte("v2"), 2, now+5))
	value, version, ts, err = store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(value))
	assert.Equal(t, 2, version)
	assert.Equal(t, now+5, ts)
}

func TestTraceStoreStatus(t *testing.T) {
	store := newTestTraceStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("y"), 1, 2000))
	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(2000, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(1000, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)
}

func TestTraceStoreNoneBackend(t *testing.T) {
	store, err := NewTraceStore(traceTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewTraceStoreRejectsBadInput(t *testing.T) {
	_, err := NewTraceStore("bad name; DROP", schema.SQLiteBackend, filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)

	_, err = NewTraceStore(traceTable, schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, q, rebind(q, schema.MySQLBackend))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(q, schema.PostgreSQLBackend))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`fragscan_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"fragscan_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"fragscan_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))
}

func TestTimeScanner(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

	var ts timeScanner
	require.NoError(t, ts.Scan(now.Format(time.RFC3339Nano)))
	assert.True(t, ts.Time.Equal(now))
	require.NotNil(t, ts.ptr())

	require.NoError(t, ts.Scan([]byte(now.Format(time.RFC3339Nano))))
	assert.True(t, ts.Time.Equal(now))

	require.NoError(t, ts.Scan(now))
	assert.True(t, ts.Valid)

	require.NoError(t, ts.Scan(nil))
	assert.Nil(t, ts.ptr())

	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}
