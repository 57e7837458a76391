//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseBackend drives the cache and run commands against a live database.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Setenv("FRAGSCAN_CACHE_BACKEND", backend)
	t.Setenv("FRAGSCAN_CACHE_DB_CONNECT", connStr)
	t.Setenv("FRAGSCAN_RUN_BACKEND", backend)
	t.Setenv("FRAGSCAN_RUN_DB_CONNECT", connStr)

	dir := writeTraces(t, map[string][]float64{
		"S01": {120, 260},
		"S02": {180},
	})

	_, err := runFragscan(t, dir, "cache", "clear")
	require.NoError(t, err)

	_, err = runFragscan(t, dir, "runs", "clear")
	require.NoError(t, err)

	// Second scan is served from the trace cache
	for range 2 {
		_, err = runFragscan(t, dir, "scan", "traces", "--ladder", "LIZ500", "--use-cache", "--output", "csv")
		require.NoError(t, err)
	}

	out, err := runFragscan(t, dir, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache Backend: "+backend)
	assert.NotContains(t, out, "Total Entries: 0")

	out, err = runFragscan(t, dir, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Run Backend: "+backend)
	assert.Contains(t, out, "Total Runs: 2")
}

// TestFragscanWithMySQL tests the fragscan CLI with a MySQL backend.
func TestFragscanWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "fragscan",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/fragscan?parseTime=true", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestFragscanWithPostgres tests the fragscan CLI with a PostgreSQL backend.
func TestFragscanWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD":         "secret123",
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres password=secret123 dbname=postgres sslmode=disable", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}
