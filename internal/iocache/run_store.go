package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Table names for run tracking.
const (
	runsTable  = "fragscan_runs"
	peaksTable = "fragscan_peaks"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{peaksTable, getCreatePeaksQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for fragscan_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_samples INT,
				failed_samples INT,
				mismatched_samples INT,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_samples INT,
				failed_samples INT,
				mismatched_samples INT,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_samples INTEGER,
				failed_samples INTEGER,
				mismatched_samples INTEGER,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreatePeaksQuery returns the CREATE TABLE query for fragscan_peaks.
func getCreatePeaksQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(peaksTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				sample_id VARCHAR(36) NOT NULL,
				sample VARCHAR(255) NOT NULL,
				status VARCHAR(32) NOT NULL,
				dye VARCHAR(32) NOT NULL,
				rtime INT NOT NULL,
				rfu INT NOT NULL,
				area DOUBLE NOT NULL,
				size DOUBLE NOT NULL,
				bin INT NOT NULL,
				qscore DOUBLE NOT NULL,
				qcall DOUBLE NOT NULL,
				peak_type VARCHAR(32) NOT NULL,
				method VARCHAR(32) NOT NULL,
				deviation DOUBLE,
				call_time DATETIME(6) NOT NULL,
				PRIMARY KEY (run_id, sample_id, dye, rtime)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				sample_id TEXT NOT NULL,
				sample TEXT NOT NULL,
				status TEXT NOT NULL,
				dye TEXT NOT NULL,
				rtime INT NOT NULL,
				rfu INT NOT NULL,
				area DOUBLE PRECISION NOT NULL,
				size DOUBLE PRECISION NOT NULL,
				bin INT NOT NULL,
				qscore DOUBLE PRECISION NOT NULL,
				qcall DOUBLE PRECISION NOT NULL,
				peak_type TEXT NOT NULL,
				method TEXT NOT NULL,
				deviation DOUBLE PRECISION,
				call_time TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (run_id, sample_id, dye, rtime)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				sample_id TEXT NOT NULL,
				sample TEXT NOT NULL,
				status TEXT NOT NULL,
				dye TEXT NOT NULL,
				rtime INTEGER NOT NULL,
				rfu INTEGER NOT NULL,
				area REAL NOT NULL,
				size REAL NOT NULL,
				bin INTEGER NOT NULL,
				qscore REAL NOT NULL,
				qcall REAL NOT NULL,
				peak_type TEXT NOT NULL,
				method TEXT NOT NULL,
				deviation REAL,
				call_time TEXT NOT NULL,
				PRIMARY KEY (run_id, sample_id, dye, rtime)
			);
		`, quoted)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(runUUID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, quoted)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totals contract.RunTotals) error {
	if rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var start timeScanner
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quoted), rs.backend)
	if err := rs.db.QueryRow(query, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(start.Time).Milliseconds()

	update := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_samples = ?, failed_samples = ?, mismatched_samples = ? WHERE run_id = ?`, quoted), rs.backend)
	_, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, totals.Samples, totals.Failed, totals.Mismatched, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordSample stores every peak of a processed sample in one transaction.
func (rs *RunStoreImpl) RecordSample(runID int64, result *schema.SampleResult) error {
	if rs.db == nil || result == nil {
		return nil
	}

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := rebind(fmt.Sprintf(`
		INSERT INTO %s (run_id, sample_id, sample, status, dye, rtime, rfu, area, size, bin,
		                qscore, qcall, peak_type, method, deviation, call_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, quoteTableName(peaksTable, rs.backend)), rs.backend)
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare peak insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	callTime := formatTime(time.Now(), rs.backend)
	for _, ch := range result.Channels {
		for _, p := range ch.Peaks {
			var deviation any
			if p.Type == schema.CalledPeak {
				deviation = p.Deviation
			}
			if _, err := stmt.Exec(runID, result.SampleID, result.Sample, string(result.Status), ch.Dye,
				p.RTime, p.RFU, p.Area, p.Size, p.Bin, p.QScore, p.QCall,
				string(p.Type), string(p.Method), deviation, callTime); err != nil {
				return fmt.Errorf("failed to insert peak %s/%d: %w", ch.Dye, p.RTime, err)
			}
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_samples), 0) FROM %s", quoted))
		if err := row.Scan(&status.TotalSamples); err != nil {
			return status, fmt.Errorf("failed to get total samples: %w", err)
		}
	}

	for _, table := range []string{runsTable, peaksTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, start_time, end_time, run_duration_ms,
		total_samples, failed_samples, mismatched_samples, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end timeScanner
		if err := rows.Scan(&record.RunID, &record.RunUUID, &start, &end, &record.RunDurationMs,
			&record.TotalSamples, &record.FailedSamples, &record.MismatchedSamples, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllPeaks retrieves all recorded peaks from the store.
func (rs *RunStoreImpl) GetAllPeaks() ([]schema.PeakRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, sample_id, sample, status, dye, rtime, rfu, area, size, bin,
		qscore, qcall, peak_type, method, deviation, call_time
		FROM %s ORDER BY run_id, sample, dye, rtime`, quoteTableName(peaksTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query peaks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.PeakRecord
	for rows.Next() {
		var record schema.PeakRecord
		var callTime timeScanner
		if err := rows.Scan(&record.RunID, &record.SampleID, &record.Sample, &record.Status, &record.Dye,
			&record.RTime, &record.RFU, &record.Area, &record.Size, &record.Bin,
			&record.QScore, &record.QCall, &record.PeakType, &record.Method, &record.Deviation, &callTime); err != nil {
			return nil, fmt.Errorf("failed to scan peak: %w", err)
		}
		record.CallTime = callTime.Time
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating peaks: %w", err)
	}
	return results, nil
}
