// Package parquet exports recorded fragscan runs and peaks to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/fragscan/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single pipeline run with its sample counts.
// This struct maps to the fragscan_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the batch identifier shown in reports
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs     *int32 `parquet:"run_duration_ms,optional,snappy"`
	TotalSamples      *int32 `parquet:"total_samples,optional,snappy"`
	FailedSamples     *int32 `parquet:"failed_samples,optional,snappy"`
	MismatchedSamples *int32 `parquet:"mismatched_samples,optional,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Peak represents one peak of a processed sample.
// This struct maps to the fragscan_peaks database table.
type Peak struct {
	RunID    int64  `parquet:"run_id,snappy"`
	SampleID string `parquet:"sample_id,snappy"`
	Sample   string `parquet:"sample,dict,snappy"`
	Status   string `parquet:"status,dict,snappy"`
	Dye      string `parquet:"dye,dict,snappy"`

	RTime int32   `parquet:"rtime,snappy"`
	RFU   int32   `parquet:"rfu,snappy"`
	Area  float64 `parquet:"area,snappy"`

	// Size and Bin are -1 for peaks that were never called
	Size float64 `parquet:"size,snappy"`
	Bin  int32   `parquet:"bin,snappy"`

	QScore    float64   `parquet:"qscore,snappy"`
	QCall     float64   `parquet:"qcall,snappy"`
	PeakType  string    `parquet:"peak_type,dict,snappy"`
	Method    string    `parquet:"method,dict,snappy"`
	Deviation *float64  `parquet:"deviation,optional,snappy"`
	CallTime  time.Time `parquet:"call_time,snappy"`
}

// ConvertRunRecords converts store records to Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	out := make([]Run, len(records))
	for i, r := range records {
		out[i] = Run{
			RunID:             r.RunID,
			RunUUID:           r.RunUUID,
			StartTime:         r.StartTime,
			EndTime:           r.EndTime,
			RunDurationMs:     r.RunDurationMs,
			TotalSamples:      r.TotalSamples,
			FailedSamples:     r.FailedSamples,
			MismatchedSamples: r.MismatchedSamples,
			ConfigParams:      r.ConfigParams,
		}
	}
	return out
}

// ConvertPeakRecords converts store records to Parquet rows.
func ConvertPeakRecords(records []schema.PeakRecord) []Peak {
	out := make([]Peak, len(records))
	for i, r := range records {
		out[i] = Peak{
			RunID:     r.RunID,
			SampleID:  r.SampleID,
			Sample:    r.Sample,
			Status:    r.Status,
			Dye:       r.Dye,
			RTime:     r.RTime,
			RFU:       r.RFU,
			Area:      r.Area,
			Size:      r.Size,
			Bin:       r.Bin,
			QScore:    r.QScore,
			QCall:     r.QCall,
			PeakType:  r.PeakType,
			Method:    r.Method,
			Deviation: r.Deviation,
			CallTime:  r.CallTime,
		}
	}
	return out
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WritePeaksParquet writes peaks to a Parquet file.
func WritePeaksParquet(data []Peak, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet infers the schema from T's struct tags and writes every row.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}
