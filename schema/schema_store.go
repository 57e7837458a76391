package schema

import "time"

// RunRecord represents a row from the fragscan_runs table.
type RunRecord struct {
	RunID             int64
	RunUUID           string
	StartTime         time.Time
	EndTime           *time.Time
	RunDurationMs     *int32
	TotalSamples      *int32
	FailedSamples     *int32
	MismatchedSamples *int32
	ConfigParams      *string
}

// PeakRecord represents a row from the fragscan_peaks table.
type PeakRecord struct {
	RunID     int64
	SampleID  string
	Sample    string
	Status    string
	Dye       string
	RTime     int32
	RFU       int32
	Area      float64
	Size      float64
	Bin       int32
	QScore    float64
	QCall     float64
	PeakType  string
	Method    string
	Deviation *float64
	CallTime  time.Time
}
