package schema_test

import (
	"testing"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		qscore   float64
		expected string
	}{
		{"Perfect", 1.0, "Good"},
		{"Good Lower", 0.8, "Good"},
		{"Fair Upper", 0.79, "Fair"},
		{"Fair Lower", 0.5, "Fair"},
		{"Poor", 0.25, "Poor"},
		{"Zero", 0.0, "Fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, schema.GetPlainLabel(tt.qscore))
		})
	}
}

func TestNewPeakDefaults(t *testing.T) {
	p := schema.NewPeak(120, 900)
	assert.Equal(t, schema.ScannedPeak, p.Type)
	assert.Equal(t, -1.0, p.Size)
	assert.Equal(t, -1, p.Bin)
	assert.Equal(t, schema.NotAvailableMethod, p.Method)

	p.Type = schema.CalledPeak
	p.Size = 101.5
	p.ResetCall()
	assert.Equal(t, schema.ScannedPeak, p.Type)
	assert.Equal(t, -1.0, p.Size)
}

func TestBatchResultMismatched(t *testing.T) {
	b := &schema.BatchResult{Samples: []*schema.SampleResult{
		{Sample: "a", Status: schema.StatusOK},
		{Sample: "b", Status: schema.StatusLadderMismatch},
		{Sample: "c", Status: schema.StatusFailed},
	}}
	got := b.Mismatched()
	assert.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Sample)
}

func TestSortByRTime(t *testing.T) {
	peaks := []*schema.Peak{schema.NewPeak(30, 1), schema.NewPeak(10, 1), schema.NewPeak(20, 1)}
	schema.SortByRTime(peaks)
	assert.Equal(t, []int{10, 20, 30}, []int{peaks[0].RTime, peaks[1].RTime, peaks[2].RTime})
}
