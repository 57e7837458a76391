package schema

import "time"

// Diagnostic is a message emitted by a pipeline stage.
type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Stage   string          `json:"stage"`
	Sample  string          `json:"sample,omitempty"`
	Dye     string          `json:"dye,omitempty"`
	Message string          `json:"message"`
}

// StrategyAttempt records what one alignment strategy did.
type StrategyAttempt struct {
	Strategy string  `json:"strategy"`
	Status   string  `json:"status"`
	Score    float64 `json:"score"`
	Message  string  `json:"message,omitempty"`
}

// AlignmentReport summarizes the accepted ladder alignment of a sample.
type AlignmentReport struct {
	Ladder   string            `json:"ladder"`
	Method   string            `json:"method"`
	Score    float64           `json:"score"`
	RSS      float64           `json:"rss"`
	DPScore  float64           `json:"dpscore"`
	Matched  int               `json:"matched"`
	Expected int               `json:"expected"`
	MinRTime int               `json:"min_rtime"`
	MaxRTime int               `json:"max_rtime"`
	Attempts []StrategyAttempt `json:"attempts"`
}

// SampleResult is the pipeline output for one sample.
type SampleResult struct {
	SampleID     string           `json:"sample_id"`
	Sample       string           `json:"sample"`
	Path         string           `json:"path"`
	Status       SampleStatus     `json:"status"`
	Error        string           `json:"error,omitempty"`
	Channels     []*Channel       `json:"channels"`
	Alignment    *AlignmentReport `json:"alignment,omitempty"`
	AlleleMethod AlleleMethod     `json:"allele_method"`
	LadderPoints []LadderPoint    `json:"ladder_points,omitempty"`
	Diagnostics  []Diagnostic     `json:"diagnostics,omitempty"`
	Duration     time.Duration    `json:"duration"`
}

// BatchResult collects the results of every sample in a run.
type BatchResult struct {
	RunID    string          `json:"run_id"`
	Samples  []*SampleResult `json:"samples"`
	Duration time.Duration   `json:"duration"`
}

// Mismatched returns the samples whose ladder could not be aligned.
func (b *BatchResult) Mismatched() []*SampleResult {
	var out []*SampleResult
	for _, s := range b.Samples {
		if s.Status == StatusLadderMismatch {
			out = append(out, s)
		}
	}
	return out
}

// GetPlainLabel returns a plain text label for a quality score.
func GetPlainLabel(qscore float64) string {
	switch {
	case qscore >= 0.8:
		return "Good"
	case qscore >= 0.5:
		return "Fair"
	case qscore > 0:
		return "Poor"
	default:
		return "Fail"
	}
}
