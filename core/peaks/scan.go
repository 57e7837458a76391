package peaks

import (
	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Scan finds, measures and filters the peaks of one normalized signal.
// Without an expected count, MaxPeakNumber caps the result to the tallest peaks.
func Scan(signal []float64, params schema.ScanParams, obs contract.Observer) []*schema.Peak {
	found := FindRaw(signal, params)
	contract.Emit(obs, schema.DebugLevel, "scan", "%d raw peaks above %.0f rfu", len(found), params.MinRFU)
	if len(found) == 0 {
		return nil
	}

	Measure(found, signal)
	kept := FilterArtifacts(found, params, obs)

	if params.ExpectedPeakNumber == 0 && params.MaxPeakNumber > 0 && len(kept) > params.MaxPeakNumber {
		contract.Emit(obs, schema.InfoLevel, "scan", "keeping the %d tallest of %d peaks", params.MaxPeakNumber, len(kept))
		kept = algo.TopPeaks(kept, params.MaxPeakNumber, algo.ByRFU)
	}
	return kept
}
