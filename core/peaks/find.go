// Package peaks finds, measures, filters and classifies peaks in a normalized signal.
package peaks

import (
	"cmp"
	"slices"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/schema"
)

const (
	// relativeThreshold is the fraction of the signal range a maximum must clear.
	relativeThreshold = 1e-7
	// tailPadding zeros are appended so maxima at the trace end are detected.
	tailPadding = 3
)

// FindRaw returns candidate peaks in signal ordered by scan time.
func FindRaw(signal []float64, params schema.ScanParams) []*schema.Peak {
	padded := make([]float64, len(signal), len(signal)+tailPadding)
	copy(padded, signal)
	padded = append(padded, make([]float64, tailPadding)...)

	var found []*schema.Peak
	for _, i := range LocalMaxima(padded, relativeThreshold, params.MinDist) {
		if padded[i] < params.MinRFU || i <= params.MinRTime || i >= params.MaxRTime {
			continue
		}
		found = append(found, schema.NewPeak(i, int(padded[i])))
	}

	if params.ExpectedPeakNumber > 0 {
		found = algo.TopPeaks(found, 2*params.ExpectedPeakNumber, algo.ByRFU)
	}
	return found
}

// LocalMaxima returns the indices of maxima in y that rise above
// thres x (max - min) + min. Flat tops resolve to their middle sample, and
// within minDist of a taller maximum only the taller one is kept.
func LocalMaxima(y []float64, thres float64, minDist int) []int {
	n := len(y)
	if n < 3 {
		return nil
	}
	floor := thres*(slices.Max(y)-slices.Min(y)) + slices.Min(y)

	dy := make([]float64, n-1)
	var zeros []int
	for i := range dy {
		dy[i] = y[i+1] - y[i]
		if dy[i] == 0 {
			zeros = append(zeros, i)
		}
	}
	if len(zeros) == len(dy) {
		return nil
	}
	resolvePlateaus(dy, zeros)

	var found []int
	for i := range n {
		left, right := 0.0, 0.0
		if i > 0 {
			left = dy[i-1]
		}
		if i < n-1 {
			right = dy[i]
		}
		if right < 0 && left > 0 && y[i] > floor {
			found = append(found, i)
		}
	}
	if len(found) <= 1 || minDist <= 1 {
		return found
	}

	// Visit tallest first and suppress neighbors within minDist.
	highest := slices.Clone(found)
	slices.SortStableFunc(highest, func(a, b int) int {
		if c := cmp.Compare(y[b], y[a]); c != 0 {
			return c
		}
		return cmp.Compare(b, a)
	})
	removed := make([]bool, n)
	for i := range removed {
		removed[i] = true
	}
	for _, p := range found {
		removed[p] = false
	}
	for _, p := range highest {
		if removed[p] {
			continue
		}
		for j := max(0, p-minDist); j <= min(n-1, p+minDist); j++ {
			removed[j] = true
		}
		removed[p] = false
	}

	kept := found[:0]
	for i, r := range removed {
		if !r {
			kept = append(kept, i)
		}
	}
	return kept
}

// resolvePlateaus rewrites zero slopes so that a flat top has a rising first
// half and a falling second half. Plateaus touching either end take the slope
// of their inner neighbor.
func resolvePlateaus(dy []float64, zeros []int) {
	if len(zeros) == 0 {
		return
	}
	var runs [][]int
	start := 0
	for i := 1; i <= len(zeros); i++ {
		if i == len(zeros) || zeros[i] != zeros[i-1]+1 {
			runs = append(runs, zeros[start:i])
			start = i
		}
	}

	if runs[0][0] == 0 {
		fill := dy[runs[0][len(runs[0])-1]+1]
		for _, z := range runs[0] {
			dy[z] = fill
		}
		runs = runs[1:]
	}
	if len(runs) > 0 {
		last := runs[len(runs)-1]
		if last[len(last)-1] == len(dy)-1 {
			fill := dy[last[0]-1]
			for _, z := range last {
				dy[z] = fill
			}
			runs = runs[:len(runs)-1]
		}
	}

	for _, run := range runs {
		before, after := dy[run[0]-1], dy[run[len(run)-1]+1]
		median := float64(run[0]+run[len(run)-1]) / 2
		for _, z := range run {
			if float64(z) < median {
				dy[z] = before
			} else {
				dy[z] = after
			}
		}
	}
}
