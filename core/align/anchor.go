package align

import (
	"fmt"
	"math"

	"github.com/huangsam/fragscan/core/algo"
)

// DefaultAnchorWindow is how far in scans an anchor may sit from its peak.
const DefaultAnchorWindow = 25

// Anchor aligns from user supplied scan time to size pairs without searching.
type Anchor struct {
	Window int
}

// Name implements the Strategy interface.
func (Anchor) Name() string { return "anchor" }

// Accepts implements the Strategy interface. Anchored alignments are trusted.
func (Anchor) Accepts(float64) bool { return true }

// Align implements the Strategy interface.
func (a Anchor) Align(in *Input) Result {
	if len(in.Anchors) == 0 {
		return Result{Status: NotAttempted, Message: "no anchors"}
	}
	window := a.Window
	if window <= 0 {
		window = DefaultAnchorWindow
	}

	var xs, ys []float64
	for _, anchor := range in.Anchors {
		best, dist := -1, math.MaxInt
		for i, p := range in.Peaks {
			if d := abs(p.RTime - anchor.RTime); d <= window && d < dist {
				best, dist = i, d
			}
		}
		if best < 0 {
			continue
		}
		xs = append(xs, float64(in.Peaks[best].RTime))
		ys = append(ys, anchor.Size)
	}
	if len(xs) < 2 {
		return Result{Status: Failed, Message: fmt.Sprintf("only %d of %d anchors near a peak", len(xs), len(in.Anchors))}
	}

	deg := 1
	if len(xs) >= minPairs {
		deg = 3
	}
	poly, err := algo.PolyFit(xs, ys, deg)
	if err != nil {
		return Result{Status: Failed, Message: err.Error()}
	}
	fit, err := refine(in.rtimes(), in.Ladder.Sizes, poly.Eval, in.tolerance())
	if err != nil {
		return Result{Status: Failed, Message: err.Error()}
	}
	return finish(in, fit, fmt.Sprintf("%d anchors", len(xs)))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
