package peaks

import (
	"math"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/schema"
)

const (
	// areaThreshold is the fraction of the accumulated area below which the
	// flank edge counts as decayed. Each half uses half of it.
	areaThreshold = 5e-2
	// edgeWindow is the moving average length of the flank edge.
	edgeWindow = 3
)

// Measure fills in area, span and shape descriptors for each peak from signal.
func Measure(peaks []*schema.Peak, signal []float64) {
	if len(peaks) == 0 || len(signal) == 0 {
		return
	}
	floor := algo.Median(signal)
	for _, p := range peaks {
		measureOne(p, signal, floor)
	}
}

func measureOne(p *schema.Peak, signal []float64, floor float64) {
	t := p.RTime
	if t < 0 || t >= len(signal) {
		return
	}

	right := signal[t:]
	rArea, rIdx := halfArea(right, areaThreshold, floor)

	left := make([]float64, t+1)
	for i := range left {
		left[i] = signal[t-i]
	}
	lArea, lIdx := halfArea(left, areaThreshold, floor)

	p.Area = lArea + rArea - signal[t]
	p.BRTime = t - lIdx
	p.ERTime = t + rIdx
	p.WRTime = p.ERTime - p.BRTime
	if lArea > 0 && rArea > 0 {
		p.SRTime = math.Log2(rArea / lArea)
	} else {
		p.SRTime = 0
	}
	if p.RFU > 0 {
		p.Beta = p.Area / float64(p.RFU)
	} else {
		p.Beta = 0
	}
	if p.WRTime == 0 {
		p.Theta = 0
		p.Omega = 0
	} else {
		p.Theta = float64(p.RFU) / float64(p.WRTime)
		p.Omega = p.Area / float64(p.WRTime)
	}
}

// halfArea walks away from the apex at y[0] and accumulates intensity until
// the edge decays below the area threshold, stops falling, or the signal
// drops under floor. It returns the area and the offset of the last sample
// included in the span.
func halfArea(y []float64, threshold, floor float64) (area float64, offset int) {
	threshold /= 2
	area = y[0]
	edge := edgeMean(y, 0)
	oldEdge := 2 * edge

	index := 1
	for edge > area*threshold && edge < oldEdge && index < len(y) && y[index] >= floor {
		oldEdge = edge
		area += y[index]
		edge = edgeMean(y, index)
		index++
	}
	return area, index - 1
}

// edgeMean averages up to edgeWindow samples starting at i. Samples past the
// end count as zero.
func edgeMean(y []float64, i int) float64 {
	var sum float64
	for k := i; k < min(i+edgeWindow, len(y)); k++ {
		sum += y[k]
	}
	return sum / edgeWindow
}
