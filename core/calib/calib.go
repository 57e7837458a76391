// Package calib turns scan times into fragment sizes from aligned ladder points.
package calib

import (
	"fmt"
	"slices"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Result is the size called at one scan time.
type Result struct {
	Size       float64             `json:"size"`
	Deviation  float64             `json:"deviation"`
	Confidence float64             `json:"confidence"`
	Method     schema.AlleleMethod `json:"method"`
}

// Calibration maps a scan time to a size. Implementations are immutable values.
type Calibration interface {
	Method() schema.AlleleMethod
	Call(rtime float64) Result
	// Span returns the scan times of the first and last ladder points.
	Span() (minRTime, maxRTime int)
}

// New builds the calibration for method from aligned ladder points.
func New(method schema.AlleleMethod, points []schema.LadderPoint) (Calibration, error) {
	pts := slices.Clone(points)
	schema.SortLadderPoints(pts)
	for i := 1; i < len(pts); i++ {
		if pts[i].RTime == pts[i-1].RTime {
			return nil, fmt.Errorf("calib: duplicate ladder scan time %d", pts[i].RTime)
		}
	}

	switch method {
	case schema.LeastSquareMethod:
		return NewLeastSquare(pts)
	case schema.CubicSplineMethod:
		return NewCubicSpline(pts)
	case schema.LocalSouthernMethod:
		return NewLocalSouthern(pts)
	default:
		return nil, fmt.Errorf("%w: unknown allele method '%s'", contract.ErrInvalidConfiguration, method)
	}
}

// points is the sorted ladder shared by every calibration.
type points []schema.LadderPoint

func (p points) rtimes() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = float64(pt.RTime)
	}
	return out
}

func (p points) sizes() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = pt.Size
	}
	return out
}

func (p points) span() (int, int) {
	if len(p) == 0 {
		return 0, 0
	}
	return p[0].RTime, p[len(p)-1].RTime
}

// bracket returns the mean deviation and lowest qscore of the two ladder
// points around rtime. Confidence is halved outside the ladder.
func (p points) bracket(rtime float64) (deviation, confidence float64) {
	n := len(p)
	if n < 2 {
		return 0, 0
	}
	right := algo.BisectRight(p.rtimes(), rtime)
	left := min(max(right-1, 0), n-2)
	a, b := p[left], p[left+1]

	deviation = (a.Deviation + b.Deviation) / 2
	confidence = min(a.QScore, b.QScore)
	if rtime < float64(p[0].RTime) || rtime > float64(p[n-1].RTime) {
		confidence *= 0.5
	}
	return deviation, confidence
}

func minQScore(pts []schema.LadderPoint) float64 {
	q := pts[0].QScore
	for _, pt := range pts[1:] {
		q = min(q, pt.QScore)
	}
	return q
}

// CallPeaks sizes every peak strictly inside (minRTime, maxRTime). Scanned
// peaks become called; scanned peaks outside the range become unassigned.
func CallPeaks(peaks []*schema.Peak, cal Calibration, minRTime, maxRTime int, obs contract.Observer) {
	for _, p := range peaks {
		if p.RTime <= minRTime || p.RTime >= maxRTime {
			if p.Type == schema.ScannedPeak {
				p.Type = schema.UnassignedPeak
			}
			contract.Emit(obs, schema.DebugLevel, "call", "peak at %d outside ladder range [%d, %d]", p.RTime, minRTime, maxRTime)
			continue
		}

		r := cal.Call(float64(p.RTime))
		p.Size = r.Size
		p.Bin = algo.RoundHalfEven(r.Size)
		p.Deviation = r.Deviation
		p.QCall = r.Confidence
		p.Method = r.Method
		if p.Type == schema.ScannedPeak {
			p.Type = schema.CalledPeak
		}
	}
}
