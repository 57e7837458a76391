package calib

import (
	"fmt"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/schema"
)

// LeastSquare is a cubic least squares fit through all ladder points.
type LeastSquare struct {
	Points []schema.LadderPoint `json:"points"`
	Poly   algo.Poly            `json:"poly"`
}

// NewLeastSquare fits points sorted by scan time. The degree drops below
// three when there are fewer than four points.
func NewLeastSquare(pts []schema.LadderPoint) (LeastSquare, error) {
	if len(pts) < 2 {
		return LeastSquare{}, fmt.Errorf("least square: %w (%d ladder points)", algo.ErrTooFewPoints, len(pts))
	}
	p := points(pts)
	poly, err := algo.PolyFit(p.rtimes(), p.sizes(), min(3, len(pts)-1))
	if err != nil {
		return LeastSquare{}, fmt.Errorf("least square: %w", err)
	}

	out := make([]schema.LadderPoint, len(pts))
	for i, pt := range pts {
		d := pt.Size - poly.Eval(float64(pt.RTime))
		pt.Deviation = d * d
		out[i] = pt
	}
	return LeastSquare{Points: out, Poly: poly}, nil
}

// Method implements the Calibration interface.
func (LeastSquare) Method() schema.AlleleMethod { return schema.LeastSquareMethod }

// Span implements the Calibration interface.
func (c LeastSquare) Span() (int, int) { return points(c.Points).span() }

// Call implements the Calibration interface.
func (c LeastSquare) Call(rtime float64) Result {
	dev, conf := points(c.Points).bracket(rtime)
	return Result{Size: c.Poly.Eval(rtime), Deviation: dev, Confidence: conf, Method: schema.LeastSquareMethod}
}

// CubicSpline interpolates the ladder points exactly. Deviations are the
// residuals the points carried from alignment.
type CubicSpline struct {
	Points []schema.LadderPoint `json:"points"`
	spline *algo.Spline
}

// NewCubicSpline fits a spline through points sorted by scan time.
func NewCubicSpline(pts []schema.LadderPoint) (CubicSpline, error) {
	p := points(pts)
	s, err := algo.NewSpline(p.rtimes(), p.sizes())
	if err != nil {
		return CubicSpline{}, fmt.Errorf("cubic spline: %w", err)
	}
	return CubicSpline{Points: pts, spline: s}, nil
}

// Method implements the Calibration interface.
func (CubicSpline) Method() schema.AlleleMethod { return schema.CubicSplineMethod }

// Span implements the Calibration interface.
func (c CubicSpline) Span() (int, int) { return points(c.Points).span() }

// Call implements the Calibration interface.
func (c CubicSpline) Call(rtime float64) Result {
	dev, conf := points(c.Points).bracket(rtime)
	return Result{Size: c.spline.Predict(rtime), Deviation: dev, Confidence: conf, Method: schema.CubicSplineMethod}
}

// LocalSouthern averages two quadratics, one through the three ladder points
// ending right of rtime and one through the three starting left of it. Near
// the ends a line through the three outermost points stands in, at half
// confidence. Deviation is the squared disagreement of the two curves.
type LocalSouthern struct {
	Points []schema.LadderPoint `json:"points"`
}

// NewLocalSouthern needs at least three points sorted by scan time.
func NewLocalSouthern(pts []schema.LadderPoint) (LocalSouthern, error) {
	if len(pts) < 3 {
		return LocalSouthern{}, fmt.Errorf("local southern: %w (%d ladder points)", algo.ErrTooFewPoints, len(pts))
	}
	return LocalSouthern{Points: pts}, nil
}

// Method implements the Calibration interface.
func (LocalSouthern) Method() schema.AlleleMethod { return schema.LocalSouthernMethod }

// Span implements the Calibration interface.
func (c LocalSouthern) Span() (int, int) { return points(c.Points).span() }

// Call implements the Calibration interface.
func (c LocalSouthern) Call(rtime float64) Result {
	n := len(c.Points)
	idx := algo.BisectRight(points(c.Points).rtimes(), rtime)

	var size1, conf1 float64
	if idx >= 2 && idx <= n-1 {
		size1, conf1 = localFit(c.Points[idx-2:idx+1], rtime, 2)
	} else {
		size1, conf1 = c.endFit(idx, rtime)
	}

	var size2, conf2 float64
	if idx >= 1 && idx <= n-2 {
		size2, conf2 = localFit(c.Points[idx-1:idx+2], rtime, 2)
	} else {
		size2, conf2 = c.endFit(idx, rtime)
	}

	d := size1 - size2
	return Result{
		Size:       (size1 + size2) / 2,
		Deviation:  d * d,
		Confidence: (conf1 + conf2) / 2,
		Method:     schema.LocalSouthernMethod,
	}
}

// endFit is the linear fallback on the three points at the nearer end.
func (c LocalSouthern) endFit(idx int, rtime float64) (float64, float64) {
	n := len(c.Points)
	window := c.Points[:3]
	if idx > n/2 {
		window = c.Points[n-3:]
	}
	size, conf := localFit(window, rtime, 1)
	return size, 0.5 * conf
}

func localFit(pts []schema.LadderPoint, rtime float64, deg int) (float64, float64) {
	p := points(pts)
	poly, err := algo.PolyFit(p.rtimes(), p.sizes(), deg)
	if err != nil {
		return 0, 0
	}
	return poly.Eval(rtime), minQScore(pts)
}
