package algo

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// derivativePredictor is satisfied by the gonum cubic interpolators.
type derivativePredictor interface {
	interp.FittablePredictor
	PredictDerivative(x float64) float64
}

// Spline is an interpolating cubic spline that extrapolates linearly past its knots.
type Spline struct {
	xs, ys []float64
	pred   derivativePredictor
	linear *interp.PiecewiseLinear
}

// NewSpline fits a not-a-knot cubic spline through strictly increasing xs.
// It falls back to a natural spline when the not-a-knot system is singular and
// to linear interpolation below three knots.
func NewSpline(xs, ys []float64) (*Spline, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("spline: length mismatch %d != %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("spline: %w (%d knots)", ErrTooFewPoints, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("spline: knots must be strictly increasing at %d", i)
		}
	}

	s := &Spline{xs: append([]float64(nil), xs...), ys: append([]float64(nil), ys...)}
	if len(xs) < 3 {
		s.linear = &interp.PiecewiseLinear{}
		if err := s.linear.Fit(s.xs, s.ys); err != nil {
			return nil, fmt.Errorf("spline: %w", err)
		}
		return s, nil
	}

	nak := &interp.NotAKnotCubic{}
	if err := nak.Fit(s.xs, s.ys); err == nil {
		s.pred = nak
		return s, nil
	}
	nat := &interp.NaturalCubic{}
	if err := nat.Fit(s.xs, s.ys); err != nil {
		return nil, fmt.Errorf("spline: %w", err)
	}
	s.pred = nat
	return s, nil
}

// Predict returns the spline value at x.
func (s *Spline) Predict(x float64) float64 {
	first, last := s.xs[0], s.xs[len(s.xs)-1]
	if s.linear != nil {
		slope := (s.ys[1] - s.ys[0]) / (s.xs[1] - s.xs[0])
		switch {
		case x < first:
			return s.ys[0] + slope*(x-first)
		case x > last:
			return s.ys[1] + slope*(x-last)
		}
		return s.linear.Predict(x)
	}
	switch {
	case x < first:
		return s.ys[0] + s.pred.PredictDerivative(first)*(x-first)
	case x > last:
		return s.ys[len(s.ys)-1] + s.pred.PredictDerivative(last)*(x-last)
	}
	return s.pred.Predict(x)
}
