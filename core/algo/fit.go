// Package algo has the numeric building blocks shared by the peak and calibration stages.
package algo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewPoints is returned when a fit has fewer points than it has parameters.
var ErrTooFewPoints = errors.New("too few points to fit")

// Poly is a polynomial in t = (x - Center) / Scale with Coeffs ordered from
// the constant term upwards. Centering keeps the normal equations well
// conditioned for scan times in the tens of thousands.
type Poly struct {
	Coeffs []float64 `json:"coeffs"`
	Center float64   `json:"center"`
	Scale  float64   `json:"scale"`
}

// Eval returns the polynomial value at x.
func (p Poly) Eval(x float64) float64 {
	if len(p.Coeffs) == 0 {
		return math.NaN()
	}
	t := (x - p.Center) / p.Scale
	var v float64
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		v = v*t + p.Coeffs[i]
	}
	return v
}

// Degree returns the polynomial degree.
func (p Poly) Degree() int {
	return len(p.Coeffs) - 1
}

// PolyFit fits a least squares polynomial of the given degree through (x, y).
func PolyFit(x, y []float64, deg int) (Poly, error) {
	n := len(x)
	if n != len(y) {
		return Poly{}, fmt.Errorf("polyfit: length mismatch %d != %d", n, len(y))
	}
	if deg < 0 || n < deg+1 {
		return Poly{}, fmt.Errorf("polyfit: %w (%d points, degree %d)", ErrTooFewPoints, n, deg)
	}

	center := stat.Mean(x, nil)
	scale := 0.0
	for _, v := range x {
		scale = math.Max(scale, math.Abs(v-center))
	}
	if scale == 0 {
		if deg > 0 {
			return Poly{}, fmt.Errorf("polyfit: all %d abscissae are equal", n)
		}
		scale = 1
	}

	a := mat.NewDense(n, deg+1, nil)
	for i, v := range x {
		t := (v - center) / scale
		pw := 1.0
		for j := 0; j <= deg; j++ {
			a.Set(i, j, pw)
			pw *= t
		}
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return Poly{}, fmt.Errorf("polyfit: %w", err)
	}

	coeffs := make([]float64, deg+1)
	for j := range coeffs {
		coeffs[j] = sol.At(j, 0)
	}
	return Poly{Coeffs: coeffs, Center: center, Scale: scale}, nil
}

// LinearFit returns the intercept and slope of the least squares line through (x, y).
func LinearFit(x, y []float64) (intercept, slope float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("linear fit: length mismatch %d != %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, 0, fmt.Errorf("linear fit: %w (%d points)", ErrTooFewPoints, len(x))
	}
	if floats.Max(x) == floats.Min(x) {
		return 0, 0, fmt.Errorf("linear fit: all %d abscissae are equal", len(x))
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return intercept, slope, nil
}

// RSS returns the residual sum of squares of f over (x, y).
func RSS(f func(float64) float64, x, y []float64) float64 {
	var rss float64
	for i := range x {
		d := y[i] - f(x[i])
		rss += d * d
	}
	return rss
}
