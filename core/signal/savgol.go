package signal

import (
	"sync"

	"github.com/huangsam/fragscan/core/algo"
	"gonum.org/v1/gonum/mat"
)

type kernelKey struct {
	window, order int
}

// kernels caches Savitzky-Golay center coefficients per (window, order).
var kernels sync.Map

// SavGolCoeffs returns the convolution weights that evaluate a least squares
// polynomial of the given order at the center of an odd window.
func SavGolCoeffs(window, order int) []float64 {
	key := kernelKey{window, order}
	if v, ok := kernels.Load(key); ok {
		return v.([]float64)
	}

	half := window / 2
	scale := float64(max(half, 1))
	a := mat.NewDense(window, order+1, nil)
	for i := range window {
		t := float64(i-half) / scale
		pw := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, pw)
			pw *= t
		}
	}

	// h = A (AᵀA)⁻¹ e₀
	var ata mat.Dense
	ata.Mul(a.T(), a)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		// Fall back to a moving average when the normal equations are singular.
		coeffs := make([]float64, window)
		for i := range coeffs {
			coeffs[i] = 1 / float64(window)
		}
		return coeffs
	}
	var h mat.VecDense
	h.MulVec(a, &z)

	coeffs := make([]float64, window)
	for i := range coeffs {
		coeffs[i] = h.AtVec(i)
	}
	kernels.Store(key, coeffs)
	return coeffs
}

// SavGol smooths x with a Savitzky-Golay filter. Interior samples use the
// convolution kernel; the first and last half windows are evaluated from a
// polynomial fitted to the first and last full window. The window shrinks to
// the largest odd length that fits x, and x is returned unchanged when the
// window cannot exceed the polynomial order.
func SavGol(x []float64, window, order int) []float64 {
	n := len(x)
	out := append([]float64(nil), x...)
	if window > n {
		window = n
	}
	if window%2 == 0 {
		window--
	}
	if window <= order || window < MinWindow {
		return out
	}
	half := window / 2
	coeffs := SavGolCoeffs(window, order)

	for i := half; i < n-half; i++ {
		var acc float64
		for k, c := range coeffs {
			acc += c * x[i-half+k]
		}
		out[i] = acc
	}

	fitEdge(out, x, 0, window, order, 0, half)
	fitEdge(out, x, n-window, window, order, n-half, n)
	return out
}

// fitEdge fits a polynomial to x[start:start+window] and writes its values at
// positions [from, to) into out.
func fitEdge(out, x []float64, start, window, order, from, to int) {
	xs := make([]float64, window)
	for i := range xs {
		xs[i] = float64(start + i)
	}
	poly, err := algo.PolyFit(xs, x[start:start+window], order)
	if err != nil {
		return
	}
	for i := from; i < to; i++ {
		out[i] = poly.Eval(float64(i))
	}
}
