package algo

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Percentile returns the q-th percentile (0..100) of xs using linear
// interpolation between closest ranks. xs is not modified.
func Percentile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the middle value of xs, averaging the two central values
// when the length is even.
func Median(xs []float64) float64 {
	return Percentile(xs, 50)
}

// Mean returns the arithmetic mean of xs, or 0 when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Sum returns the sum of xs.
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// RoundHalfEven rounds to the nearest integer with ties going to the even one.
func RoundHalfEven(v float64) int {
	return int(math.RoundToEven(v))
}

// BisectRight returns the insertion index of v in ascending xs that keeps
// equal elements to the left.
func BisectRight(xs []float64, v float64) int {
	lo, hi := 0, len(xs)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if v < xs[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
