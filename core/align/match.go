package align

import (
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/schema"
)

const (
	maxRefine    = 8
	minPairs     = 4
	maxTolerance = 5.0
)

var errTooFewPairs = errors.New("too few matched sizes")

// pair links a peak index to a size index.
type pair struct {
	peak, size int
}

// fitted is a refined alignment.
type fitted struct {
	pairs   []pair
	poly    algo.Poly
	dpscore float64
	rss     float64
}

// DefaultTolerance is half the smallest gap between reference sizes,
// bounded to [1, 5].
func DefaultTolerance(sizes []float64) float64 {
	gap := math.Inf(1)
	for i := 1; i < len(sizes); i++ {
		gap = math.Min(gap, sizes[i]-sizes[i-1])
	}
	if math.IsInf(gap, 1) {
		return maxTolerance
	}
	return math.Min(maxTolerance, math.Max(1, 0.5*gap))
}

// similarity is 1 for an exact size and falls linearly to 0 at tol.
func similarity(predicted, size, tol float64) float64 {
	return math.Max(0, 1-math.Abs(predicted-size)/tol)
}

// match pairs peaks with sizes in order, maximizing the summed similarity
// of the sizes predicted by f. Unmatched peaks and sizes cost nothing.
func match(rt, sizes []float64, f func(float64) float64, tol float64) ([]pair, float64) {
	n, m := len(rt), len(sizes)
	if n == 0 || m == 0 {
		return nil, 0
	}
	pred := make([]float64, n)
	for i, r := range rt {
		pred[i] = f(r)
	}

	score := make([][]float64, n+1)
	for i := range score {
		score[i] = make([]float64, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			best := math.Max(score[i-1][j], score[i][j-1])
			if s := similarity(pred[i-1], sizes[j-1], tol); s > 0 {
				best = math.Max(best, score[i-1][j-1]+s)
			}
			score[i][j] = best
		}
	}

	var pairs []pair
	for i, j := n, m; i > 0 && j > 0; {
		s := similarity(pred[i-1], sizes[j-1], tol)
		switch {
		case s > 0 && score[i][j] == score[i-1][j-1]+s:
			pairs = append(pairs, pair{i - 1, j - 1})
			i--
			j--
		case score[i][j] == score[i-1][j]:
			i--
		default:
			j--
		}
	}
	slices.Reverse(pairs)
	return pairs, score[n][m]
}

// fitPairs fits a polynomial of degree up to 3 through the paired points.
func fitPairs(rt, sizes []float64, pairs []pair) (algo.Poly, []float64, []float64, error) {
	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for k, p := range pairs {
		xs[k] = rt[p.peak]
		ys[k] = sizes[p.size]
	}
	if len(pairs) < 2 {
		return algo.Poly{}, xs, ys, errTooFewPairs
	}
	poly, err := algo.PolyFit(xs, ys, min(3, len(pairs)-1))
	return poly, xs, ys, err
}

// refine alternates matching and fitting from an initial mapping until the
// matched pairs stop changing.
func refine(rt, sizes []float64, f func(float64) float64, tol float64) (fitted, error) {
	var best fitted
	var prev []pair
	for range maxRefine {
		pairs, dpscore := match(rt, sizes, f, tol)
		if len(pairs) < minPairs {
			return fitted{}, errTooFewPairs
		}
		poly, xs, ys, err := fitPairs(rt, sizes, pairs)
		if err != nil {
			return fitted{}, err
		}
		best = fitted{pairs: pairs, poly: poly, dpscore: dpscore, rss: algo.RSS(poly.Eval, xs, ys)}
		if slices.Equal(pairs, prev) {
			break
		}
		prev = pairs
		f = poly.Eval
	}
	return best, nil
}

// finish scores a refined alignment and builds its ladder points.
func finish(in *Input, fit fitted, msg string) Result {
	rt := in.rtimes()
	score, notes := Score(fit.dpscore, fit.rss, len(fit.pairs), in.Ladder)

	points := make([]schema.LadderPoint, len(fit.pairs))
	for k, p := range fit.pairs {
		size := in.Ladder.Sizes[p.size]
		d := size - fit.poly.Eval(rt[p.peak])
		points[k] = schema.LadderPoint{
			RTime:     in.Peaks[p.peak].RTime,
			Size:      size,
			QScore:    in.Peaks[p.peak].QScore,
			Deviation: d * d,
		}
	}

	if len(notes) > 0 {
		msg = strings.TrimPrefix(msg+"; "+strings.Join(notes, ", "), "; ")
	}
	return Result{
		Status:  Succeeded,
		Score:   score,
		DPScore: fit.dpscore,
		RSS:     fit.rss,
		Points:  points,
		Poly:    fit.poly,
		Message: msg,
	}
}

// linearMap returns the line through (r1, s1) and (r2, s2).
func linearMap(r1, s1, r2, s2 float64) func(float64) float64 {
	slope := (s2 - s1) / (r2 - r1)
	return func(r float64) float64 { return s1 + slope*(r-r1) }
}

// better reports whether a beats b, preferring more similarity then lower rss.
func better(a, b fitted) bool {
	if a.dpscore != b.dpscore {
		return a.dpscore > b.dpscore
	}
	return a.rss < b.rss
}
