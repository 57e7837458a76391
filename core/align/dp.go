package align

import (
	"cmp"
	"fmt"
	"slices"
)

const (
	// DefaultSeedEdge is how many peaks and sizes at each end seed the search.
	DefaultSeedEdge = 5
	refinedSeeds    = 5
)

// DP searches linear seeds built from end peaks and end sizes, refines the
// most promising by dynamic programming matching, and keeps the best.
type DP struct {
	SeedEdge int
}

// Name implements the Strategy interface.
func (DP) Name() string { return "dp" }

// Accepts implements the Strategy interface.
func (DP) Accepts(score float64) bool { return score >= 0.75 }

type seed struct {
	f     func(float64) float64
	score float64
}

// Align implements the Strategy interface.
func (d DP) Align(in *Input) Result {
	edge := d.SeedEdge
	if edge <= 0 {
		edge = DefaultSeedEdge
	}
	rt, sizes := in.rtimes(), in.Ladder.Sizes
	n, m := len(rt), len(sizes)
	if n < minPairs || m < minPairs {
		return Result{Status: Failed, Message: fmt.Sprintf("only %d peaks for %d sizes", n, m)}
	}
	tol := in.tolerance()
	k := min(edge, n, m)

	var seeds []seed
	for i := range k {
		for a := range k {
			for j := n - k; j < n; j++ {
				for b := m - k; b < m; b++ {
					if rt[j] <= rt[i] || sizes[b] <= sizes[a] {
						continue
					}
					f := linearMap(rt[i], sizes[a], rt[j], sizes[b])
					_, s := match(rt, sizes, f, tol)
					seeds = append(seeds, seed{f, s})
				}
			}
		}
	}
	slices.SortStableFunc(seeds, func(x, y seed) int { return cmp.Compare(y.score, x.score) })

	var best fitted
	found := false
	for _, s := range seeds[:min(refinedSeeds, len(seeds))] {
		fit, err := refine(rt, sizes, s.f, tol)
		if err != nil {
			continue
		}
		if !found || better(fit, best) {
			best, found = fit, true
		}
	}
	if !found {
		return Result{Status: Failed, Message: "no seed matched enough sizes"}
	}
	return finish(in, best, fmt.Sprintf("%d seeds", len(seeds)))
}
