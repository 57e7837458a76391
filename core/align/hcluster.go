package align

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/schema"
)

const (
	// DefaultMaxExcess is how many more peaks than sizes hcluster will take on.
	DefaultMaxExcess = 5
	// shoulderFactor scales the median peak gap into the merge distance.
	shoulderFactor = 0.1
)

// HCluster merges shoulder peaks, splits peaks and sizes into the same
// number of clusters, and pairs each cluster by trimming its ends.
type HCluster struct {
	MaxExcess int
}

// Name implements the Strategy interface.
func (HCluster) Name() string { return "hcluster" }

// Accepts implements the Strategy interface.
func (HCluster) Accepts(score float64) bool { return score > 0.9 }

// Align implements the Strategy interface.
func (h HCluster) Align(in *Input) Result {
	maxExcess := h.MaxExcess
	if maxExcess <= 0 {
		maxExcess = DefaultMaxExcess
	}
	sizes := in.Ladder.Sizes
	if excess := len(in.Peaks) - len(sizes); excess > maxExcess {
		return Result{Status: NotAttempted, Message: fmt.Sprintf("%d peaks exceed %d sizes by more than %d", len(in.Peaks), len(sizes), maxExcess)}
	}

	merged := *in
	merged.Peaks = MergeShoulders(in.Peaks)
	rt := merged.rtimes()
	if len(rt) < minPairs {
		return Result{Status: Failed, Message: fmt.Sprintf("only %d peaks", len(rt))}
	}

	k := max(1, in.Ladder.K)
	peakGroups := SplitAtGaps(rt, k)
	sizeGroups := SplitAtGaps(sizes, k)
	if len(peakGroups) != len(sizeGroups) {
		peakGroups = SplitAtGaps(rt, 1)
		sizeGroups = SplitAtGaps(sizes, 1)
	}

	var pairs []pair
	for g := range peakGroups {
		pairs = append(pairs, trimPairs(rt, sizes, peakGroups[g], sizeGroups[g], maxExcess)...)
	}
	if len(pairs) < minPairs {
		return Result{Status: Failed, Message: "clusters could not be paired"}
	}

	poly, _, _, err := fitPairs(rt, sizes, pairs)
	if err != nil {
		return Result{Status: Failed, Message: err.Error()}
	}
	fit, err := refine(rt, sizes, poly.Eval, merged.tolerance())
	if err != nil {
		return Result{Status: Failed, Message: err.Error()}
	}
	return finish(&merged, fit, fmt.Sprintf("%d clusters", len(peakGroups)))
}

// span is a half open index range.
type span struct {
	lo, hi int
}

func (s span) len() int { return s.hi - s.lo }

// trimPairs pairs a peak cluster with a size cluster one to one, dropping
// items from the ends of the longer one. The trim with the lowest residual
// wins.
func trimPairs(rt, sizes []float64, ps, ss span, maxExcess int) []pair {
	d := ps.len() - ss.len()
	if d > maxExcess || -d > maxExcess {
		return nil
	}
	count := min(ps.len(), ss.len())
	if count < 2 {
		return nil
	}

	var best []pair
	bestRSS := math.Inf(1)
	for off := range abs(d) + 1 {
		cand := make([]pair, count)
		for i := range cand {
			if d >= 0 {
				cand[i] = pair{ps.lo + off + i, ss.lo + i}
			} else {
				cand[i] = pair{ps.lo + i, ss.lo + off + i}
			}
		}
		poly, xs, ys, err := fitPairs(rt, sizes, cand)
		if err != nil {
			continue
		}
		if rss := algo.RSS(poly.Eval, xs, ys); rss < bestRSS {
			best, bestRSS = cand, rss
		}
	}
	return best
}

// MergeShoulders collapses runs of peaks closer than a fraction of the median
// gap into their tallest member.
func MergeShoulders(peaks []*schema.Peak) []*schema.Peak {
	if len(peaks) < 3 {
		return slices.Clone(peaks)
	}
	gaps := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		gaps[i-1] = float64(peaks[i].RTime - peaks[i-1].RTime)
	}
	limit := shoulderFactor * algo.Median(gaps)

	out := []*schema.Peak{peaks[0]}
	for i := 1; i < len(peaks); i++ {
		last := out[len(out)-1]
		if gaps[i-1] >= limit {
			out = append(out, peaks[i])
			continue
		}
		if peaks[i].RFU > last.RFU {
			out[len(out)-1] = peaks[i]
		}
	}
	return out
}

// SplitAtGaps cuts sorted values into k groups at the k-1 widest gaps,
// measured relative to the full range. That is single linkage clustering
// stopped at k clusters.
func SplitAtGaps(values []float64, k int) []span {
	n := len(values)
	if k <= 1 || n < 2*k {
		return []span{{0, n}}
	}
	cuts := make([]int, n-1)
	for i := range cuts {
		cuts[i] = i + 1
	}
	slices.SortStableFunc(cuts, func(a, b int) int {
		return cmp.Compare(values[b]-values[b-1], values[a]-values[a-1])
	})
	cuts = cuts[:k-1]
	slices.Sort(cuts)

	out := make([]span, 0, k)
	lo := 0
	for _, c := range cuts {
		out = append(out, span{lo, c})
		lo = c
	}
	return append(out, span{lo, n})
}
