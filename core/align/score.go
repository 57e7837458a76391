package align

import (
	"math"

	"github.com/huangsam/fragscan/schema"
)

// Score weights of the relaxed pass.
const (
	weightDPScore = 0.3
	weightRSS     = 0.5
	weightSizes   = 0.2
)

// Score rates an alignment. It is 1 when the strict limits of the ladder
// hold, otherwise a weighted blend of how far the alignment misses the
// relaxed limits.
func Score(dpscore, rss float64, matched int, ladder schema.Ladder) (float64, []string) {
	strict := ladder.Strict
	if dpscore >= strict.MinDPScore && rss <= strict.MaxRSS && matched >= strict.MinSizes {
		return 1, nil
	}

	relax := ladder.Relax
	var msgs []string

	dpPart := 1.0
	if delta := relax.MinDPScore - dpscore; delta > 0 {
		dpPart = math.Pow(1e-2, 1e-2*delta)
	}

	rssPart := 1.0
	if delta := rss - relax.MaxRSS; delta > 0 {
		rssPart = math.Pow(1e-2, 1e-3*delta)
		msgs = append(msgs, "rss above relaxed limit")
	}

	sizePart := 1.0
	if missing := relax.MinSizes - matched; missing > 0 {
		sizePart = math.Max(0, 1-float64(missing)/(0.5*float64(relax.MinSizes)))
		msgs = append(msgs, "missing sizes")
	}

	return weightDPScore*dpPart + weightRSS*rssPart + weightSizes*sizePart, msgs
}
