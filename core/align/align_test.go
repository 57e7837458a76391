package align

import (
	"errors"
	"math"
	"testing"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gs500(t *testing.T) schema.Ladder {
	t.Helper()
	l, ok := schema.LookupLadder("LIZ500")
	require.True(t, ok)
	return l
}

// ladderPeaks places one peak per size at 1000 + 10*size scans.
func ladderPeaks(sizes ...float64) []*schema.Peak {
	peaks := make([]*schema.Peak, 0, len(sizes))
	for _, s := range sizes {
		p := schema.NewPeak(1000+int(10*s), 500)
		p.QScore = 1
		peaks = append(peaks, p)
	}
	schema.SortByRTime(peaks)
	return peaks
}

func assertExact(t *testing.T, res Result, ladder schema.Ladder) {
	t.Helper()
	require.Len(t, res.Points, len(ladder.Sizes))
	for i, pt := range res.Points {
		assert.Equal(t, ladder.Sizes[i], pt.Size)
		assert.Equal(t, 1000+int(10*pt.Size), pt.RTime)
		assert.InDelta(t, 0, pt.Deviation, 1e-6)
	}
	assert.Equal(t, 1.0, res.Score)
	assert.InDelta(t, 0, res.RSS, 1e-6)
	assert.InDelta(t, 250, res.Poly.Eval(3500), 1e-6)
}

func TestAlignCleanLadderUsesHCluster(t *testing.T) {
	ladder := gs500(t)
	res, attempts, err := NewAligner(nil).Align(Input{Peaks: ladderPeaks(ladder.Sizes...), Ladder: ladder})
	require.NoError(t, err)
	assert.Equal(t, "hcluster", res.Strategy)
	assert.Equal(t, Succeeded, res.Status)
	assertExact(t, res, ladder)
	require.Len(t, attempts, 1)
	assert.Equal(t, "succeeded", attempts[0].Status)
	assert.Equal(t, 1350, res.MinRTime())
	assert.Equal(t, 6000, res.MaxRTime())
}

func TestAlignShoulderIsMerged(t *testing.T) {
	ladder := gs500(t)
	peaks := ladderPeaks(ladder.Sizes...)
	shoulder := schema.NewPeak(3008, 120)
	peaks = append(peaks, shoulder)
	schema.SortByRTime(peaks)

	res := HCluster{}.Align(&Input{Peaks: peaks, Ladder: ladder})
	require.Equal(t, Succeeded, res.Status)
	assertExact(t, res, ladder)
}

func TestAlignNoisyLadderFallsToDP(t *testing.T) {
	ladder := gs500(t)
	extra := []float64{42, 62, 88, 120, 180, 225, 275, 320, 375, 425, 470, 520}
	peaks := ladderPeaks(append(append([]float64{}, ladder.Sizes...), extra...)...)

	res, attempts, err := NewAligner(nil).Align(Input{Peaks: peaks, Ladder: ladder})
	require.NoError(t, err)
	assert.Equal(t, "dp", res.Strategy)
	assertExact(t, res, ladder)

	require.Len(t, attempts, 2)
	assert.Equal(t, "hcluster", attempts[0].Strategy)
	assert.Equal(t, "not-attempted", attempts[0].Status)
}

func TestAlignEvolveCleanLadder(t *testing.T) {
	ladder := gs500(t)
	res := Evolve{Evaluations: 500}.Align(&Input{Peaks: ladderPeaks(ladder.Sizes...), Ladder: ladder})
	require.Equal(t, Succeeded, res.Status)
	assertExact(t, res, ladder)
}

func TestAlignAnchorsAreExclusive(t *testing.T) {
	ladder := gs500(t)
	in := Input{
		Peaks:   ladderPeaks(ladder.Sizes...),
		Ladder:  ladder,
		Anchors: []schema.AnchorPair{{RTime: 1352, Size: 35}, {RTime: 5995, Size: 500}},
	}
	res, attempts, err := NewAligner(nil).Align(in)
	require.NoError(t, err)
	assert.Equal(t, "anchor", res.Strategy)
	require.Len(t, attempts, 1)
	assertExact(t, res, ladder)
}

func TestAnchorTooFar(t *testing.T) {
	ladder := gs500(t)
	in := &Input{
		Peaks:   ladderPeaks(ladder.Sizes...),
		Ladder:  ladder,
		Anchors: []schema.AnchorPair{{RTime: 100, Size: 35}, {RTime: 9000, Size: 500}},
	}
	res := Anchor{}.Align(in)
	assert.Equal(t, Failed, res.Status)
	assert.Contains(t, res.Message, "0 of 2")
}

func TestAlignMismatch(t *testing.T) {
	ladder := gs500(t)
	obs := &contract.CollectingObserver{}
	_, attempts, err := NewAligner(obs).Align(Input{Peaks: ladderPeaks(100, 200, 300), Ladder: ladder})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrLadderMismatch))
	assert.True(t, IsMismatch(err))

	var mm *MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Len(t, mm.Attempts, 3)
	assert.Len(t, attempts, 3)
	assert.Contains(t, err.Error(), "LIZ500")

	diags := obs.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Equal(t, schema.WarnLevel, diags[len(diags)-1].Level)
}

type stubStrategy struct {
	name   string
	result Result
	accept float64
	calls  *int
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Accepts(score float64) bool { return score >= s.accept }

func (s stubStrategy) Align(*Input) Result {
	*s.calls++
	return s.result
}

func TestAlignerSelectionPolicy(t *testing.T) {
	var first, second, third, anchor int
	a := &Aligner{
		Strategies: []Strategy{
			stubStrategy{"low", Result{Status: Succeeded, Score: 0.5}, 0.9, &first},
			stubStrategy{"good", Result{Status: Succeeded, Score: 0.8}, 0.75, &second},
			stubStrategy{"never", Result{Status: Succeeded, Score: 1}, 0, &third},
		},
		Anchor: stubStrategy{"anchor", Result{Status: Succeeded, Score: 0.1}, 0, &anchor},
	}

	res, attempts, err := a.Align(Input{Ladder: schema.Ladder{Name: "X"}})
	require.NoError(t, err)
	assert.Equal(t, "good", res.Strategy)
	assert.Len(t, attempts, 2)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 0, third)
	assert.Equal(t, 0, anchor)

	res, attempts, err = a.Align(Input{Anchors: []schema.AnchorPair{{RTime: 1, Size: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "anchor", res.Strategy)
	assert.Len(t, attempts, 1)
	assert.Equal(t, 1, anchor)
	assert.Equal(t, 1, first)
}

func TestScore(t *testing.T) {
	ladder := schema.Ladder{
		Strict: schema.ScoreLimits{MaxRSS: 40, MinDPScore: 15, MinSizes: 16},
		Relax:  schema.ScoreLimits{MaxRSS: 200, MinDPScore: 14, MinSizes: 16},
	}
	tests := []struct {
		name    string
		dpscore float64
		rss     float64
		matched int
		want    float64
	}{
		{"strict", 16, 0, 16, 1},
		{"one missing", 15, 0, 15, 0.3 + 0.5 + 0.2*0.875},
		{"rss far off", 16, 1200, 16, 0.3 + 0.5*0.01 + 0.2},
		{"low similarity", 4, 0, 16, 0.3*math.Pow(0.01, 0.1) + 0.5 + 0.2},
		{"half missing", 16, 0, 8, 0.3 + 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Score(tt.dpscore, tt.rss, tt.matched, ladder)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDefaultTolerance(t *testing.T) {
	liz600, _ := schema.LookupLadder("LIZ600")
	assert.Equal(t, 3.0, DefaultTolerance(liz600.Sizes))
	assert.Equal(t, 5.0, DefaultTolerance([]float64{35, 50, 75, 100, 139, 150, 160}))
	assert.Equal(t, 1.0, DefaultTolerance([]float64{100, 101}))
	assert.Equal(t, 5.0, DefaultTolerance([]float64{100}))
}

func TestMatch(t *testing.T) {
	sizes := []float64{100, 200, 300, 400}
	identity := func(r float64) float64 { return r }

	pairs, score := match([]float64{100, 150, 200, 300, 401}, sizes, identity, 5)
	assert.Equal(t, []pair{{0, 0}, {2, 1}, {3, 2}, {4, 3}}, pairs)
	assert.InDelta(t, 3.8, score, 1e-9)

	pairs, score = match([]float64{50, 60}, sizes, identity, 5)
	assert.Empty(t, pairs)
	assert.Zero(t, score)
}

func TestMergeShoulders(t *testing.T) {
	peaks := []*schema.Peak{
		schema.NewPeak(100, 50),
		schema.NewPeak(200, 100),
		schema.NewPeak(205, 300),
		schema.NewPeak(300, 80),
		schema.NewPeak(400, 80),
	}
	merged := MergeShoulders(peaks)
	var rt []int
	for _, p := range merged {
		rt = append(rt, p.RTime)
	}
	assert.Equal(t, []int{100, 205, 300, 400}, rt)
}

func TestSplitAtGaps(t *testing.T) {
	values := []float64{1, 2, 3, 10, 11, 12, 30, 31}
	assert.Equal(t, []span{{0, 3}, {3, 6}, {6, 8}}, SplitAtGaps(values, 3))
	assert.Equal(t, []span{{0, 8}}, SplitAtGaps(values, 1))
	assert.Equal(t, []span{{0, 2}}, SplitAtGaps([]float64{1, 2}, 2))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "not-attempted", NotAttempted.String())
}
