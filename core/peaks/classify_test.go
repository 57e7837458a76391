package peaks

import (
	"testing"

	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shapedPeak returns a measured peak with a Gaussian-like shape (beta 7.3, width 12).
func shapedPeak(rtime, rfu int) *schema.Peak {
	p := schema.NewPeak(rtime, rfu)
	p.WRTime = 12
	p.BRTime = rtime - 6
	p.ERTime = rtime + 6
	p.Area = 7.3 * float64(rfu)
	p.Beta = 7.3
	p.Theta = float64(rfu) / 12
	p.Omega = p.Area / 12
	return p
}

func TestClassifyCleanPeaks(t *testing.T) {
	sig := ladderTrace()
	params := ladderParams()
	found := Scan(sig, params, nil)
	require.Len(t, found, 16)

	Classify(found, sig, params, nil)
	for _, p := range found {
		assert.Equal(t, schema.ScannedPeak, p.Type, "peak %d", p.RTime)
		assert.InDelta(t, 1.0, p.QScore, 1e-9, "peak %d", p.RTime)
		assert.Equal(t, -1.0, p.Size)
	}
}

func TestClassifyRules(t *testing.T) {
	params := schema.DefaultParams().NonLadder
	sig := make([]float64, 1000)

	t.Run("low height against the median", func(t *testing.T) {
		noisy := make([]float64, 1000)
		for i := range noisy {
			noisy[i] = 60
		}
		p := shapedPeak(500, 100)
		Classify([]*schema.Peak{p}, noisy, params, nil)
		assert.Equal(t, schema.NoisePeak, p.Type)
		assert.InDelta(t, 0.25, p.QScore, 1e-9)
	})

	t.Run("narrow", func(t *testing.T) {
		p := shapedPeak(500, 400)
		p.WRTime = 5
		Classify([]*schema.Peak{p}, sig, params, nil)
		assert.Equal(t, schema.NoisePeak, p.Type)
		assert.InDelta(t, 0.25, p.QScore, 1e-9)
	})

	t.Run("broad", func(t *testing.T) {
		p := shapedPeak(500, 400)
		p.Beta = 30
		Classify([]*schema.Peak{p}, sig, params, nil)
		assert.Equal(t, schema.BroadPeak, p.Type)
		assert.InDelta(t, 0.8, p.QScore, 1e-9)
	})

	t.Run("short and asymmetric", func(t *testing.T) {
		p := shapedPeak(500, 60)
		p.SRTime = 1.5
		Classify([]*schema.Peak{p}, sig, params, nil)
		assert.Equal(t, schema.ScannedPeak, p.Type)
		assert.InDelta(t, 0.8, p.QScore, 1e-9)
	})

	t.Run("penalties below half become noise", func(t *testing.T) {
		p := shapedPeak(500, 40)
		p.Beta = 3
		p.Theta = 2
		Classify([]*schema.Peak{p}, sig, params, nil)
		// 1 - 0.2 (beta) - 0.2 (theta) - 0.2 (height) = 0.4
		assert.Equal(t, schema.NoisePeak, p.Type)
		assert.InDelta(t, 0.4, p.QScore, 1e-9)
	})

	t.Run("moderate noise with a high flank", func(t *testing.T) {
		flank := make([]float64, 1000)
		a, b := shapedPeak(200, 400), shapedPeak(500, 400)
		weak := shapedPeak(800, 400)
		weak.Theta = 2 // beta x theta far below the channel average
		flank[weak.BRTime] = 300
		Classify([]*schema.Peak{a, b, weak}, flank, params, nil)
		assert.Equal(t, schema.NoisePeak, weak.Type)
		assert.InDelta(t, 0.25, weak.QScore, 1e-9)
		assert.Equal(t, schema.ScannedPeak, a.Type)
	})

	t.Run("moderate noise without a high flank is penalized", func(t *testing.T) {
		a, b := shapedPeak(200, 400), shapedPeak(500, 400)
		weak := shapedPeak(800, 400)
		weak.Theta = 5
		Classify([]*schema.Peak{a, b, weak}, sig, params, nil)
		assert.Equal(t, schema.ScannedPeak, weak.Type)
		assert.InDelta(t, 0.85, weak.QScore, 1e-9)
	})
}

func TestClassifyStutterScenario(t *testing.T) {
	sig := make([]float64, 300)
	params := schema.DefaultParams().NonLadder

	main, minor := shapedPeak(100, 1000), shapedPeak(103, 100)
	peaks := []*schema.Peak{main, minor}

	noStutter := params
	noStutter.StutterRTimeThreshold = 0
	Classify(peaks, sig, noStutter, nil)
	before := minor.QScore
	require.Equal(t, schema.ScannedPeak, minor.Type)

	params.StutterRTimeThreshold = 5
	params.StutterHeightThreshold = 0.15
	Classify(peaks, sig, params, nil)
	assert.Equal(t, schema.StutterPeak, minor.Type)
	assert.InDelta(t, before-0.2, minor.QScore, 1e-9)
	assert.Equal(t, schema.ScannedPeak, main.Type)
}

func TestMarkStutterOncePerPeak(t *testing.T) {
	left, mid, right := shapedPeak(100, 1000), shapedPeak(103, 50), shapedPeak(106, 1000)
	for _, p := range []*schema.Peak{left, mid, right} {
		p.QScore = 1
	}
	MarkStutter([]*schema.Peak{right, mid, left}, 5, 0.15)
	assert.Equal(t, schema.StutterPeak, mid.Type)
	assert.InDelta(t, 0.8, mid.QScore, 1e-9)
	assert.Equal(t, schema.ScannedPeak, left.Type)
}

func TestClassifyIdempotentAndClamped(t *testing.T) {
	sig := ladderTrace()
	params := ladderParams()
	found := FindRaw(sig, params)
	Measure(found, sig)

	Classify(found, sig, params, nil)
	first := make([]schema.Peak, len(found))
	for i, p := range found {
		first[i] = *p
		assert.GreaterOrEqual(t, p.QScore, 0.0)
		assert.LessOrEqual(t, p.QScore, 1.0)
	}

	Classify(found, sig, params, nil)
	for i, p := range found {
		assert.Equal(t, first[i].Type, p.Type, "peak %d", p.RTime)
		assert.InDelta(t, first[i].QScore, p.QScore, 1e-12, "peak %d", p.RTime)
	}
}

func TestNewEnvTrimmedAverage(t *testing.T) {
	var peaks []*schema.Peak
	for _, bt := range []float64{1, 2, 10, 20, 30, 100, 1000} {
		peaks = append(peaks, &schema.Peak{Beta: 1, Theta: bt})
	}
	env := NewEnv(peaks, []float64{1, 2, 3}, schema.ScanParams{})
	assert.InDelta(t, 20, env.AvgBetaTheta, 1e-9)
	assert.InDelta(t, 2, env.Median, 1e-9)

	few := NewEnv(peaks[:3], nil, schema.ScanParams{})
	assert.InDelta(t, 13.0/3, few.AvgBetaTheta, 1e-9)
}
