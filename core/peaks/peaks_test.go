package peaks

import (
	"math"
	"testing"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addGaussian adds a Gaussian bump to sig within 60 samples of mu.
func addGaussian(sig []float64, mu int, sigma, height float64) {
	for i := max(0, mu-60); i < min(len(sig), mu+60); i++ {
		d := (float64(i) - float64(mu)) / sigma
		sig[i] += height * math.Exp(-0.5*d*d)
	}
}

var gs500 = []float64{35, 50, 75, 100, 139, 150, 160, 200, 250, 300, 340, 350, 400, 450, 490, 500}

// ladderTrace builds a clean 16-peak ladder (rtime = 500 + 8 x size) with a
// low noise bump at 3000 and a single-sample spike at 3500.
func ladderTrace() []float64 {
	heights := []float64{900, 850, 800, 1000, 700, 650, 950, 600, 750, 500, 880, 720, 640, 560, 480, 420}
	sig := make([]float64, 5000)
	for i, s := range gs500 {
		addGaussian(sig, 500+8*int(s), 3, heights[i])
	}
	addGaussian(sig, 3000, 3, 15)
	sig[3500] += 300
	return sig
}

func ladderParams() schema.ScanParams {
	p := schema.DefaultParams().Ladder
	p.ExpectedPeakNumber = len(gs500)
	return p
}

func rtimes(peaks []*schema.Peak) []int {
	out := make([]int, len(peaks))
	for i, p := range peaks {
		out[i] = p.RTime
	}
	return out
}

func TestLocalMaxima(t *testing.T) {
	t.Run("plateau resolves to its middle", func(t *testing.T) {
		y := []float64{0, 1, 5, 5, 5, 1, 0}
		assert.Equal(t, []int{3}, LocalMaxima(y, 0, 1))
	})

	t.Run("taller peak wins within min distance", func(t *testing.T) {
		y := []float64{0, 3, 0, 0, 9, 0, 0, 0, 0, 0, 4, 0}
		assert.Equal(t, []int{1, 4, 10}, LocalMaxima(y, 0, 1))
		assert.Equal(t, []int{4, 10}, LocalMaxima(y, 0, 3))
	})

	t.Run("flat signal has no maxima", func(t *testing.T) {
		assert.Empty(t, LocalMaxima([]float64{2, 2, 2, 2}, 0, 1))
	})
}

func TestFindRawHonorsRangeAndFloor(t *testing.T) {
	sig := make([]float64, 400)
	addGaussian(sig, 50, 3, 500)
	addGaussian(sig, 200, 3, 20)
	addGaussian(sig, 300, 3, 800)

	params := schema.ScanParams{MinDist: 10, MinRFU: 25, MinRTime: 60, MaxRTime: 1000}
	assert.Equal(t, []int{300}, rtimes(FindRaw(sig, params)))

	params.MinRTime = 1
	found := FindRaw(sig, params)
	assert.Equal(t, []int{50, 300}, rtimes(found))
	assert.Equal(t, 800, found[1].RFU)
	assert.Equal(t, schema.ScannedPeak, found[1].Type)
}

func TestFindRawDetectsPeakAtTraceEnd(t *testing.T) {
	sig := []float64{0, 0, 0, 0, 10, 40, 90}
	found := FindRaw(sig, schema.ScanParams{MinDist: 1, MinRFU: 1, MinRTime: 0, MaxRTime: 100})
	require.Len(t, found, 1)
	assert.Equal(t, 6, found[0].RTime)
}

func TestFindRawOverSelectsForLadder(t *testing.T) {
	sig := make([]float64, 1000)
	for i := range 10 {
		addGaussian(sig, 50+i*90, 3, float64(100+i*50))
	}
	params := schema.ScanParams{MinDist: 10, MinRFU: 1, MinRTime: 1, MaxRTime: 1000, ExpectedPeakNumber: 3}
	found := FindRaw(sig, params)
	// Six tallest, reported in scan time order.
	assert.Equal(t, []int{410, 500, 590, 680, 770, 860}, rtimes(found))
}

func TestGaussianRoundTrip(t *testing.T) {
	sig := make([]float64, 800)
	apexes := []int{200, 400, 600}
	heights := []float64{500, 800, 300}
	for i, mu := range apexes {
		addGaussian(sig, mu, 3, heights[i])
	}

	found := FindRaw(sig, schema.ScanParams{MinDist: 10, MinRFU: 10, MinRTime: 1, MaxRTime: 30000})
	require.Len(t, found, 3)
	Measure(found, sig)

	for i, p := range found {
		assert.InDelta(t, apexes[i], p.RTime, 1)
		analytic := math.Sqrt(2*math.Pi) * 3 * heights[i]
		assert.InEpsilon(t, analytic, p.Area, 0.05, "peak at %d", p.RTime)
		assert.LessOrEqual(t, p.BRTime, p.RTime)
		assert.LessOrEqual(t, p.RTime, p.ERTime)
		assert.GreaterOrEqual(t, p.Area, float64(p.RFU))
		assert.InDelta(t, 0, p.SRTime, 1e-9, "symmetric peak")
		assert.Equal(t, 12, p.WRTime)
	}
}

func TestMeasureDegenerateSpike(t *testing.T) {
	sig := make([]float64, 20)
	sig[10] = 300
	p := schema.NewPeak(10, 300)
	Measure([]*schema.Peak{p}, sig)
	assert.Equal(t, 9, p.BRTime)
	assert.Equal(t, 11, p.ERTime)
	assert.InDelta(t, 300, p.Area, 1e-9)
	assert.InDelta(t, 150, p.Omega, 1e-9)

	// A zero-width peak defaults theta and omega to zero.
	flat := []float64{0, 5, 0}
	q := schema.NewPeak(1, 5)
	Measure([]*schema.Peak{q}, flat)
	if q.WRTime == 0 {
		assert.Zero(t, q.Theta)
		assert.Zero(t, q.Omega)
	}
}

func TestFilterArtifactsLadder(t *testing.T) {
	sig := ladderTrace()
	params := ladderParams()

	found := FindRaw(sig, params)
	require.Len(t, found, 18, "16 rungs, the noise bump and the spike")
	Measure(found, sig)

	obs := &contract.CollectingObserver{}
	kept := FilterArtifacts(found, params, obs)

	want := make([]int, len(gs500))
	for i, s := range gs500 {
		want[i] = 500 + 8*int(s)
	}
	assert.Equal(t, want, rtimes(kept))
	assert.NotEmpty(t, obs.Diagnostics())
}

func TestFilterArtifactsShortcuts(t *testing.T) {
	peaks := []*schema.Peak{
		{RTime: 30, RFU: 5, WRTime: 1},
		{RTime: 10, RFU: 5, WRTime: 1},
	}

	kept := FilterArtifacts(peaks, schema.ScanParams{KeepArtifacts: true}, nil)
	assert.Equal(t, []int{10, 30}, rtimes(kept))

	kept = FilterArtifacts(peaks, schema.ScanParams{ExpectedPeakNumber: 2}, nil)
	assert.Len(t, kept, 2, "exact expected count is returned unchanged")

	assert.Empty(t, FilterArtifacts(nil, schema.ScanParams{}, nil))
}

func TestFilterArtifactsNonLadder(t *testing.T) {
	mk := func(rtime, rfu int, area float64, w int) *schema.Peak {
		p := schema.NewPeak(rtime, rfu)
		p.Area = area
		p.WRTime = w
		p.BRTime = rtime - w/2
		p.ERTime = p.BRTime + w
		p.Beta = area / float64(rfu)
		p.Theta = float64(rfu) / float64(w)
		p.Omega = area / float64(w)
		return p
	}
	peaks := []*schema.Peak{
		mk(100, 500, 3600, 12), // protected
		mk(200, 400, 2900, 12), // protected
		mk(300, 300, 2200, 12),
		mk(400, 40, 100, 12),  // omega below floor
		mk(500, 300, 300, 2),  // too narrow
		mk(600, 30, 40, 12),   // omega below floor
		mk(700, 600, 4400, 12),
	}
	params := schema.DefaultParams().NonLadder
	params.MinOmega = 50
	assert.Equal(t, []int{100, 200, 300, 700}, rtimes(FilterArtifacts(peaks, params, nil)))
}

func TestRemoveShadowed(t *testing.T) {
	a := &schema.Peak{RTime: 100, BRTime: 94, ERTime: 106, RFU: 1000}
	b := &schema.Peak{RTime: 110, BRTime: 107, ERTime: 115, RFU: 100}
	c := &schema.Peak{RTime: 300, BRTime: 294, ERTime: 306, RFU: 200}

	assert.Equal(t, []int{100, 300}, rtimes(RemoveShadowed([]*schema.Peak{c, b, a}, 5, 0.5)))
	assert.Equal(t, []int{100, 110, 300}, rtimes(RemoveShadowed([]*schema.Peak{a, b, c}, 5, 0.05)))
	assert.Equal(t, []int{100, 110, 300}, rtimes(RemoveShadowed([]*schema.Peak{a, b, c}, 1, 0.5)))
}

func TestRemoveShadowedRatioMonotone(t *testing.T) {
	var peaks []*schema.Peak
	for i := range 40 {
		rt := 100 + i*9
		rfu := 50 + (i*37)%400
		peaks = append(peaks, &schema.Peak{RTime: rt, BRTime: rt - 4, ERTime: rt + 4, RFU: rfu})
	}
	// A lower ratio is more permissive, so survivors never shrink as it drops.
	prev := -1
	for ratio := 1.0; ratio >= 0; ratio -= 0.1 {
		n := len(RemoveShadowed(peaks, 5, ratio))
		assert.GreaterOrEqual(t, n, prev, "ratio %.1f", ratio)
		prev = n
	}
	assert.Len(t, RemoveShadowed(peaks, 5, 0), len(peaks))
}

func TestTrendGate(t *testing.T) {
	var sample []*schema.Peak
	for rt := 100; rt <= 1000; rt += 100 {
		sample = append(sample, &schema.Peak{RTime: rt, Omega: 0.1 * float64(rt)})
	}
	bypass := func(p *schema.Peak) bool { return p.Omega >= 100 }
	g := trendGate(sample, func(p *schema.Peak) float64 { return p.Omega }, 0.25, bypass, nil)

	assert.False(t, g(&schema.Peak{RTime: 500, Omega: 10}))
	assert.True(t, g(&schema.Peak{RTime: 500, Omega: 13}))
	assert.True(t, g(&schema.Peak{RTime: 5000, Omega: 100}))

	single := trendGate(sample[:1], func(p *schema.Peak) float64 { return p.Omega }, 0.25, bypass, nil)
	assert.True(t, single(&schema.Peak{RTime: 1, Omega: 0}), "too few points disables the gate")
}

func TestScanCapsNonLadderPeaks(t *testing.T) {
	sig := make([]float64, 2000)
	for i := range 8 {
		addGaussian(sig, 100+i*200, 3, float64(200+i*40))
	}
	params := schema.DefaultParams().NonLadder
	params.MaxPeakNumber = 3
	found := Scan(sig, params, nil)
	assert.Equal(t, []int{1100, 1300, 1500}, rtimes(found))

	assert.Nil(t, Scan(make([]float64, 100), params, nil))
}
