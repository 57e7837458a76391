package peaks

import (
	"slices"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// noiseScore is the qscore given to peaks rejected as noise by the cascade.
const noiseScore = 0.25

// Env is the channel-level context the classification rules read.
type Env struct {
	Signal       []float64
	Median       float64 // Median of the channel signal
	AvgBetaTheta float64 // Trimmed mean of beta x theta across the channel
	Params       schema.ScanParams
}

// Verdict tells the cascade how to continue after a rule matched.
type Verdict int

// Verdicts of a matched rule.
const (
	Continue Verdict = iota
	Stop
)

// Rule is one named step of the classification cascade. Apply runs only when
// Match holds; a Stop verdict ends the cascade for that peak.
type Rule struct {
	Name  string
	Match func(p *schema.Peak, env *Env) bool
	Apply func(p *schema.Peak, score *float64) Verdict
}

func markNoise(p *schema.Peak, score *float64) Verdict {
	p.Type = schema.NoisePeak
	*score = noiseScore
	return Stop
}

func penalty(amount float64) func(*schema.Peak, *float64) Verdict {
	return func(_ *schema.Peak, score *float64) Verdict {
		*score -= amount
		return Continue
	}
}

func flankIsHigh(p *schema.Peak, env *Env) bool {
	half := 0.5 * p.Height()
	for _, i := range []int{p.BRTime, p.ERTime} {
		if i >= 0 && i < len(env.Signal) && env.Signal[i] > half {
			return true
		}
	}
	return false
}

// Rules returns the classification cascade in evaluation order.
func Rules() []Rule {
	return []Rule{
		{
			Name:  "low-height",
			Match: func(p *schema.Peak, env *Env) bool { return p.Height() < 2*env.Median },
			Apply: markNoise,
		},
		{
			Name: "narrow-or-flat",
			Match: func(p *schema.Peak, env *Env) bool {
				return p.WRTime < 6 || (p.WRTime < 10 && p.BetaTheta() < 0.275*env.AvgBetaTheta)
			},
			Apply: markNoise,
		},
		{
			Name: "moderate-noise-flank",
			Match: func(p *schema.Peak, env *Env) bool {
				return p.BetaTheta() < 0.33*env.AvgBetaTheta && flankIsHigh(p, env)
			},
			Apply: markNoise,
		},
		{
			Name:  "moderate-noise",
			Match: func(p *schema.Peak, env *Env) bool { return p.BetaTheta() < 0.33*env.AvgBetaTheta },
			Apply: penalty(0.15),
		},
		{
			Name:  "broad",
			Match: func(p *schema.Peak, env *Env) bool { return p.Beta > env.Params.MaxBeta },
			Apply: func(p *schema.Peak, score *float64) Verdict {
				p.Type = schema.BroadPeak
				*score -= 0.20
				return Continue
			},
		},
		{
			Name:  "low-beta",
			Match: func(p *schema.Peak, env *Env) bool { return p.Beta <= env.Params.MaxBeta && p.Beta < 5 },
			Apply: penalty(0.20),
		},
		{
			Name:  "low-theta",
			Match: func(p *schema.Peak, _ *Env) bool { return p.Theta < 4 },
			Apply: penalty(0.20),
		},
		{
			Name:  "short",
			Match: func(p *schema.Peak, _ *Env) bool { return p.Height() < 75 },
			Apply: penalty(0.1),
		},
		{
			Name:  "very-short",
			Match: func(p *schema.Peak, _ *Env) bool { return p.Height() < 50 },
			Apply: penalty(0.1),
		},
		{
			Name:  "asymmetric",
			Match: func(p *schema.Peak, _ *Env) bool { return !(p.SRTime > -1.32 && p.SRTime < 1.32) },
			Apply: penalty(0.1),
		},
	}
}

// NewEnv computes the channel statistics the rules depend on.
func NewEnv(peaks []*schema.Peak, signal []float64, params schema.ScanParams) *Env {
	env := &Env{Signal: signal, Params: params}
	if len(signal) > 0 {
		env.Median = algo.Median(signal)
	}

	bt := make([]float64, len(peaks))
	for i, p := range peaks {
		bt[i] = p.BetaTheta()
	}
	slices.Sort(bt)
	trimmed := bt
	if len(bt) > 4 {
		trimmed = bt[2 : len(bt)-2]
	}
	env.AvgBetaTheta = algo.Mean(trimmed)
	return env
}

// Classify assigns a type and qscore to every peak, then marks stutter peaks.
// Peaks are reset to scanned first, so classifying twice gives the same result.
func Classify(peaks []*schema.Peak, signal []float64, params schema.ScanParams, obs contract.Observer) {
	if len(peaks) == 0 {
		return
	}
	env := NewEnv(peaks, signal, params)
	rules := Rules()

	for _, p := range peaks {
		p.ResetCall()
		score := 1.0
		stopped := false
		for _, r := range rules {
			if !r.Match(p, env) {
				continue
			}
			if r.Apply(p, &score) == Stop {
				contract.Emit(obs, schema.DebugLevel, "classify", "peak %d is noise by %s", p.RTime, r.Name)
				stopped = true
				break
			}
		}
		p.QScore = clamp01(score)
		if !stopped && score < 0.5 && p.Type == schema.ScannedPeak {
			p.Type = schema.NoisePeak
		}
	}

	MarkStutter(peaks, params.StutterRTimeThreshold, params.StutterHeightThreshold)
}

// MarkStutter types a peak as stutter when a neighbor within rtimeThreshold
// scans is taller than the peak by more than 1/heightThreshold. The penalty is
// applied once per peak.
func MarkStutter(peaks []*schema.Peak, rtimeThreshold int, heightThreshold float64) {
	sorted := append([]*schema.Peak(nil), peaks...)
	schema.SortByRTime(sorted)

	shadowedBy := func(p, n *schema.Peak) bool {
		gap := p.RTime - n.RTime
		if gap < 0 {
			gap = -gap
		}
		return gap < rtimeThreshold && n.Height()*heightThreshold > p.Height()
	}

	for i, p := range sorted {
		stutter := (i > 0 && shadowedBy(p, sorted[i-1])) ||
			(i < len(sorted)-1 && shadowedBy(p, sorted[i+1]))
		if stutter {
			p.Type = schema.StutterPeak
			p.QScore = clamp01(p.QScore - 0.2)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
