package peaks

import (
	"math"
	"slices"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Tunable cutoffs of the adaptive gates.
const (
	thetaTrendWeight = 0.5   // theta must reach this share of its trend
	omegaTrendWeight = 0.25  // omega must reach this share of its trend
	thetaSharpLimit  = 8.0   // ranked theta sample at or above this is already sharp
	omegaSharpLimit  = 200.0 // ranked omega sample at or above this is already sharp
	thetaBypass      = 100.0 // theta above this passes regardless of trend
	omegaBypass      = 100.0 // omega at or above this passes regardless of trend
	omegaCap         = 125.0 // upper bound of the flat omega gate
	rfuFloorFraction = 0.125 // share of the (expected-1)th tallest rfu
	nonLadderRFU     = 2.0   // rfu floor without an expected count
	protectedPeaks   = 2     // leading peaks spared from the gates
	protectedArea    = 50.0  // area a protected peak needs
)

// gate accepts or rejects a peak.
type gate func(p *schema.Peak) bool

func acceptAll(*schema.Peak) bool { return true }

// exclusion is a hard rejection applied in every phase.
type exclusion struct {
	name  string
	match func(p *schema.Peak, rfuFloor float64) bool
}

var exclusions = []exclusion{
	{"flat-and-small", func(p *schema.Peak, _ float64) bool { return p.Theta < 1 && p.Area < 25 && p.Omega < 5 }},
	{"low-rfu", func(p *schema.Peak, floor float64) bool { return float64(p.RFU) < floor }},
	{"broad-and-flat", func(p *schema.Peak, _ float64) bool { return p.Beta > 25 && p.Theta < 0.5 }},
	{"too-narrow", func(p *schema.Peak, _ float64) bool { return p.WRTime < 3 }},
	{"low-shape-tall", func(p *schema.Peak, _ float64) bool { return p.RFU >= 25 && p.BetaTheta() < 6 }},
	{"low-shape-short", func(p *schema.Peak, _ float64) bool { return p.RFU < 25 && p.BetaTheta() < 3 }},
}

// FilterArtifacts returns the measured peaks that look like real signal,
// ordered by scan time. With params.KeepArtifacts every peak is kept.
func FilterArtifacts(peaks []*schema.Peak, params schema.ScanParams, obs contract.Observer) []*schema.Peak {
	if params.KeepArtifacts || len(peaks) == 0 {
		out := append([]*schema.Peak(nil), peaks...)
		schema.SortByRTime(out)
		return out
	}
	epn := params.ExpectedPeakNumber
	if len(peaks) == epn {
		out := append([]*schema.Peak(nil), peaks...)
		schema.SortByRTime(out)
		return out
	}

	var qTheta, qOmega gate
	var rfuFloor float64
	if epn > 0 {
		qTheta, qOmega, rfuFloor = adaptiveGates(peaks, params, obs)
	} else {
		qTheta = acceptAll
		if params.MinTheta > 0 {
			qTheta = func(p *schema.Peak) bool { return p.Theta >= params.MinTheta }
		}
		qOmega = func(p *schema.Peak) bool { return p.Omega >= params.MinOmega }
		rfuFloor = nonLadderRFU
	}

	var sharp []*schema.Peak
	for _, p := range peaks {
		if len(sharp) < protectedPeaks && p.Area > protectedArea {
			sharp = append(sharp, p)
			continue
		}
		if !qOmega(p) {
			contract.Emit(obs, schema.DebugLevel, "filter", "peak %d rejected by omega gate (omega %.2f)", p.RTime, p.Omega)
			continue
		}
		if !qTheta(p) {
			contract.Emit(obs, schema.DebugLevel, "filter", "peak %d rejected by theta gate (theta %.2f)", p.RTime, p.Theta)
			continue
		}
		if name, hit := excluded(p, rfuFloor); hit {
			contract.Emit(obs, schema.DebugLevel, "filter", "peak %d rejected as %s", p.RTime, name)
			continue
		}
		sharp = append(sharp, p)
	}

	out := RemoveShadowed(sharp, params.ArtifactDist, params.ArtifactRatio)
	contract.Emit(obs, schema.InfoLevel, "filter", "%d of %d peaks kept", len(out), len(peaks))
	return out
}

func excluded(p *schema.Peak, rfuFloor float64) (string, bool) {
	for _, ex := range exclusions {
		if ex.match(p, rfuFloor) {
			return ex.name, true
		}
	}
	return "", false
}

// RemoveShadowed drops peaks whose span sits within dist of a neighbor's span
// while being shorter than ratio x that neighbor. Neighbors are taken from the
// input, so a dropped peak still shadows the peaks next to it.
func RemoveShadowed(peaks []*schema.Peak, dist int, ratio float64) []*schema.Peak {
	sorted := append([]*schema.Peak(nil), peaks...)
	schema.SortByRTime(sorted)

	out := make([]*schema.Peak, 0, len(sorted))
	for i, p := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			if p.BRTime-prev.ERTime < dist && float64(p.RFU) < ratio*float64(prev.RFU) {
				continue
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if next.BRTime-p.ERTime < dist && float64(p.RFU) < ratio*float64(next.RFU) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// adaptiveGates derives the theta and omega gates and the rfu floor from the
// ranked distribution of the candidates.
func adaptiveGates(peaks []*schema.Peak, params schema.ScanParams, obs contract.Observer) (gate, gate, float64) {
	epn := params.ExpectedPeakNumber
	half := algo.RoundHalfEven(float64(epn) / 2)

	qTheta := acceptAll
	if params.MinTheta > 0 {
		ranked := window(algo.RankPeaks(peaks, algo.ByTheta), half+3, epn-1)
		if len(ranked) > 0 {
			last := ranked[len(ranked)-1].Theta
			if last < thetaSharpLimit {
				qTheta = trendGate(ranked, algo.ByTheta, thetaTrendWeight, func(p *schema.Peak) bool { return p.Theta > thetaBypass }, obs)
			} else {
				limit := math.Min(last, params.MinTheta)
				qTheta = func(p *schema.Peak) bool { return p.Theta >= limit }
			}
		}
	}

	qOmega := acceptAll
	byOmega := algo.RankPeaks(peaks, algo.ByOmega)
	ranked := slices.Concat(window(byOmega, 2, 4), window(byOmega, half, epn-1))
	if len(ranked) > 0 {
		last := ranked[len(ranked)-1].Omega
		if last < omegaSharpLimit {
			qOmega = trendGate(ranked, algo.ByOmega, omegaTrendWeight, func(p *schema.Peak) bool { return p.Omega >= omegaBypass }, obs)
		} else {
			limit := math.Min(last, omegaCap)
			qOmega = func(p *schema.Peak) bool { return p.Omega >= limit }
		}
	}

	var rfuFloor float64
	if byRFU := window(algo.RankPeaks(peaks, algo.ByRFU), 0, epn-1); len(byRFU) > 0 {
		rfuFloor = rfuFloorFraction * float64(byRFU[len(byRFU)-1].RFU)
	}
	return qTheta, qOmega, rfuFloor
}

// trendGate fits weight x key against scan time over sample and accepts a
// peak at or above the fitted line, or one that passes bypass.
func trendGate(sample []*schema.Peak, key func(*schema.Peak) float64, weight float64, bypass gate, obs contract.Observer) gate {
	xs := make([]float64, len(sample))
	ys := make([]float64, len(sample))
	for i, p := range sample {
		xs[i] = float64(p.RTime)
		ys[i] = weight * key(p)
	}
	intercept, slope, err := algo.LinearFit(xs, ys)
	if err != nil {
		contract.Emit(obs, schema.DebugLevel, "filter", "trend gate skipped: %v", err)
		return acceptAll
	}
	return func(p *schema.Peak) bool {
		return key(p) >= intercept+slope*float64(p.RTime) || bypass(p)
	}
}

// window returns s[lo:hi] clipped to the bounds of s.
func window(s []*schema.Peak, lo, hi int) []*schema.Peak {
	lo = max(lo, 0)
	hi = min(hi, len(s))
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}
