// Package align matches ladder channel peaks to the reference sizes of a size
// standard and fits the scan time to size curve.
package align

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Status tags the outcome of one strategy.
type Status int

// All strategy outcomes.
const (
	NotAttempted Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "not-attempted"
	}
}

// Input is what every strategy aligns.
type Input struct {
	Peaks     []*schema.Peak // Ladder channel peaks ordered by scan time
	Ladder    schema.Ladder
	Anchors   []schema.AnchorPair
	Tolerance float64 // Size distance at which a match stops counting; 0 picks a default
}

func (in *Input) tolerance() float64 {
	if in.Tolerance > 0 {
		return in.Tolerance
	}
	return DefaultTolerance(in.Ladder.Sizes)
}

func (in *Input) rtimes() []float64 {
	rt := make([]float64, len(in.Peaks))
	for i, p := range in.Peaks {
		rt[i] = float64(p.RTime)
	}
	return rt
}

// Result is the outcome of a strategy. Points and Poly are set on success.
type Result struct {
	Strategy string
	Status   Status
	Score    float64
	DPScore  float64
	RSS      float64
	Points   []schema.LadderPoint
	Poly     algo.Poly
	Message  string
}

// Attempt converts the result into its report form.
func (r Result) Attempt() schema.StrategyAttempt {
	return schema.StrategyAttempt{
		Strategy: r.Strategy,
		Status:   r.Status.String(),
		Score:    r.Score,
		Message:  r.Message,
	}
}

// MinRTime returns the scan time of the first matched ladder peak.
func (r Result) MinRTime() int {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[0].RTime
}

// MaxRTime returns the scan time of the last matched ladder peak.
func (r Result) MaxRTime() int {
	if len(r.Points) == 0 {
		return 0
	}
	return r.Points[len(r.Points)-1].RTime
}

// Strategy is one way of aligning ladder peaks.
type Strategy interface {
	Name() string
	// Align returns NotAttempted when the input is outside what the strategy handles.
	Align(in *Input) Result
	// Accepts reports whether a successful score is good enough to stop.
	Accepts(score float64) bool
}

// MismatchError reports that no strategy produced an acceptable alignment.
type MismatchError struct {
	Ladder   string
	Attempts []schema.StrategyAttempt
}

func (e *MismatchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s=%s/%.3f", a.Strategy, a.Status, a.Score))
	}
	return fmt.Sprintf("no acceptable alignment against %s (%s)", e.Ladder, strings.Join(parts, ", "))
}

// Unwrap lets errors.Is match contract.ErrLadderMismatch.
func (e *MismatchError) Unwrap() error {
	return contract.ErrLadderMismatch
}

// IsMismatch reports whether err is a ladder mismatch.
func IsMismatch(err error) bool {
	return errors.Is(err, contract.ErrLadderMismatch)
}

// Aligner tries its strategies in order and keeps the first acceptable result.
type Aligner struct {
	Strategies []Strategy
	Anchor     Strategy // Used alone when anchors are supplied
	Observer   contract.Observer
}

// NewAligner returns an aligner with the default strategy order.
func NewAligner(obs contract.Observer) *Aligner {
	return &Aligner{
		Strategies: []Strategy{HCluster{}, DP{}, Evolve{}},
		Anchor:     Anchor{},
		Observer:   obs,
	}
}

// Align returns the first acceptable result with every attempt recorded.
func (a *Aligner) Align(in Input) (Result, []schema.StrategyAttempt, error) {
	strategies := a.Strategies
	if len(in.Anchors) > 0 && a.Anchor != nil {
		strategies = []Strategy{a.Anchor}
	}

	var attempts []schema.StrategyAttempt
	for _, s := range strategies {
		res := s.Align(&in)
		res.Strategy = s.Name()
		attempts = append(attempts, res.Attempt())

		switch {
		case res.Status == Succeeded && s.Accepts(res.Score):
			contract.Emit(a.Observer, schema.InfoLevel, "align", "%s accepted with score %.3f (%d/%d sizes, rss %.2f)",
				s.Name(), res.Score, len(res.Points), len(in.Ladder.Sizes), res.RSS)
			return res, attempts, nil
		case res.Status == Succeeded:
			contract.Emit(a.Observer, schema.InfoLevel, "align", "%s scored %.3f, below its threshold", s.Name(), res.Score)
		case res.Status == Failed:
			contract.Emit(a.Observer, schema.InfoLevel, "align", "%s failed: %s", s.Name(), res.Message)
		default:
			contract.Emit(a.Observer, schema.DebugLevel, "align", "%s not attempted: %s", s.Name(), res.Message)
		}
	}

	contract.Emit(a.Observer, schema.WarnLevel, "align", "ladder %s could not be aligned", in.Ladder.Name)
	return Result{}, attempts, &MismatchError{Ladder: in.Ladder.Name, Attempts: attempts}
}
