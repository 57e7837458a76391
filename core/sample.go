package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/fragscan/core/algo"
	"github.com/huangsam/fragscan/core/align"
	"github.com/huangsam/fragscan/core/calib"
	"github.com/huangsam/fragscan/core/peaks"
	"github.com/huangsam/fragscan/core/signal"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// errNoLadderChannel is reported for samples without a ladder channel.
var errNoLadderChannel = errors.New("sample has no ladder channel")

// ProcessSample runs every stage on one sample: normalize and scan each
// channel, classify its peaks, align the ladder and size the other channels.
// The sample's channels are updated in place and returned in the result.
func ProcessSample(ctx context.Context, cfg *contract.Config, sample *schema.Sample, obs contract.Observer) *schema.SampleResult {
	start := time.Now()
	collector := &contract.CollectingObserver{}
	sampleObs := contract.MultiObserver{collector, obs}

	result := &schema.SampleResult{
		SampleID:     uuid.NewString(),
		Sample:       sample.Name,
		Path:         sample.Path,
		Status:       schema.StatusOK,
		Channels:     sample.Channels,
		AlleleMethod: cfg.Params.AlleleMethod,
	}
	defer func() {
		result.Diagnostics = collector.Diagnostics()
		result.Duration = time.Since(start)
	}()

	ladderCh := sample.LadderChannel()
	if ladderCh == nil {
		return failSample(result, errNoLadderChannel)
	}

	alignOnly := shouldAlignOnly(ctx)
	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil && cfg.UseCache {
		store = mgr.GetTraceStore()
	}

	// --- 1. Normalize, scan and classify each channel ---
	opts := signal.OptionsFrom(cfg.Params)
	for _, ch := range sample.Channels {
		if alignOnly && !ch.IsLadder {
			continue
		}
		chObs := contract.WithScope(sampleObs, sample.Name, ch.Dye)
		if err := scanChannel(store, ch, cfg.Params, opts, chObs); err != nil {
			return failSample(result, err)
		}
	}

	// --- 2. Align the ladder ---
	ladderObs := contract.WithScope(sampleObs, sample.Name, ladderCh.Dye)
	aligned, attempts, err := align.NewAligner(ladderObs).Align(align.Input{
		Peaks:   ladderCh.Peaks,
		Ladder:  cfg.Ladder,
		Anchors: cfg.Anchors,
	})
	result.Alignment = &schema.AlignmentReport{
		Ladder:   cfg.Ladder.Name,
		Expected: len(cfg.Ladder.Sizes),
		Attempts: attempts,
	}
	if err != nil {
		if align.IsMismatch(err) {
			result.Status = schema.StatusLadderMismatch
			result.Error = err.Error()
			return result
		}
		return failSample(result, err)
	}
	fillReport(result.Alignment, aligned)
	markLadderPeaks(ladderCh.Peaks, aligned.Points)
	result.LadderPoints = aligned.Points

	if alignOnly {
		return result
	}

	// --- 3. Size the allele channels ---
	cal, err := calib.New(cfg.Params.AlleleMethod, aligned.Points)
	if err != nil {
		return failSample(result, err)
	}
	lo, hi := cal.Span()
	for _, ch := range sample.Channels {
		if ch.IsLadder {
			continue
		}
		calib.CallPeaks(ch.Peaks, cal, lo, hi, contract.WithScope(sampleObs, sample.Name, ch.Dye))
	}
	return result
}

// scanChannel fills the channel's signal, baseline and classified peaks.
func scanChannel(store contract.CacheStore, ch *schema.Channel, params schema.Params, opts signal.Options, obs contract.Observer) error {
	nt, err := cachedNormalize(store, ch.Raw, opts)
	if err != nil {
		return err
	}
	ch.Signal, ch.Baseline = nt.Signal, nt.Baseline

	sp := params.NonLadder
	if ch.IsLadder {
		sp = params.Ladder
	}
	ch.Peaks = peaks.Scan(ch.Signal, sp, obs)
	peaks.Classify(ch.Peaks, ch.Signal, sp, obs)
	contract.Emit(obs, schema.DebugLevel, "scan", "%d peaks kept", len(ch.Peaks))
	return nil
}

// markLadderPeaks calls each aligned ladder peak at its reference size.
func markLadderPeaks(ladderPeaks []*schema.Peak, points []schema.LadderPoint) {
	byRTime := make(map[int]*schema.Peak, len(ladderPeaks))
	for _, p := range ladderPeaks {
		byRTime[p.RTime] = p
	}
	for _, pt := range points {
		p, ok := byRTime[pt.RTime]
		if !ok {
			continue
		}
		p.Type = schema.CalledPeak
		p.Size = pt.Size
		p.Bin = algo.RoundHalfEven(pt.Size)
		p.Deviation = pt.Deviation
		p.QCall = pt.QScore
		p.Note = "ladder"
	}
}

func fillReport(r *schema.AlignmentReport, res align.Result) {
	r.Method = res.Strategy
	r.Score = res.Score
	r.RSS = res.RSS
	r.DPScore = res.DPScore
	r.Matched = len(res.Points)
	r.MinRTime = res.MinRTime()
	r.MaxRTime = res.MaxRTime()
}

func failSample(result *schema.SampleResult, err error) *schema.SampleResult {
	result.Status = schema.StatusFailed
	result.Error = err.Error()
	return result
}
