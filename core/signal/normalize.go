// Package signal removes baseline drift from raw detector traces and smooths
// them for peak detection.
package signal

import (
	"fmt"
	"math"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// Default values for the secondary smoothing pass.
const (
	DefaultSmoothWindow = 11
	MinWindow           = 3
)

// Options configures Normalize.
type Options struct {
	Method       schema.BaselineMethod
	Window       int     // Baseline window, forced odd
	SmoothOrder  int     // Savitzky-Golay polynomial order
	SmoothWindow int     // Window of the second smoothing pass
	TophatFactor float64 // Top-hat element size as a fraction of the trace length
}

// OptionsFrom derives normalizer options from run parameters.
func OptionsFrom(p schema.Params) Options {
	return Options{
		Method:       p.BaselineMethod,
		Window:       p.BaselineWindow,
		SmoothOrder:  schema.DefaultSmoothOrder,
		SmoothWindow: DefaultSmoothWindow,
		TophatFactor: schema.DefaultTophatFactor,
	}
}

func (o Options) withDefaults() Options {
	if o.Window < MinWindow {
		o.Window = schema.DefaultBaselineWindow
	}
	if o.Window%2 == 0 {
		o.Window++
	}
	if o.SmoothOrder <= 0 {
		o.SmoothOrder = schema.DefaultSmoothOrder
	}
	if o.SmoothWindow < MinWindow {
		o.SmoothWindow = DefaultSmoothWindow
	}
	if o.SmoothWindow%2 == 0 {
		o.SmoothWindow++
	}
	if o.TophatFactor <= 0 {
		o.TophatFactor = schema.DefaultTophatFactor
	}
	return o
}

// Normalize estimates the baseline of raw and returns the corrected, smoothed
// signal together with the smoothed baseline. The signal is never negative.
func Normalize(raw []float64, opts Options) (schema.NormalizedTrace, error) {
	opts = opts.withDefaults()

	var baseline []float64
	switch opts.Method {
	case schema.MedianBaseline:
		baseline = MedianFilter(raw, opts.Window)
	case schema.MinimumBaseline:
		baseline = RollingMin(raw, opts.Window)
	case schema.NoneBaseline:
		baseline = append([]float64(nil), raw...)
	default:
		return schema.NormalizedTrace{}, fmt.Errorf("%w: invalid baseline method '%s'", contract.ErrInvalidConfiguration, opts.Method)
	}

	if len(raw) == 0 {
		return schema.NormalizedTrace{Signal: []float64{}, Baseline: []float64{}}, nil
	}

	baseline = SavGol(baseline, opts.Window, opts.SmoothOrder)

	corrected := make([]float64, len(raw))
	for i, v := range raw {
		corrected[i] = math.Max(v-baseline[i], 0)
	}

	smooth := SavGol(corrected, opts.SmoothWindow, opts.SmoothOrder)
	size := int(math.Round(float64(len(raw)) * opts.TophatFactor))
	smooth = WhiteTophat(smooth, size)

	// Smoothing can ring slightly below zero next to steep flanks.
	for i, v := range smooth {
		if v < 0 {
			smooth[i] = 0
		}
	}
	return schema.NormalizedTrace{Signal: smooth, Baseline: baseline}, nil
}
