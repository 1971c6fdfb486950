package effects

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/filter/svf"
)

const (
	defaultAutoWahLowHz     = 100.0
	defaultAutoWahHighHz    = 2000.0
	defaultAutoWahRateHz    = 0.0
	defaultAutoWahResonance = 0.5
)

// AutoWahOption mutates auto-wah construction parameters.
type AutoWahOption func(*autoWahConfig) error

type autoWahConfig struct {
	lowHz, highHz float64
	rateHz        float64
	resonance     float64
}

// WithAutoWahRangeHz sets the sweep range of the bandpass centre.
func WithAutoWahRangeHz(lowHz, highHz float64) AutoWahOption {
	return func(cfg *autoWahConfig) error {
		cfg.lowHz, cfg.highHz = lowHz, highHz
		return nil
	}
}

// WithAutoWahRateHz sets the LFO rate in Hz. A rate of 0 holds the filter
// at the centre of the range.
func WithAutoWahRateHz(rateHz float64) AutoWahOption {
	return func(cfg *autoWahConfig) error {
		if err := validateAutoWahRate(rateHz); err != nil {
			return err
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithAutoWahResonance sets the bandpass resonance (>= 0.5).
func WithAutoWahResonance(resonance float64) AutoWahOption {
	return func(cfg *autoWahConfig) error {
		cfg.resonance = resonance
		return nil
	}
}

func validateAutoWahRate(rateHz float64) error {
	if rateHz < 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return fmt.Errorf("auto-wah rate must be >= 0 and finite: %f", rateHz)
	}

	return nil
}

// sweep is an immutable frequency range.
type sweep struct {
	lowHz, highHz float64
}

// AutoWah sweeps a bandpass state-variable filter between two frequencies
// with a sine LFO.
type AutoWah struct {
	core.Wet

	sampleRate float64
	band       atomic.Pointer[sweep]
	rateHz     core.AtomicFloat
	filter     *svf.Modulated

	// owned by the processing goroutine
	lfoPhase float64
	cutoffs  [chunk]float64
}

var _ core.Module = (*AutoWah)(nil)

// NewAutoWah creates an auto-wah with mix 1.
func NewAutoWah(sampleRate float64, opts ...AutoWahOption) (*AutoWah, error) {
	if err := core.ValidateSampleRate("auto-wah", sampleRate); err != nil {
		return nil, err
	}

	cfg := autoWahConfig{
		lowHz:     defaultAutoWahLowHz,
		highHz:    defaultAutoWahHighHz,
		rateHz:    defaultAutoWahRateHz,
		resonance: defaultAutoWahResonance,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	filter, err := svf.NewModulated(sampleRate,
		svf.WithResonance(cfg.resonance),
		svf.WithMode(svf.ModeBandpass),
	)
	if err != nil {
		return nil, err
	}

	w := &AutoWah{sampleRate: sampleRate, filter: filter}
	if err := w.SetRangeHz(cfg.lowHz, cfg.highHz); err != nil {
		return nil, err
	}

	w.rateHz.Store(cfg.rateHz)
	_ = w.SetMix(1)

	return w, nil
}

// SampleRate returns sample rate in Hz.
func (w *AutoWah) SampleRate() float64 { return w.sampleRate }

// RangeHz returns the sweep range.
func (w *AutoWah) RangeHz() (lowHz, highHz float64) {
	r := w.band.Load()
	return r.lowHz, r.highHz
}

// RateHz returns the LFO rate.
func (w *AutoWah) RateHz() float64 { return w.rateHz.Load() }

// Resonance returns the filter resonance.
func (w *AutoWah) Resonance() float64 { return w.filter.Resonance() }

// SetRangeHz sets the sweep range; 0 < low <= high <= Nyquist.
func (w *AutoWah) SetRangeHz(lowHz, highHz float64) error {
	nyquist := w.sampleRate / 2
	if !core.IsFinite(lowHz) || !core.IsFinite(highHz) || lowHz <= 0 || highHz < lowHz || highHz > nyquist {
		return fmt.Errorf("auto-wah range must satisfy 0 < low <= high <= %g: [%f, %f]", nyquist, lowHz, highHz)
	}

	w.band.Store(&sweep{lowHz: lowHz, highHz: highHz})

	return nil
}

// SetLowHz moves the bottom of the sweep.
func (w *AutoWah) SetLowHz(lowHz float64) error {
	return w.SetRangeHz(lowHz, w.band.Load().highHz)
}

// SetHighHz moves the top of the sweep.
func (w *AutoWah) SetHighHz(highHz float64) error {
	return w.SetRangeHz(w.band.Load().lowHz, highHz)
}

// SetRateHz sets the LFO rate in Hz.
func (w *AutoWah) SetRateHz(rateHz float64) error {
	if err := validateAutoWahRate(rateHz); err != nil {
		return err
	}
	w.rateHz.Store(rateHz)
	return nil
}

// SetResonance sets the filter resonance (>= 0.5).
func (w *AutoWah) SetResonance(resonance float64) error {
	return w.filter.SetResonance(resonance)
}

// Reset clears the filter and restarts the LFO.
func (w *AutoWah) Reset() {
	w.filter.Reset()
	w.lfoPhase = 0
}

// ProcessTo filters src into dst. Both slices must have the same length and
// may alias.
func (w *AutoWah) ProcessTo(dst, src []float64) {
	r := w.band.Load()
	amp := (r.highHz - r.lowHz) / 2
	center := (r.highHz + r.lowHz) / 2
	step := 2 * math.Pi * w.rateHz.Load() / w.sampleRate

	for start := 0; start < len(src); start += chunk {
		end := min(start+chunk, len(src))
		cutoffs := w.cutoffs[:end-start]

		for i := range cutoffs {
			cutoffs[i] = center + amp*math.Sin(w.lfoPhase)
			w.lfoPhase += step
			if w.lfoPhase >= 2*math.Pi {
				w.lfoPhase -= 2 * math.Pi
			}
		}

		w.filter.ProcessModulated(dst[start:end], src[start:end], cutoffs)
	}
}
