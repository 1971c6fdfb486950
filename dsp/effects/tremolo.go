package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultTremoloRateHz = 8.0
	defaultTremoloDepth  = 0.73
)

// TremoloOption mutates tremolo construction parameters.
type TremoloOption func(*tremoloConfig) error

type tremoloConfig struct {
	rateHz float64
	depth  float64
}

func defaultTremoloConfig() tremoloConfig {
	return tremoloConfig{
		rateHz: defaultTremoloRateHz,
		depth:  defaultTremoloDepth,
	}
}

func validateTremoloRate(rateHz float64) error {
	if rateHz <= 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return fmt.Errorf("tremolo rate must be > 0 and finite: %f", rateHz)
	}

	return nil
}

func validateTremoloDepth(depth float64) error {
	if depth < 0 || depth > 1 || math.IsNaN(depth) {
		return fmt.Errorf("tremolo depth must be in [0, 1]: %f", depth)
	}

	return nil
}

// WithTremoloRateHz sets modulation speed in Hz.
func WithTremoloRateHz(rateHz float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if err := validateTremoloRate(rateHz); err != nil {
			return err
		}
		cfg.rateHz = rateHz
		return nil
	}
}

// WithTremoloDepth sets modulation depth in [0, 1].
func WithTremoloDepth(depth float64) TremoloOption {
	return func(cfg *tremoloConfig) error {
		if err := validateTremoloDepth(depth); err != nil {
			return err
		}
		cfg.depth = depth
		return nil
	}
}

// Tremolo applies sine amplitude modulation. The gain swings between
// 1-depth and 1:
//
//	gain = 1 - depth/2 + sin(phase)*depth/2
type Tremolo struct {
	core.Wet

	sampleRate float64
	rateHz     core.AtomicFloat
	depth      core.AtomicFloat

	// owned by the processing goroutine
	lfoPhase float64
}

var _ core.Module = (*Tremolo)(nil)

// NewTremolo creates a tremolo with practical defaults and optional overrides.
func NewTremolo(sampleRate float64, opts ...TremoloOption) (*Tremolo, error) {
	if err := core.ValidateSampleRate("tremolo", sampleRate); err != nil {
		return nil, err
	}

	cfg := defaultTremoloConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t := &Tremolo{sampleRate: sampleRate}
	t.rateHz.Store(cfg.rateHz)
	t.depth.Store(cfg.depth)
	_ = t.SetMix(1)

	return t, nil
}

// SetRateHz sets modulation speed in Hz.
func (t *Tremolo) SetRateHz(rateHz float64) error {
	if err := validateTremoloRate(rateHz); err != nil {
		return err
	}
	t.rateHz.Store(rateHz)
	return nil
}

// SetDepth sets modulation depth in [0, 1].
func (t *Tremolo) SetDepth(depth float64) error {
	if err := validateTremoloDepth(depth); err != nil {
		return err
	}
	t.depth.Store(depth)
	return nil
}

// Reset restarts the LFO at phase 0.
func (t *Tremolo) Reset() {
	t.lfoPhase = 0
}

// ProcessInPlace applies tremolo to buf in place.
func (t *Tremolo) ProcessInPlace(buf []float64) {
	t.ProcessTo(buf, buf)
}

// ProcessTo writes the modulated src to dst. Both slices must have the same
// length and may alias.
func (t *Tremolo) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	half := t.depth.Load() / 2
	step := 2 * math.Pi * t.rateHz.Load() / t.sampleRate
	phase := t.lfoPhase

	for i, x := range src {
		dst[i] = x * (1 - half + math.Sin(phase)*half)
		phase += step
		if phase >= 2*math.Pi {
			phase -= 2 * math.Pi
		}
	}

	t.lfoPhase = phase
}

// SampleRate returns sample rate in Hz.
func (t *Tremolo) SampleRate() float64 { return t.sampleRate }

// RateHz returns LFO speed in Hz.
func (t *Tremolo) RateHz() float64 { return t.rateHz.Load() }

// Depth returns modulation depth in [0, 1].
func (t *Tremolo) Depth() float64 { return t.depth.Load() }
