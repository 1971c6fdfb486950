package moog

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultCutoffHz  = 400.0
	defaultResonance = 0.1

	maxResonance = 1.0

	// resonance compensation tuning constant from the musicdsp ladder model.
	// Close to, but not equal to, ln(4).
	resonanceScale = 1.386249
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	cutoffHz  float64
	resonance float64
}

func defaultConfig() config {
	return config{
		cutoffHz:  defaultCutoffHz,
		resonance: defaultResonance,
	}
}

// WithCutoffHz sets cutoff in Hz. Must be finite, > 0 and below Nyquist;
// the upper bound is checked against the sample rate in New.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(cutoffHz) || cutoffHz <= 0 {
			return fmt.Errorf("moog: cutoff must be > 0 and finite: %f", cutoffHz)
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithResonance sets resonance in [0, 1]. 1 is the edge of self-oscillation.
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := core.ValidateRange("moog", "resonance", resonance, 0, maxResonance); err != nil {
			return err
		}

		cfg.resonance = resonance

		return nil
	}
}

// State contains explicit ladder runtime state for save/restore workflows.
type State struct {
	// Stage holds the four one-pole outputs y1..y4.
	Stage [4]float64
	// Delay holds the previous ladder input followed by y1..y3 of the
	// previous sample.
	Delay [4]float64
}

type coeffs struct {
	cutoffHz  float64
	resonance float64
	p, k, r   float64
}

func newCoeffs(sampleRate, cutoffHz, resonance float64) (*coeffs, error) {
	nyquist := sampleRate * 0.5
	if !core.IsFinite(cutoffHz) || cutoffHz <= 0 || cutoffHz >= nyquist {
		return nil, fmt.Errorf("moog: cutoff must be in (0, %f) Hz: %f", nyquist, cutoffHz)
	}

	if err := core.ValidateRange("moog", "resonance", resonance, 0, maxResonance); err != nil {
		return nil, err
	}

	fc := 2 * cutoffHz / sampleRate
	p := fc * (1.8 - 0.8*fc)
	k := 2*math.Sin(fc*math.Pi*0.5) - 1
	t1 := (1 - p) * resonanceScale
	t2 := 12 + t1*t1

	return &coeffs{
		cutoffHz:  cutoffHz,
		resonance: resonance,
		p:         p,
		k:         k,
		r:         resonance * (t2 + 6*t1) / (t2 - 6*t1),
	}, nil
}

// Filter is a four-pole Moog-style ladder low-pass processor.
type Filter struct {
	core.Wet

	sampleRate float64
	coeffs     atomic.Pointer[coeffs]
	state      State
}

var _ core.Module = (*Filter)(nil)

// New constructs a ladder filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if err := core.ValidateSampleRate("moog", sampleRate); err != nil {
		return nil, err
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c, err := newCoeffs(sampleRate, cfg.cutoffHz, cfg.resonance)
	if err != nil {
		return nil, err
	}

	f := &Filter{sampleRate: sampleRate}
	f.coeffs.Store(c)
	_ = f.SetMix(1)

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.coeffs.Load().cutoffHz }

// Resonance returns the feedback resonance.
func (f *Filter) Resonance() float64 { return f.coeffs.Load().resonance }

// SetCutoffHz updates cutoff and rebuilds coefficients.
func (f *Filter) SetCutoffHz(cutoffHz float64) error {
	return f.rebuild(cutoffHz, f.coeffs.Load().resonance)
}

// SetResonance updates resonance and rebuilds coefficients.
func (f *Filter) SetResonance(resonance float64) error {
	return f.rebuild(f.coeffs.Load().cutoffHz, resonance)
}

func (f *Filter) rebuild(cutoffHz, resonance float64) error {
	c, err := newCoeffs(f.sampleRate, cutoffHz, resonance)
	if err != nil {
		return err
	}

	f.coeffs.Store(c)

	return nil
}

// Reset clears ladder state.
func (f *Filter) Reset() {
	f.state = State{}
}

// State returns a copy of the current processor state.
func (f *Filter) State() State {
	return f.state
}

// SetState restores an externally saved processor state.
func (f *Filter) SetState(state State) error {
	if !stateIsFinite(state) {
		return fmt.Errorf("moog: state contains NaN or Inf")
	}

	f.state = state

	return nil
}

// ProcessSample processes one sample.
func (f *Filter) ProcessSample(input float64) float64 {
	return f.state.step(input, f.coeffs.Load())
}

// ProcessInPlace processes a mono buffer in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	f.ProcessTo(buf, buf)
}

// ProcessTo processes src into dst. Both slices must have the same length.
func (f *Filter) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	c := f.coeffs.Load()
	s := f.state

	for i, x := range src {
		dst[i] = s.step(x, c)
	}

	f.state = s
}

func (s *State) step(input float64, c *coeffs) float64 {
	if !core.IsFinite(input) {
		input = 0
	}

	p, k := c.p, c.k
	x := input - c.r*s.Stage[3]

	y1 := x*p + s.Delay[0]*p - k*s.Stage[0]
	y2 := y1*p + s.Delay[1]*p - k*s.Stage[1]
	y3 := y2*p + s.Delay[2]*p - k*s.Stage[2]
	y4 := y3*p + s.Delay[3]*p - k*s.Stage[3]

	y4 -= y4 * y4 * y4 / 6

	s.Stage = [4]float64{y1, y2, y3, y4}
	s.Delay = [4]float64{x, y1, y2, y3}

	return y4
}

func stateIsFinite(s State) bool {
	for _, v := range s.Stage {
		if !core.IsFinite(v) {
			return false
		}
	}

	for _, v := range s.Delay {
		if !core.IsFinite(v) {
			return false
		}
	}

	return true
}
