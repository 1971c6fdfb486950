package svf

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultCutoffHz  = 1000.0
	defaultResonance = 1.0

	// MinResonance is the lowest resonance for which the recurrence is stable.
	MinResonance = 0.5

	// stableFraction keeps f1 this far inside the stability boundary, so the
	// impulse response still decays at the highest accepted cutoff.
	stableFraction = 0.98
)

var (
	// ErrResonance is returned for a resonance below MinResonance.
	ErrResonance = errors.New("svf: resonance must be >= 0.5")
	// ErrMode is returned for an unknown filter mode.
	ErrMode = errors.New("svf: unknown mode")
	// ErrCutoff is returned for a cutoff outside (0, MaxCutoffHz].
	ErrCutoff = errors.New("svf: cutoff outside the stable range")
)

// Mode selects which recurrence output the filter emits.
type Mode int

const (
	ModeLowpass Mode = iota
	ModeBandpass
	ModeHighpass
	ModeNotch
)

func (m Mode) String() string {
	switch m {
	case ModeLowpass:
		return "lpf"
	case ModeBandpass:
		return "bpf"
	case ModeHighpass:
		return "hpf"
	case ModeNotch:
		return "notch"
	default:
		return "unknown"
	}
}

// ParseMode maps "lpf", "bpf", "hpf" and "notch" to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeLowpass, ModeBandpass, ModeHighpass, ModeNotch} {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrMode, s)
}

// tap weights the low, band and high outputs of one step.
type tap struct {
	low, band, high float64
}

func tapFor(m Mode) (tap, error) {
	switch m {
	case ModeLowpass:
		return tap{low: 1}, nil
	case ModeBandpass:
		return tap{band: 1}, nil
	case ModeHighpass:
		return tap{high: 1}, nil
	case ModeNotch:
		return tap{low: 1, high: 1}, nil
	default:
		return tap{}, fmt.Errorf("%w: %d", ErrMode, m)
	}
}

func validateResonance(resonance float64) error {
	if !core.IsFinite(resonance) || resonance < MinResonance {
		return fmt.Errorf("%w: %f", ErrResonance, resonance)
	}

	return nil
}

func validateCutoff(cutoffHz, sampleRate, resonance float64) error {
	limit := MaxCutoffHz(sampleRate, resonance)
	if !(cutoffHz > 0 && cutoffHz <= limit) {
		return fmt.Errorf("%w: %f not in (0, %f] at resonance %f", ErrCutoff, cutoffHz, limit, resonance)
	}

	return nil
}

func f1For(cutoffHz, sampleRate float64) float64 {
	return 2 * math.Sin(math.Pi*cutoffHz/sampleRate)
}

// maxF1 is the largest f1 accepted with damping q1. The recurrence
// diverges once f1² + 2·f1·q1 reaches 4.
func maxF1(q1 float64) float64 {
	return stableFraction * (math.Sqrt(q1*q1+4) - q1)
}

// MaxCutoffHz returns the highest cutoff the filter accepts at the given
// resonance. It approaches Nyquist as the resonance grows.
func MaxCutoffHz(sampleRate, resonance float64) float64 {
	return sampleRate / math.Pi * math.Asin(min(maxF1(1/resonance)/2, 1))
}

// State holds the two integrators.
type State struct {
	Low  float64
	Band float64
}

// step advances the recurrence by one sample and returns the tapped output.
func (s *State) step(in, f1, q1 float64, t tap) float64 {
	low := s.Low + f1*s.Band
	high := in - low - q1*s.Band
	band := s.Band + f1*high

	s.Low = low
	s.Band = band

	return t.low*low + t.band*band + t.high*high
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	cutoffHz  float64
	resonance float64
	mode      Mode
}

func defaultConfig() config {
	return config{
		cutoffHz:  defaultCutoffHz,
		resonance: defaultResonance,
		mode:      ModeLowpass,
	}
}

// WithCutoffHz sets the cutoff frequency in Hz.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		cfg.cutoffHz = cutoffHz
		return nil
	}
}

// WithResonance sets the resonance. Must be >= 0.5.
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := validateResonance(resonance); err != nil {
			return err
		}

		cfg.resonance = resonance

		return nil
	}
}

// WithMode selects the output tap.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if _, err := tapFor(mode); err != nil {
			return err
		}

		cfg.mode = mode

		return nil
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	return cfg, nil
}

// coeffs is an immutable coefficient bundle.
type coeffs struct {
	cutoffHz  float64
	resonance float64
	mode      Mode
	f1        float64
	q1        float64
	tap       tap
}

func newCoeffs(sampleRate, cutoffHz, resonance float64, mode Mode) (*coeffs, error) {
	if err := validateResonance(resonance); err != nil {
		return nil, err
	}

	if err := validateCutoff(cutoffHz, sampleRate, resonance); err != nil {
		return nil, err
	}

	t, err := tapFor(mode)
	if err != nil {
		return nil, err
	}

	return &coeffs{
		cutoffHz:  cutoffHz,
		resonance: resonance,
		mode:      mode,
		f1:        f1For(cutoffHz, sampleRate),
		q1:        1 / resonance,
		tap:       t,
	}, nil
}

// Filter is a state-variable filter with a fixed cutoff.
//
// Setters may be called from a control goroutine while ProcessTo runs; each
// publishes a complete coefficient bundle that the audio goroutine picks up
// at its next block.
type Filter struct {
	core.Wet

	sampleRate float64
	coeffs     atomic.Pointer[coeffs]
	state      State
}

var _ core.Module = (*Filter)(nil)

// New constructs a state-variable filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if err := core.ValidateSampleRate("svf", sampleRate); err != nil {
		return nil, err
	}

	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	c, err := newCoeffs(sampleRate, cfg.cutoffHz, cfg.resonance, cfg.mode)
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

// Resonance returns the resonance.
func (f *Filter) Resonance() float64 { return f.coeffs.Load().resonance }

// Mode returns the output mode.
func (f *Filter) Mode() Mode { return f.coeffs.Load().mode }

// SetCutoffHz updates the cutoff. Integrator state is kept.
func (f *Filter) SetCutoffHz(cutoffHz float64) error {
	c := f.coeffs.Load()
	return f.publish(cutoffHz, c.resonance, c.mode)
}

// SetResonance updates the resonance. Integrator state is kept.
func (f *Filter) SetResonance(resonance float64) error {
	c := f.coeffs.Load()
	return f.publish(c.cutoffHz, resonance, c.mode)
}

// SetMode updates the output mode. Integrator state is kept.
func (f *Filter) SetMode(mode Mode) error {
	c := f.coeffs.Load()
	return f.publish(c.cutoffHz, c.resonance, mode)
}

func (f *Filter) publish(cutoffHz, resonance float64, mode Mode) error {
	c, err := newCoeffs(f.sampleRate, cutoffHz, resonance, mode)
	if err != nil {
		return err
	}

	f.coeffs.Store(c)

	return nil
}

// Reset clears the integrators.
func (f *Filter) Reset() {
	f.state = State{}
}

// State returns a copy of the integrator state.
func (f *Filter) State() State {
	return f.state
}

// SetState restores an externally saved integrator state.
func (f *Filter) SetState(state State) error {
	if !core.IsFinite(state.Low) || !core.IsFinite(state.Band) {
		return fmt.Errorf("svf: state contains NaN or Inf")
	}

	f.state = state

	return nil
}

// ProcessSample processes one sample.
func (f *Filter) ProcessSample(input float64) float64 {
	c := f.coeffs.Load()
	return f.state.step(input, c.f1, c.q1, c.tap)
}

// ProcessInPlace processes buf in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	f.ProcessTo(buf, buf)
}

// ProcessTo processes src into dst. Both slices must have the same length
// and may alias.
func (f *Filter) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	c := f.coeffs.Load()
	s := f.state

	for i, x := range src {
		dst[i] = s.step(x, c.f1, c.q1, c.tap)
	}

	f.state = s
}
