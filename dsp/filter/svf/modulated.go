package svf

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

type modCoeffs struct {
	resonance float64
	mode      Mode
	q1        float64
	f1Max     float64
	tap       tap
}

// Modulated is a state-variable filter whose cutoff is supplied per sample.
type Modulated struct {
	sampleRate float64
	coeffs     atomic.Pointer[modCoeffs]
	state      State
}

// NewModulated constructs a modulated filter. WithCutoffHz is ignored.
func NewModulated(sampleRate float64, opts ...Option) (*Modulated, error) {
	if err := core.ValidateSampleRate("svf", sampleRate); err != nil {
		return nil, err
	}

	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	m := &Modulated{sampleRate: sampleRate}
	if err := m.publish(cfg.resonance, cfg.mode); err != nil {
		return nil, err
	}

	return m, nil
}

// SampleRate returns the sample rate in Hz.
func (m *Modulated) SampleRate() float64 { return m.sampleRate }

// Resonance returns the resonance.
func (m *Modulated) Resonance() float64 { return m.coeffs.Load().resonance }

// Mode returns the output mode.
func (m *Modulated) Mode() Mode { return m.coeffs.Load().mode }

// SetResonance updates the resonance.
func (m *Modulated) SetResonance(resonance float64) error {
	return m.publish(resonance, m.coeffs.Load().mode)
}

// SetMode updates the output mode.
func (m *Modulated) SetMode(mode Mode) error {
	return m.publish(m.coeffs.Load().resonance, mode)
}

func (m *Modulated) publish(resonance float64, mode Mode) error {
	if err := validateResonance(resonance); err != nil {
		return err
	}

	t, err := tapFor(mode)
	if err != nil {
		return err
	}

	q1 := 1 / resonance
	m.coeffs.Store(&modCoeffs{resonance: resonance, mode: mode, q1: q1, f1Max: maxF1(q1), tap: t})

	return nil
}

// Reset clears the integrators.
func (m *Modulated) Reset() {
	m.state = State{}
}

// State returns a copy of the integrator state.
func (m *Modulated) State() State {
	return m.state
}

// ProcessModulated filters src into dst, using cutoffsHz[i] as the cutoff
// for sample i. All three slices must have the same length; dst and src may
// alias. Cutoffs are clamped to [0, MaxCutoffHz] for the current resonance.
func (m *Modulated) ProcessModulated(dst, src, cutoffsHz []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	if len(cutoffsHz) != n || len(dst) != n {
		panic(fmt.Sprintf("svf: length mismatch dst=%d src=%d cutoffs=%d", len(dst), n, len(cutoffsHz)))
	}

	c := m.coeffs.Load()
	s := m.state
	nyquist := m.sampleRate / 2

	for i, x := range src {
		f1 := min(f1For(core.Clamp(cutoffsHz[i], 0, nyquist), m.sampleRate), c.f1Max)
		dst[i] = s.step(x, f1, c.q1, c.tap)
	}

	m.state = s
}
