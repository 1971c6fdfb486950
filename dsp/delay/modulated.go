package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/interp"
)

// Modulated is a feedback delay read at a fractional delay that may change
// every sample.
type Modulated struct {
	core.Wet

	sampleRate float64
	ring       ring
	delay      core.AtomicFloat
	feedback   core.AtomicFloat
}

var _ core.Module = (*Modulated)(nil)

// NewModulated returns a modulated delay holding up to maxSeconds of audio.
// The static delay used by ProcessTo starts at one sample.
func NewModulated(sampleRate, maxSeconds float64) (*Modulated, error) {
	size, err := capacity(sampleRate, maxSeconds)
	if err != nil {
		return nil, err
	}

	// one extra slot for the interpolation neighbour of the longest delay
	m := &Modulated{sampleRate: sampleRate, ring: newRing(size + 1)}
	m.delay.Store(1)
	_ = m.SetMix(1)

	return m, nil
}

// SampleRate returns the sample rate in Hz.
func (m *Modulated) SampleRate() float64 { return m.sampleRate }

// MaxDelaySamples returns the longest readable delay in samples.
func (m *Modulated) MaxDelaySamples() float64 { return float64(len(m.ring.buffer) - 1) }

// DelaySamples returns the static delay in samples.
func (m *Modulated) DelaySamples() float64 { return m.delay.Load() }

// Feedback returns the feedback gain.
func (m *Modulated) Feedback() float64 { return m.feedback.Load() }

// SetDelaySamples sets the static delay used by ProcessTo, in
// [1, MaxDelaySamples()].
func (m *Modulated) SetDelaySamples(d float64) error {
	if err := core.ValidateRange("delay", "delay", d, 1, m.MaxDelaySamples()); err != nil {
		return err
	}

	m.delay.Store(d)

	return nil
}

// SetFeedback sets the feedback gain in [0, 1).
func (m *Modulated) SetFeedback(feedback float64) error {
	if err := validateFeedback(feedback); err != nil {
		return err
	}

	m.feedback.Store(feedback)

	return nil
}

// Reset clears the buffer.
func (m *Modulated) Reset() {
	m.ring.reset()
}

// ProcessTo delays src by the static delay.
func (m *Modulated) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	d := m.delay.Load()
	fb := m.feedback.Load()

	for i, x := range src {
		dst[i] = m.step(x, d, fb)
	}
}

// ProcessModulated delays src[i] by delays[i] samples. Delays are clamped
// to [1, MaxDelaySamples()]. All slices must have the same length; dst and
// src may alias.
func (m *Modulated) ProcessModulated(dst, src, delays []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	if len(delays) != n || len(dst) != n {
		panic(fmt.Sprintf("delay: length mismatch dst=%d src=%d delays=%d", len(dst), n, len(delays)))
	}

	fb := m.feedback.Load()
	maxDelay := m.MaxDelaySamples()

	for i, x := range src {
		dst[i] = m.step(x, core.Clamp(delays[i], 1, maxDelay), fb)
	}
}

func (m *Modulated) step(x, delay, fb float64) float64 {
	whole := math.Floor(delay)
	d := int(whole)
	frac := delay - whole

	var out float64
	if frac == 0 {
		out = m.ring.read(d)
	} else {
		out = interp.Linear2(frac, m.ring.read(d), m.ring.read(d+1))
	}

	m.ring.write(x*(1-fb) + out*fb)

	return out
}
