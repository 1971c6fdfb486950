package delay

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// maxFeedback is the exclusive upper bound of the feedback gain.
const maxFeedback = 1.0

func capacity(sampleRate, maxSeconds float64) (int, error) {
	if err := core.ValidateSampleRate("delay", sampleRate); err != nil {
		return 0, err
	}

	if !core.IsFinite(maxSeconds) || maxSeconds <= 0 {
		return 0, fmt.Errorf("delay: max delay must be > 0: %f", maxSeconds)
	}

	return max(int(math.Ceil(maxSeconds*sampleRate)), 1), nil
}

func validateFeedback(feedback float64) error {
	if !core.IsFinite(feedback) || feedback < 0 || feedback >= maxFeedback {
		return fmt.Errorf("delay: feedback must be in [0, 1): %f", feedback)
	}

	return nil
}

// Line is a fixed feedback delay of a whole number of samples.
type Line struct {
	core.Wet

	sampleRate   float64
	ring         ring
	delaySamples atomic.Int64
	feedback     core.AtomicFloat
}

var _ core.Module = (*Line)(nil)

// NewLine returns a delay line holding up to maxSeconds of audio. The delay
// starts at the full capacity with zero feedback and mix 1.
func NewLine(sampleRate, maxSeconds float64) (*Line, error) {
	size, err := capacity(sampleRate, maxSeconds)
	if err != nil {
		return nil, err
	}

	l := &Line{sampleRate: sampleRate, ring: newRing(size)}
	l.delaySamples.Store(int64(size))
	_ = l.SetMix(1)

	return l, nil
}

// SampleRate returns the sample rate in Hz.
func (l *Line) SampleRate() float64 { return l.sampleRate }

// Capacity returns the longest delay in samples.
func (l *Line) Capacity() int { return len(l.ring.buffer) }

// DelaySamples returns the delay in samples.
func (l *Line) DelaySamples() int { return int(l.delaySamples.Load()) }

// Delay returns the delay in seconds.
func (l *Line) Delay() float64 { return float64(l.DelaySamples()) / l.sampleRate }

// Feedback returns the feedback gain.
func (l *Line) Feedback() float64 { return l.feedback.Load() }

// SetDelaySamples sets the delay in samples, in [1, Capacity()].
func (l *Line) SetDelaySamples(n int) error {
	if n < 1 || n > l.Capacity() {
		return fmt.Errorf("delay: delay must be in [1, %d] samples: %d", l.Capacity(), n)
	}

	l.delaySamples.Store(int64(n))

	return nil
}

// SetDelay sets the delay in seconds, rounded to whole samples.
func (l *Line) SetDelay(seconds float64) error {
	if !core.IsFinite(seconds) {
		return fmt.Errorf("delay: delay must be finite: %f", seconds)
	}

	return l.SetDelaySamples(int(math.Round(seconds * l.sampleRate)))
}

// SetFeedback sets the feedback gain in [0, 1).
func (l *Line) SetFeedback(feedback float64) error {
	if err := validateFeedback(feedback); err != nil {
		return err
	}

	l.feedback.Store(feedback)

	return nil
}

// Reset clears the buffer.
func (l *Line) Reset() {
	l.ring.reset()
}

// ProcessInPlace delays buf in place.
func (l *Line) ProcessInPlace(buf []float64) {
	l.ProcessTo(buf, buf)
}

// ProcessTo writes the delayed signal of src to dst. Both slices must have
// the same length and may alias.
func (l *Line) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	d := int(l.delaySamples.Load())
	fb := l.feedback.Load()

	for i, x := range src {
		read := l.ring.read(d)
		l.ring.write(x*(1-fb) + read*fb)
		dst[i] = read
	}
}
