package osc

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// ErrPartials is returned for an empty or invalid partial set.
var ErrPartials = errors.New("osc: invalid partials")

// Partial is one sine component of an additive tone.
type Partial struct {
	FreqHz    float64
	Amplitude float64
}

// Sawtooth returns the partials of a band-limited sawtooth at freqHz: every
// harmonic k below Nyquist with amplitude 2/pi * (-1)^k / k.
func Sawtooth(sampleRate, freqHz float64) ([]Partial, error) {
	count, err := harmonicCount(sampleRate, freqHz)
	if err != nil {
		return nil, err
	}

	partials := make([]Partial, 0, count)
	for k := 1; k <= count; k++ {
		sign := 1.0
		if k%2 == 1 {
			sign = -1
		}

		partials = append(partials, Partial{
			FreqHz:    float64(k) * freqHz,
			Amplitude: 2 / math.Pi * sign / float64(k),
		})
	}

	return partials, nil
}

// Square returns the partials of a band-limited square wave at freqHz: the
// odd harmonics k below Nyquist with amplitude 4/(pi*k).
func Square(sampleRate, freqHz float64) ([]Partial, error) {
	count, err := harmonicCount(sampleRate, freqHz)
	if err != nil {
		return nil, err
	}

	partials := make([]Partial, 0, (count+1)/2)
	for k := 1; k <= count; k += 2 {
		partials = append(partials, Partial{
			FreqHz:    float64(k) * freqHz,
			Amplitude: 4 / (math.Pi * float64(k)),
		})
	}

	return partials, nil
}

func harmonicCount(sampleRate, freqHz float64) (int, error) {
	if err := core.ValidateSampleRate("osc", sampleRate); err != nil {
		return 0, err
	}

	if !core.IsFinite(freqHz) || freqHz <= 0 || freqHz > sampleRate/2 {
		return 0, fmt.Errorf("osc: frequency must be in (0, %g]: %f", sampleRate/2, freqHz)
	}

	return max(int(sampleRate/2/freqHz), 1), nil
}

// table is an immutable partial set together with the phase slots the
// audio goroutine adopts when it picks the table up.
type table struct {
	partials []Partial
	phases   []float64
}

// Additive sums sine partials. The phase of every partial is continuous
// across blocks, and survives SetPartials for partials at the same index.
type Additive struct {
	core.Wet

	sampleRate float64
	pending    atomic.Pointer[table]

	// owned by the processing goroutine
	active *table
}

var _ core.Module = (*Additive)(nil)

// NewAdditive creates an additive oscillator with mix 1.
func NewAdditive(sampleRate float64, partials []Partial) (*Additive, error) {
	if err := core.ValidateSampleRate("osc", sampleRate); err != nil {
		return nil, err
	}

	tbl, err := newTable(partials)
	if err != nil {
		return nil, err
	}

	a := &Additive{sampleRate: sampleRate, active: tbl}
	a.pending.Store(tbl)
	_ = a.SetMix(1)

	return a, nil
}

func newTable(partials []Partial) (*table, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("%w: empty set", ErrPartials)
	}

	for i, p := range partials {
		if !core.IsFinite(p.FreqHz) || !core.IsFinite(p.Amplitude) {
			return nil, fmt.Errorf("%w: partial %d is not finite", ErrPartials, i)
		}
	}

	return &table{
		partials: append([]Partial(nil), partials...),
		phases:   make([]float64, len(partials)),
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (a *Additive) SampleRate() float64 { return a.sampleRate }

// Partials returns a copy of the current partial set.
func (a *Additive) Partials() []Partial {
	return append([]Partial(nil), a.pending.Load().partials...)
}

// SetPartials replaces the partial set. It takes effect at the start of the
// next block.
func (a *Additive) SetPartials(partials []Partial) error {
	tbl, err := newTable(partials)
	if err != nil {
		return err
	}

	a.pending.Store(tbl)

	return nil
}

// Reset sets every partial phase to 0. It must not run concurrently with
// ProcessTo.
func (a *Additive) Reset() {
	core.Zero(a.active.phases)
}

// ProcessTo writes len(dst) samples of the tone to dst. src is ignored.
func (a *Additive) ProcessTo(dst, _ []float64) {
	n := len(dst)
	if n == 0 {
		return
	}

	if tbl := a.pending.Load(); tbl != a.active {
		copy(tbl.phases, a.active.phases)
		a.active = tbl
	}

	core.Zero(dst)

	phases := a.active.phases
	for k, p := range a.active.partials {
		step := 2 * math.Pi * p.FreqHz / a.sampleRate

		// rotate (s, c) by step each sample; exact phase is restored per block
		sinStep, cosStep := math.Sincos(step)
		s, c := math.Sincos(phases[k])
		for i := range dst {
			dst[i] += p.Amplitude * s
			s, c = s*cosStep+c*sinStep, c*cosStep-s*sinStep
		}

		phases[k] = math.Mod(phases[k]+float64(n)*step, 2*math.Pi)
	}
}
