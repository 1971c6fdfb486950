package core

import (
	"math"
	"sync/atomic"
)

// Module is the uniform block-processing contract shared by every
// generator and effect in a chain.
//
// ProcessTo consumes src and writes len(src) samples to dst. dst and src
// always have the same length and may refer to the same memory, so an
// implementation must read each input sample before it overwrites it.
// Mix is the dry/wet weight in [0, 1] a Chain uses to blend the module's
// output with its input.
type Module interface {
	ProcessTo(dst, src []float64)
	Mix() float64
	SetMix(mix float64) error
}

// AtomicFloat is a float64 that can be read by the audio goroutine while a
// control goroutine writes it. The zero value holds 0.
type AtomicFloat struct {
	bits atomic.Uint64
}

// NewAtomicFloat returns an AtomicFloat holding v.
func NewAtomicFloat(v float64) *AtomicFloat {
	f := &AtomicFloat{}
	f.Store(v)

	return f
}

// Load returns the current value.
func (f *AtomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store sets the value.
func (f *AtomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// Wet is an embeddable dry/wet weight implementing the mix half of Module.
// The zero value is fully dry; constructors normally call SetMix(1).
type Wet struct {
	weight AtomicFloat
}

// Mix returns the wet weight in [0, 1].
func (m *Wet) Mix() float64 {
	return m.weight.Load()
}

// SetMix sets the wet weight. Values outside [0, 1] are rejected and leave
// the weight unchanged.
func (m *Wet) SetMix(mix float64) error {
	if err := ValidateRange("core", "mix", mix, 0, 1); err != nil {
		return err
	}

	m.weight.Store(mix)

	return nil
}
