package osc

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// Noise generates uniform white noise in [-1, 1).
type Noise struct {
	core.Wet

	rng *rand.Rand
}

var _ core.Module = (*Noise)(nil)

// NewNoise creates a noise source seeded with seed, with mix 1.
func NewNoise(seed uint64) *Noise {
	n := &Noise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	_ = n.SetMix(1)

	return n
}

// ProcessTo fills dst with noise. src is ignored.
func (n *Noise) ProcessTo(dst, _ []float64) {
	for i := range dst {
		dst[i] = n.rng.Float64()*2 - 1
	}
}
