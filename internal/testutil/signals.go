// Package testutil holds deterministic test signals and block-processing
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine returns length samples of a sine starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise returns uniform noise in [-amplitude, amplitude) from
// a PCG source seeded with seed.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]float64, length)

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse returns a unit impulse at pos. A pos outside the signal yields
// silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC returns a constant signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// ProcessInBlocks runs process over a copy of src split into consecutive
// blocks, cycling through sizes. Sizes must be positive.
func ProcessInBlocks(process func(dst, src []float64), src []float64, sizes ...int) []float64 {
	out := make([]float64, len(src))
	copy(out, src)

	for off, i := 0, 0; off < len(out); i++ {
		end := min(off+sizes[i%len(sizes)], len(out))
		process(out[off:end], out[off:end])
		off = end
	}

	return out
}

// Peak returns the largest absolute sample value.
func Peak(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		peak = max(peak, math.Abs(v))
	}

	return peak
}
