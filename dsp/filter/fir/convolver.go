package fir

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// ShortConvolver convolves blocks with an impulse response, keeping the
// last len(taps)-1 inputs as history so consecutive blocks join seamlessly.
//
// Taps may be replaced with SetTaps from another goroutine; the new response
// takes effect at the next block and the input history is kept, trimmed or
// zero-extended at its oldest end to match the new length.
type ShortConvolver struct {
	core.Wet

	taps    atomic.Pointer[[]float64]
	history []float64
	ext     []float64
	term    []float64
	maxTaps int
}

var _ core.Module = (*ShortConvolver)(nil)

// NewShortConvolver creates a convolver for taps. Blocks of up to maxBlock
// samples are processed without allocation. The taps are copied.
func NewShortConvolver(taps []float64, maxBlock int) (*ShortConvolver, error) {
	return newShortConvolver(taps, maxBlock, len(taps))
}

func newShortConvolver(taps []float64, maxBlock, maxTaps int) (*ShortConvolver, error) {
	if len(taps) == 0 {
		return nil, fmt.Errorf("fir: impulse response must not be empty")
	}

	if maxBlock <= 0 {
		return nil, fmt.Errorf("fir: max block size must be > 0: %d", maxBlock)
	}

	maxTaps = max(maxTaps, len(taps))
	c := &ShortConvolver{
		history: make([]float64, len(taps)-1, maxTaps-1),
		maxTaps: maxTaps,
	}
	c.Reserve(maxBlock)

	if err := c.SetTaps(taps); err != nil {
		return nil, err
	}

	_ = c.SetMix(1)

	return c, nil
}

// Reserve grows the work buffers so blocks of up to maxBlock samples are
// processed without allocation. It must not run concurrently with
// ProcessTo.
func (c *ShortConvolver) Reserve(maxBlock int) {
	if cap(c.term) >= maxBlock && cap(c.ext) >= c.maxTaps-1+maxBlock {
		return
	}

	c.ext = make([]float64, 0, c.maxTaps-1+maxBlock)
	c.term = make([]float64, 0, maxBlock)
}

// SetTaps replaces the impulse response. The taps are copied.
func (c *ShortConvolver) SetTaps(taps []float64) error {
	if len(taps) == 0 {
		return fmt.Errorf("fir: impulse response must not be empty")
	}

	for i, v := range taps {
		if !core.IsFinite(v) {
			return fmt.Errorf("fir: tap %d is not finite: %v", i, v)
		}
	}

	t := append([]float64(nil), taps...)
	c.taps.Store(&t)

	return nil
}

// Taps returns a copy of the current impulse response.
func (c *ShortConvolver) Taps() []float64 {
	return append([]float64(nil), *c.taps.Load()...)
}

// Reset clears the input history.
func (c *ShortConvolver) Reset() {
	core.Zero(c.history)
}

// ProcessInPlace convolves buf in place.
func (c *ShortConvolver) ProcessInPlace(buf []float64) {
	c.ProcessTo(buf, buf)
}

// ProcessTo convolves src into dst. Both slices must have the same length
// and may alias.
func (c *ShortConvolver) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	taps := *c.taps.Load()
	c.resizeHistory(len(taps) - 1)

	h := len(c.history)
	c.ext = core.EnsureLen(c.ext, h+n)
	copy(c.ext, c.history)
	copy(c.ext[h:], src)
	copy(c.history, c.ext[n:])

	c.term = core.EnsureLen(c.term, n)
	core.Zero(dst[:n])

	// dst[i] = sum_k taps[k] * ext[h+i-k]
	for k, tap := range taps {
		vecmath.ScaleBlock(c.term, c.ext[h-k:h-k+n], tap)
		vecmath.AddBlockInPlace(dst[:n], c.term)
	}
}

// resizeHistory keeps the newest samples when the history length changes.
func (c *ShortConvolver) resizeHistory(h int) {
	old := len(c.history)
	if h == old {
		return
	}

	if h < old {
		copy(c.history, c.history[old-h:])
		c.history = c.history[:h]

		return
	}

	grown := core.EnsureLen(c.history, h)
	copy(grown[h-old:], c.history[:old])
	core.Zero(grown[:h-old])
	c.history = grown
}

// Response computes the complex frequency response of taps at freqHz.
func Response(taps []float64, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate

	var h complex128
	for k, c := range taps {
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}

	return h
}

// MagnitudeDB returns the magnitude response of taps in dB at freqHz.
func MagnitudeDB(taps []float64, freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(Response(taps, freqHz, sampleRate)))
}
