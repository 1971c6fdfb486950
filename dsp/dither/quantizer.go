package dither

import (
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

// Quantizer reduces samples to a fixed number of fractional bits:
//
//	y = round(x*2^depth + noise) * 2^-depth
//
// It keeps no signal history, so blocks are independent of one another.
// Parameters may be changed from a control goroutine while the audio
// goroutine processes; each block uses the values current at its start.
type Quantizer struct {
	core.Wet

	bitDepth        atomic.Int32
	ditherType      atomic.Int32
	ditherAmplitude core.AtomicFloat
	limit           atomic.Bool

	// owned by the processing goroutine
	rng *rand.Rand
}

var _ core.Module = (*Quantizer)(nil)

// NewQuantizer creates a new Quantizer. The default configuration is:
// 16-bit, triangular dither, amplitude 1.0, limiting enabled.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	quant := &Quantizer{rng: cfg.rng}
	if quant.rng == nil {
		quant.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	quant.bitDepth.Store(int32(cfg.bitDepth))
	quant.ditherType.Store(int32(cfg.ditherType))
	quant.ditherAmplitude.Store(cfg.ditherAmplitude)
	quant.limit.Store(cfg.limit)
	_ = quant.SetMix(1)

	return quant, nil
}

// block holds the parameters of one processing call.
type block struct {
	scale, inv float64
	ditherType DitherType
	amp        float64
	limit      bool
}

func (q *Quantizer) load() block {
	scale := math.Exp2(float64(q.bitDepth.Load()))

	return block{
		scale:      scale,
		inv:        1 / scale,
		ditherType: DitherType(q.ditherType.Load()),
		amp:        q.ditherAmplitude.Load(),
		limit:      q.limit.Load(),
	}
}

// ProcessSample quantizes one sample.
func (q *Quantizer) ProcessSample(input float64) float64 {
	return q.quantize(input, q.load())
}

// ProcessInPlace quantizes each sample in buf in-place.
func (q *Quantizer) ProcessInPlace(buf []float64) {
	q.ProcessTo(buf, buf)
}

// ProcessTo quantizes src into dst. Both slices must have the same length
// and may alias.
func (q *Quantizer) ProcessTo(dst, src []float64) {
	n := len(src)
	if n == 0 {
		return
	}

	_ = dst[n-1]

	b := q.load()
	for i, x := range src {
		dst[i] = q.quantize(x, b)
	}
}

// ProcessFloat32 quantizes buf in place, for device buffers.
func (q *Quantizer) ProcessFloat32(buf []float32) {
	b := q.load()
	for i, x := range buf {
		buf[i] = float32(q.quantize(float64(x), b))
	}
}

func (q *Quantizer) quantize(input float64, b block) float64 {
	y := math.RoundToEven(input*b.scale+q.noise(b)) * b.inv
	if b.limit {
		y = core.Clamp(y, -1, 1)
	}

	return y
}

// noise draws one dither value in LSB units.
func (q *Quantizer) noise(b block) float64 {
	switch b.ditherType {
	case DitherRectangular:
		return b.amp * (q.rng.Float64()*2 - 1)
	case DitherTriangular:
		return b.amp * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}

// Getters.

// BitDepth returns the current target bit depth.
func (q *Quantizer) BitDepth() int { return int(q.bitDepth.Load()) }

// DitherType returns the current dither noise type.
func (q *Quantizer) DitherType() DitherType { return DitherType(q.ditherType.Load()) }

// DitherAmplitude returns the current dither noise amplitude.
func (q *Quantizer) DitherAmplitude() float64 { return q.ditherAmplitude.Load() }

// Limit returns whether output limiting is enabled.
func (q *Quantizer) Limit() bool { return q.limit.Load() }

// Setters.

// SetBitDepth changes the target bit depth (1-32).
func (q *Quantizer) SetBitDepth(bits int) error {
	if err := checkBitDepth(bits); err != nil {
		return err
	}

	q.bitDepth.Store(int32(bits))

	return nil
}

// SetDitherType changes the dither noise PDF.
func (q *Quantizer) SetDitherType(dt DitherType) error {
	if err := checkDitherType(dt); err != nil {
		return err
	}

	q.ditherType.Store(int32(dt))

	return nil
}

// SetDitherAmplitude changes the dither noise amplitude.
func (q *Quantizer) SetDitherAmplitude(amp float64) error {
	if err := checkAmplitude(amp); err != nil {
		return err
	}

	q.ditherAmplitude.Store(amp)

	return nil
}

// SetLimit enables or disables output limiting.
func (q *Quantizer) SetLimit(enabled bool) {
	q.limit.Store(enabled)
}
