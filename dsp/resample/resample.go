package resample

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/interp"
)

// ErrKernel indicates an unknown interpolation kernel.
var ErrKernel = errors.New("resample: unknown kernel")

// Kernel selects the interpolation used between source samples.
type Kernel int

const (
	// Linear interpolates between two neighbours.
	Linear Kernel = iota
	// Cubic uses the four-point Catmull-Rom spline.
	Cubic
)

// String returns "linear" or "cubic".
func (k Kernel) String() string {
	switch k {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	default:
		return fmt.Sprintf("Kernel(%d)", int(k))
	}
}

// ParseKernel maps "linear" or "cubic" (case-insensitive) to a Kernel.
func ParseKernel(s string) (Kernel, error) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrKernel, s)
	}
}

// history is the number of samples kept from previous blocks.
func (k Kernel) history() int {
	if k == Cubic {
		return 4
	}

	return 2
}

// Lookahead is the number of samples read past floor(t). A stream has
// consumed this many samples ahead of the position of its last output.
func (k Kernel) Lookahead() int {
	if k == Cubic {
		return 2
	}

	return 1
}

// Resampler converts a stream from SourceRate to TargetRate. It is not safe
// for concurrent use; the audio goroutine owns it.
type Resampler struct {
	sourceRate float64
	targetRate float64
	ratio      float64
	kernel     Kernel

	// cursor is the source position of the next output sample, relative to
	// the first sample of the next source block. It may be negative, in
	// which case the read starts inside history.
	cursor  float64
	history []float64
}

// New creates a resampler producing targetRate samples from a sourceRate
// stream.
func New(sourceRate, targetRate float64, kernel Kernel) (*Resampler, error) {
	if err := core.ValidateSampleRate("resample", sourceRate); err != nil {
		return nil, err
	}

	if err := core.ValidateSampleRate("resample", targetRate); err != nil {
		return nil, err
	}

	if kernel != Linear && kernel != Cubic {
		return nil, fmt.Errorf("%w: %d", ErrKernel, int(kernel))
	}

	return &Resampler{
		sourceRate: sourceRate,
		targetRate: targetRate,
		ratio:      sourceRate / targetRate,
		kernel:     kernel,
		history:    make([]float64, kernel.history()),
	}, nil
}

// SourceBlockSize returns the exact number of source samples the next
// Process call producing n output samples expects. It may be 0.
func (r *Resampler) SourceBlockSize(n int) int {
	last := math.Floor(float64(n-1)*r.ratio + r.cursor)

	return max(int(last)+r.kernel.Lookahead()+1, 0)
}

// MakeSourceBuffer allocates a buffer large enough for SourceBlockSize(m)
// for every m <= n.
func (r *Resampler) MakeSourceBuffer(n int) []float64 {
	return make([]float64, int(math.Ceil(r.ratio*float64(n)))+r.kernel.Lookahead()+1)
}

// Process fills dst from src. len(src) must equal SourceBlockSize(len(dst));
// anything else is a caller bug and panics.
func (r *Resampler) Process(dst, src []float64) {
	want := r.SourceBlockSize(len(dst))
	if len(src) != want {
		panic(fmt.Sprintf("resample: source block has %d samples, want %d", len(src), want))
	}

	switch r.kernel {
	case Cubic:
		for i := range dst {
			t := r.cursor + float64(i)*r.ratio
			pos := math.Floor(t)
			j := int(pos)
			dst[i] = interp.Hermite4(t-pos, r.at(src, j-1), r.at(src, j), r.at(src, j+1), r.at(src, j+2))
		}
	default:
		for i := range dst {
			t := r.cursor + float64(i)*r.ratio
			pos := math.Floor(t)
			j := int(pos)
			dst[i] = interp.Linear2(t-pos, r.at(src, j), r.at(src, j+1))
		}
	}

	r.cursor += float64(len(dst))*r.ratio - float64(len(src))
	r.pushHistory(src)
}

// at reads index j of the virtual block history ++ src, where j = 0 is
// src[0] and negative indices reach into history.
func (r *Resampler) at(src []float64, j int) float64 {
	if j >= 0 {
		return src[j]
	}

	h := len(r.history)
	if j < -h {
		panic(fmt.Sprintf("resample: read at %d before history of %d samples", j, h))
	}

	return r.history[h+j]
}

func (r *Resampler) pushHistory(src []float64) {
	h := len(r.history)
	if len(src) >= h {
		copy(r.history, src[len(src)-h:])
		return
	}

	copy(r.history, r.history[len(src):])
	copy(r.history[h-len(src):], src)
}

// Reset rewinds the cursor to 0 and clears history.
func (r *Resampler) Reset() {
	r.cursor = 0
	core.Zero(r.history)
}

// Ratio returns SourceRate / TargetRate, the source samples consumed per
// output sample.
func (r *Resampler) Ratio() float64 { return r.ratio }

// Cursor returns the fractional source position of the next output sample
// relative to the next source block.
func (r *Resampler) Cursor() float64 { return r.cursor }

// Kernel returns the interpolation kernel.
func (r *Resampler) Kernel() Kernel { return r.kernel }

// SourceRate returns the input sample rate in Hz.
func (r *Resampler) SourceRate() float64 { return r.sourceRate }

// TargetRate returns the output sample rate in Hz.
func (r *Resampler) TargetRate() float64 { return r.targetRate }
