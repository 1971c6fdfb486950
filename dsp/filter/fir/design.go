package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/window"
)

// MaxOrder is the largest supported design order.
const MaxOrder = 1024

var (
	// ErrType is returned for an unknown response type.
	ErrType = errors.New("fir: unknown filter type")
	// ErrBand is returned when band edges fall outside (0, Nyquist).
	ErrBand = errors.New("fir: band edges must lie in (0, Nyquist)")
)

// Type selects the designed response.
type Type int

const (
	TypeLowpass Type = iota
	TypeHighpass
	TypeBandpass
	TypeBandstop
)

func (t Type) String() string {
	switch t {
	case TypeLowpass:
		return "lpf"
	case TypeHighpass:
		return "hpf"
	case TypeBandpass:
		return "bpf"
	case TypeBandstop:
		return "bsf"
	default:
		return "unknown"
	}
}

// ParseType maps "lpf", "hpf", "bpf" and "bsf" to a Type.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{TypeLowpass, TypeHighpass, TypeBandpass, TypeBandstop} {
		if t.String() == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrType, s)
}

// Spec describes a FIR design.
//
// FreqHz is the passband edge for lowpass and highpass designs and the band
// center for bandpass and bandstop designs, whose band is BandwidthHz wide.
// TransitionHz is the width of each transition band.
type Spec struct {
	Type         Type
	Order        int
	FreqHz       float64
	BandwidthHz  float64
	TransitionHz float64
	SampleRate   float64
}

// Validate reports whether the spec can be designed.
func (s Spec) Validate() error {
	if err := core.ValidateSampleRate("fir", s.SampleRate); err != nil {
		return err
	}

	if s.Order < 1 || s.Order > MaxOrder {
		return fmt.Errorf("fir: order must be in [1, %d]: %d", MaxOrder, s.Order)
	}

	if !core.IsFinite(s.TransitionHz) || s.TransitionHz <= 0 {
		return fmt.Errorf("fir: transition width must be > 0: %f", s.TransitionHz)
	}

	if s.Type == TypeBandpass || s.Type == TypeBandstop {
		if !core.IsFinite(s.BandwidthHz) || s.BandwidthHz <= 0 {
			return fmt.Errorf("fir: bandwidth must be > 0: %f", s.BandwidthHz)
		}
	}

	if (s.Type == TypeHighpass || s.Type == TypeBandstop) && s.Order%2 != 0 {
		return fmt.Errorf("fir: %s design needs an even order: %d", s.Type, s.Order)
	}

	edges, err := s.edges()
	if err != nil {
		return err
	}

	nyquist := s.SampleRate / 2
	for _, e := range edges {
		if !core.IsFinite(e) || e <= 0 || e >= nyquist {
			return fmt.Errorf("%w: %f", ErrBand, e)
		}
	}

	return nil
}

// edges returns the ideal cutoff frequencies, placed in the middle of each
// transition band.
func (s Spec) edges() ([]float64, error) {
	half := s.TransitionHz / 2

	switch s.Type {
	case TypeLowpass:
		return []float64{s.FreqHz + half}, nil
	case TypeHighpass:
		return []float64{s.FreqHz - half}, nil
	case TypeBandpass, TypeBandstop:
		lo := s.FreqHz - s.BandwidthHz/2 - half
		hi := s.FreqHz + s.BandwidthHz/2 + half

		return []float64{lo, hi}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrType, s.Type)
	}
}

// Design returns Order+1 Kaiser-windowed sinc taps for spec. The Kaiser beta
// is chosen from the attenuation that Order and TransitionHz can reach.
func Design(spec Spec) ([]float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	edges, _ := spec.edges()
	n := spec.Order + 1

	var taps []float64

	switch spec.Type {
	case TypeLowpass:
		taps = lowpass(n, edges[0]/spec.SampleRate)
	case TypeHighpass:
		taps = lowpass(n, edges[0]/spec.SampleRate)
		negate(taps)
		taps[spec.Order/2]++
	case TypeBandpass:
		taps = lowpass(n, edges[1]/spec.SampleRate)
		sub(taps, lowpass(n, edges[0]/spec.SampleRate))
	case TypeBandstop:
		taps = lowpass(n, edges[1]/spec.SampleRate)
		sub(taps, lowpass(n, edges[0]/spec.SampleRate))
		negate(taps)
		taps[spec.Order/2]++
	}

	beta := window.KaiserBeta(attenuation(spec))

	win, err := window.Kaiser(n, beta)
	if err != nil {
		return nil, err
	}

	if err := window.Taper(taps, win); err != nil {
		return nil, err
	}

	return taps, nil
}

// attenuation inverts Kaiser's order estimate N = (A-8)/(2.285*dw).
func attenuation(spec Spec) float64 {
	dw := 2 * math.Pi * spec.TransitionHz / spec.SampleRate
	return 2.285*dw*float64(spec.Order) + 8
}

// lowpass returns the ideal lowpass impulse response for the normalized
// cutoff fc (cycles per sample), centered in n taps.
func lowpass(n int, fc float64) []float64 {
	h := make([]float64, n)
	mid := float64(n-1) / 2

	for i := range h {
		m := float64(i) - mid
		if m == 0 {
			h[i] = 2 * fc
			continue
		}

		h[i] = math.Sin(2*math.Pi*fc*m) / (math.Pi * m)
	}

	return h
}

func negate(h []float64) {
	for i := range h {
		h[i] = -h[i]
	}
}

func sub(dst, src []float64) {
	for i := range dst {
		dst[i] -= src[i]
	}
}
