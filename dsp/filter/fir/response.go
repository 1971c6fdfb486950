package fir

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// minMagnitude bounds the dB floor of MagnitudeResponse at -300 dB.
const minMagnitude = 1e-15

// MagnitudeResponse returns the magnitude of taps in dB at bins evenly
// spaced frequencies from DC up to, but excluding, Nyquist. Bin k lies at
// k*sampleRate/(2*bins). bins must be a power of two and 2*bins must be at
// least len(taps).
func MagnitudeResponse(taps []float64, bins int) ([]float64, error) {
	if bins <= 0 || bins&(bins-1) != 0 {
		return nil, fmt.Errorf("fir: bins must be a positive power of two: %d", bins)
	}

	fftSize := 2 * bins
	if len(taps) == 0 || len(taps) > fftSize {
		return nil, fmt.Errorf("fir: need 1..%d taps for %d bins: %d", fftSize, bins, len(taps))
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fir: fft plan: %w", err)
	}

	in := make([]complex128, fftSize)
	for i, v := range taps {
		in[i] = complex(v, 0)
	}

	spectrum := make([]complex128, fftSize)
	if err := plan.Forward(spectrum, in); err != nil {
		return nil, fmt.Errorf("fir: fft: %w", err)
	}

	out := make([]float64, bins)
	for k := range out {
		out[k] = 20 * math.Log10(math.Max(cmplx.Abs(spectrum[k]), minMagnitude))
	}

	return out, nil
}
