// Package window builds the tapers used to shape grains and FIR designs.
// All windows are symmetric: w[i] == w[n-1-i].
package window

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

var errLength = errors.New("window: samples and coefficients differ in length")

// Hann returns the n-point Hann window 0.5 - 0.5 cos(2πi/(n-1)). A single
// point window is 1.
func Hann(n int) []float64 {
	w := make([]float64, max(n, 0))
	if n == 1 {
		w[0] = 1
		return w
	}

	step := 2 * math.Pi / float64(n-1)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(step*float64(i))
	}

	return w
}

// Kaiser returns the n-point Kaiser window with shape parameter beta.
// Beta 0 is the rectangular window.
func Kaiser(n int, beta float64) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", n)
	}

	if !(beta >= 0) || math.IsInf(beta, 1) {
		return nil, fmt.Errorf("window: kaiser beta must be >= 0 and finite: %f", beta)
	}

	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w, nil
	}

	norm := besselI0(beta)
	half := float64(n-1) / 2

	for i := range w {
		r := (float64(i) - half) / half
		w[i] = besselI0(beta*math.Sqrt(max(0, 1-r*r))) / norm
	}

	return w, nil
}

// KaiserBeta returns the beta reaching the given stopband attenuation in
// dB (Kaiser's empirical formula).
func KaiserBeta(attenuationDB float64) float64 {
	switch {
	case attenuationDB > 50:
		return 0.1102 * (attenuationDB - 8.7)
	case attenuationDB >= 21:
		d := attenuationDB - 21
		return 0.5842*math.Pow(d, 0.4) + 0.07886*d
	default:
		return 0
	}
}

// Taper multiplies samples by coeffs in place.
func Taper(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return fmt.Errorf("%w: %d vs %d", errLength, len(samples), len(coeffs))
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

// besselI0 sums the power series of the modified Bessel function I0 until
// the terms stop contributing.
func besselI0(x float64) float64 {
	q := x * x / 4
	sum, term := 1.0, 1.0

	for k := 1.0; k < 500; k++ {
		term *= q / (k * k)
		sum += term

		if term < sum*1e-17 {
			break
		}
	}

	return sum
}
