package core

import (
	"fmt"
	"math"
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// IsFinite reports whether value is neither NaN nor infinite.
func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ValidateSampleRate returns an error prefixed with pkg unless sampleRate is
// finite and > 0.
func ValidateSampleRate(pkg string, sampleRate float64) error {
	if !IsFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("%s: sample rate must be > 0 and finite: %f", pkg, sampleRate)
	}

	return nil
}

// ValidateRange returns an error prefixed with pkg unless value is finite and
// within [min, max].
func ValidateRange(pkg, name string, value, min, max float64) error {
	if !IsFinite(value) {
		return fmt.Errorf("%s: %s must be finite: %v", pkg, name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("%s: %s must be in [%g, %g]: %f", pkg, name, min, max, value)
	}

	return nil
}
