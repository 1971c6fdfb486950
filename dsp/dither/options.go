package dither

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	minBitDepth = 1
	maxBitDepth = 32
)

// config collects construction parameters. Options only record values;
// the complete config is checked once by validate.
type config struct {
	bitDepth        int
	ditherType      DitherType
	ditherAmplitude float64
	limit           bool
	rng             *rand.Rand
}

func defaultConfig() config {
	return config{
		bitDepth:        16,
		ditherType:      DitherTriangular,
		ditherAmplitude: 1,
		limit:           true,
	}
}

func (c config) validate() error {
	return errors.Join(
		checkBitDepth(c.bitDepth),
		checkDitherType(c.ditherType),
		checkAmplitude(c.ditherAmplitude),
	)
}

func checkBitDepth(bits int) error {
	if bits < minBitDepth || bits > maxBitDepth {
		return fmt.Errorf("dither: bit depth must be in [%d, %d]: %d", minBitDepth, maxBitDepth, bits)
	}

	return nil
}

func checkDitherType(dt DitherType) error {
	if !dt.Valid() {
		return fmt.Errorf("%w: %d", ErrDitherType, dt)
	}

	return nil
}

func checkAmplitude(amp float64) error {
	if !(amp >= 0) || math.IsInf(amp, 1) {
		return fmt.Errorf("dither: amplitude must be >= 0 and finite: %f", amp)
	}

	return nil
}

// Option configures a [Quantizer].
type Option func(*config) error

// WithBitDepth sets the number of fractional bits kept (1-32, default 16).
func WithBitDepth(bits int) Option {
	return func(c *config) error { c.bitDepth = bits; return nil }
}

// WithDitherType selects the noise distribution (default [DitherTriangular]).
func WithDitherType(dt DitherType) Option {
	return func(c *config) error { c.ditherType = dt; return nil }
}

// WithDitherAmplitude scales the noise, in LSB (default 1).
func WithDitherAmplitude(amp float64) Option {
	return func(c *config) error { c.ditherAmplitude = amp; return nil }
}

// WithLimit toggles clamping of the output to [-1, 1] (default on).
func WithLimit(enabled bool) Option {
	return func(c *config) error { c.limit = enabled; return nil }
}

// WithRNG makes the noise sequence reproducible.
func WithRNG(rng *rand.Rand) Option {
	return func(c *config) error {
		if rng == nil {
			return errors.New("dither: nil random source")
		}

		c.rng = rng

		return nil
	}
}
