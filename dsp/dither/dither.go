package dither

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDitherType is returned for an unknown dither type.
var ErrDitherType = errors.New("dither: unknown dither type")

// DitherType selects the probability distribution used for dither noise.
type DitherType int

const (
	// DitherNone applies no dither (plain rounding).
	DitherNone DitherType = iota
	// DitherRectangular uses a uniform (rectangular) PDF over [-1, 1) LSB.
	DitherRectangular
	// DitherTriangular uses a triangular PDF (TPDF) over (-1, 1) LSB.
	DitherTriangular

	ditherTypeCount // sentinel for validation
)

var ditherTypeNames = [ditherTypeCount]string{
	"None", "Rectangular", "Triangular",
}

// String returns the name of the dither type.
func (dt DitherType) String() string {
	if dt.Valid() {
		return ditherTypeNames[dt]
	}
	return fmt.Sprintf("DitherType(%d)", dt)
}

// Valid reports whether dt is a known dither type.
func (dt DitherType) Valid() bool {
	return dt >= 0 && dt < ditherTypeCount
}

// ParseDitherType maps a case-insensitive name ("none", "rectangular",
// "triangular") to a DitherType.
func ParseDitherType(s string) (DitherType, error) {
	for dt, name := range ditherTypeNames {
		if strings.EqualFold(name, s) {
			return DitherType(dt), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrDitherType, s)
}
