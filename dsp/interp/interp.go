package interp

// Mode selects an interpolation kernel.
type Mode int

const (
	// Linear is 2-point linear interpolation (one sample of look-ahead).
	Linear Mode = iota
	// Hermite is 4-point cubic Catmull-Rom interpolation (one sample of
	// look-behind and two of look-ahead).
	Hermite
)

// String returns the kernel name.
func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Hermite:
		return "cubic"
	default:
		return "unknown"
	}
}

// Points returns the number of neighbouring samples the kernel reads.
func (m Mode) Points() int {
	if m == Hermite {
		return 4
	}

	return 2
}

// Linear2 interpolates between x0 and x1 at fraction t in [0, 1).
// It returns x0 exactly for t == 0.
func Linear2(t, x0, x1 float64) float64 {
	return x0 + (x1-x0)*t
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2 and
// returns x0 exactly for t == 0.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}
