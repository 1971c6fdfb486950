package dither

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestNewQuantizerValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero bit depth", []Option{WithBitDepth(0)}},
		{"huge bit depth", []Option{WithBitDepth(33)}},
		{"bad dither type", []Option{WithDitherType(DitherType(99))}},
		{"negative amplitude", []Option{WithDitherAmplitude(-1)}},
		{"NaN amplitude", []Option{WithDitherAmplitude(math.NaN())}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewQuantizer(tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewQuantizerDefaults(t *testing.T) {
	quant, err := NewQuantizer()
	if err != nil {
		t.Fatal(err)
	}

	if quant.BitDepth() != 16 {
		t.Errorf("BitDepth() = %d, want 16", quant.BitDepth())
	}
	if quant.DitherType() != DitherTriangular {
		t.Errorf("DitherType() = %v, want Triangular", quant.DitherType())
	}
	if quant.DitherAmplitude() != 1.0 {
		t.Errorf("DitherAmplitude() = %v, want 1.0", quant.DitherAmplitude())
	}
	if !quant.Limit() {
		t.Error("Limit() should be true by default")
	}
	if quant.Mix() != 1 {
		t.Errorf("Mix() = %v, want 1", quant.Mix())
	}
}

func TestQuantizerNilOption(t *testing.T) {
	quant, err := NewQuantizer(nil, WithBitDepth(8), nil)
	if err != nil {
		t.Fatal(err)
	}
	if quant.BitDepth() != 8 {
		t.Errorf("BitDepth = %d, want 8", quant.BitDepth())
	}
}

func TestQuantizerWithoutDitherRounds(t *testing.T) {
	quant, _ := NewQuantizer(WithBitDepth(3), WithDitherType(DitherNone))

	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.1, 0.125},
		{0.3, 0.25},
		{-0.3, -0.25},
		{0.0625, 0},     // ties go to even
		{0.1875, 0.25},  // 1.5 LSB rounds to 2
		{0.9, 0.875},
		{1.2, 1},        // limited
		{-5, -1},        // limited
	}
	for _, tt := range tests {
		if got := quant.ProcessSample(tt.in); got != tt.want {
			t.Errorf("ProcessSample(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuantizerOutputOnGrid(t *testing.T) {
	for _, dt := range []DitherType{DitherNone, DitherRectangular, DitherTriangular} {
		quant, _ := NewQuantizer(
			WithBitDepth(8),
			WithDitherType(dt),
			WithRNG(rand.New(rand.NewPCG(1, 2))),
		)

		buf := make([]float64, 1000)
		for i := range buf {
			buf[i] = 0.9 * math.Sin(2*math.Pi*float64(i)/97)
		}
		in := append([]float64(nil), buf...)
		quant.ProcessInPlace(buf)

		for i, v := range buf {
			scaled := v * 256
			if scaled != math.Round(scaled) {
				t.Fatalf("%s: sample %d = %v not on the 8-bit grid", dt, i, v)
			}
			// dither of at most one LSB moves rounding by at most one step
			if math.Abs(v-in[i]) > 1.5/256 {
				t.Fatalf("%s: sample %d error %v too large", dt, i, v-in[i])
			}
		}
	}
}

func TestTriangularDitherIsUnbiased(t *testing.T) {
	quant, _ := NewQuantizer(
		WithBitDepth(4),
		WithRNG(rand.New(rand.NewPCG(7, 7))),
	)

	// A constant between two grid points averages to itself under TPDF.
	const in = 0.3 / 16
	sum := 0.0
	const n = 200000
	for range n {
		sum += quant.ProcessSample(in)
	}
	if mean := sum / n; math.Abs(mean-in) > 5e-4 {
		t.Fatalf("mean %v, want %v", mean, in)
	}
}

func TestQuantizerIsStatelessAcrossBlocks(t *testing.T) {
	a, _ := NewQuantizer(WithRNG(rand.New(rand.NewPCG(3, 4))))
	b, _ := NewQuantizer(WithRNG(rand.New(rand.NewPCG(3, 4))))

	x := make([]float64, 64)
	for i := range x {
		x[i] = math.Cos(float64(i))
	}

	whole := append([]float64(nil), x...)
	a.ProcessInPlace(whole)

	split := append([]float64(nil), x...)
	b.ProcessInPlace(split[:10])
	b.ProcessInPlace(split[10:])

	for i := range whole {
		if whole[i] != split[i] {
			t.Fatalf("sample %d: %v != %v", i, whole[i], split[i])
		}
	}
}

func TestProcessFloat32(t *testing.T) {
	quant, _ := NewQuantizer(WithBitDepth(2), WithDitherType(DitherNone))
	buf := []float32{0.3, -0.6, 2}
	quant.ProcessFloat32(buf)

	want := []float32{0.25, -0.5, 1}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestSettersValidate(t *testing.T) {
	quant, _ := NewQuantizer()

	if err := quant.SetBitDepth(0); err == nil {
		t.Error("expected error for bit depth 0")
	}
	if err := quant.SetDitherType(DitherType(-1)); !errors.Is(err, ErrDitherType) {
		t.Errorf("expected ErrDitherType, got %v", err)
	}
	if err := quant.SetDitherAmplitude(math.Inf(1)); err == nil {
		t.Error("expected error for infinite amplitude")
	}
	if quant.BitDepth() != 16 || quant.DitherType() != DitherTriangular || quant.DitherAmplitude() != 1 {
		t.Error("state mutated on error")
	}

	if err := quant.SetBitDepth(24); err != nil || quant.BitDepth() != 24 {
		t.Errorf("SetBitDepth(24): %v", err)
	}
	if err := quant.SetDitherType(DitherRectangular); err != nil || quant.DitherType() != DitherRectangular {
		t.Errorf("SetDitherType: %v", err)
	}
	quant.SetLimit(false)
	if quant.Limit() {
		t.Error("SetLimit(false) ignored")
	}
}
