package effects

import (
	"math"
	"testing"
)

func TestTremoloDefaults(t *testing.T) {
	tm, err := NewTremolo(48000)
	if err != nil {
		t.Fatalf("NewTremolo() error = %v", err)
	}
	if tm.RateHz() != 8 || tm.Depth() != 0.73 || tm.Mix() != 1 {
		t.Fatalf("defaults = rate %v depth %v mix %v", tm.RateHz(), tm.Depth(), tm.Mix())
	}
}

func TestTremoloValidation(t *testing.T) {
	if _, err := NewTremolo(0); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewTremolo(48000, WithTremoloRateHz(0)); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := NewTremolo(48000, WithTremoloDepth(1.5)); err == nil {
		t.Error("expected error for depth > 1")
	}

	tm, _ := NewTremolo(48000)
	if err := tm.SetDepth(math.NaN()); err == nil {
		t.Error("expected error for NaN depth")
	}
	if tm.Depth() != 0.73 {
		t.Errorf("failed SetDepth changed depth to %v", tm.Depth())
	}
}

func TestTremoloGainFormula(t *testing.T) {
	const fs = 1000
	tm, _ := NewTremolo(fs, WithTremoloRateHz(5), WithTremoloDepth(0.6))

	buf := make([]float64, 400)
	for i := range buf {
		buf[i] = 1
	}
	tm.ProcessInPlace(buf[:123])
	tm.ProcessInPlace(buf[123:])

	for i, v := range buf {
		want := 1 - 0.3 + math.Sin(2*math.Pi*5*float64(i)/fs)*0.3
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
		if v < 0.4-1e-12 || v > 1+1e-12 {
			t.Fatalf("gain %v outside [1-depth, 1]", v)
		}
	}
}

func TestTremoloDepthZeroIsTransparent(t *testing.T) {
	tm, _ := NewTremolo(48000, WithTremoloDepth(0))

	for i := range 512 {
		in := 0.5 * math.Sin(2*math.Pi*440*float64(i)/48000)
		buf := []float64{in}
		tm.ProcessTo(buf, buf)
		if buf[0] != in {
			t.Fatalf("sample %d: got %v, want %v", i, buf[0], in)
		}
	}
}

func TestTremoloResetRestoresState(t *testing.T) {
	tm, _ := NewTremolo(48000)

	in := make([]float64, 96)
	for i := range in {
		in[i] = 1
	}

	out1 := make([]float64, len(in))
	tm.ProcessTo(out1, in)

	tm.Reset()

	out2 := make([]float64, len(in))
	tm.ProcessTo(out2, in)

	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("sample %d mismatch after reset: got=%g want=%g", i, out2[i], out1[i])
		}
	}
}
