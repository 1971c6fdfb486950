package delay

import (
	"math"
	"testing"
)

func TestModulatedIntegerDelayMatchesLine(t *testing.T) {
	l, _ := NewLine(8000, 0.01)
	m, err := NewModulated(8000, 0.01)
	if err != nil {
		t.Fatalf("NewModulated: %v", err)
	}
	_ = l.SetDelaySamples(12)
	_ = l.SetFeedback(0.3)
	_ = m.SetFeedback(0.3)

	in := make([]float64, 200)
	for i := range in {
		in[i] = math.Cos(0.21 * float64(i))
	}
	delays := make([]float64, len(in))
	for i := range delays {
		delays[i] = 12
	}

	want := make([]float64, len(in))
	l.ProcessTo(want, in)

	got := make([]float64, len(in))
	m.ProcessModulated(got, in, delays)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestModulatedFractionalDelayInterpolates(t *testing.T) {
	m, _ := NewModulated(1000, 0.1)

	in := make([]float64, 20)
	in[0] = 1
	delays := make([]float64, len(in))
	for i := range delays {
		delays[i] = 4.25
	}

	out := make([]float64, len(in))
	m.ProcessModulated(out, in, delays)

	// The impulse lands 75% on sample 4 and 25% on sample 5.
	for i, v := range out {
		want := 0.0
		switch i {
		case 4:
			want = 0.75
		case 5:
			want = 0.25
		}
		if math.Abs(v-want) > 1e-15 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestModulatedClampsDelays(t *testing.T) {
	m, _ := NewModulated(1000, 0.01)
	if m.MaxDelaySamples() != 10 {
		t.Fatalf("max delay=%v, want 10", m.MaxDelaySamples())
	}

	in := make([]float64, 30)
	in[0] = 1
	delays := make([]float64, len(in))
	for i := range delays {
		delays[i] = 1000
	}

	out := make([]float64, len(in))
	m.ProcessModulated(out, in, delays)

	for i, v := range out {
		want := 0.0
		if i == 10 {
			want = 1
		}
		if v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}

	m.Reset()
	for i := range delays {
		delays[i] = -3
	}
	out2 := make([]float64, 3)
	m.ProcessModulated(out2, []float64{1, 0, 0}, delays[:3])
	if out2[1] != 1 {
		t.Fatalf("negative delay not clamped to one sample: %v", out2)
	}
}

func TestModulatedStaticDelay(t *testing.T) {
	m, _ := NewModulated(1000, 0.01)
	if err := m.SetDelaySamples(3); err != nil {
		t.Fatalf("SetDelaySamples: %v", err)
	}
	if err := m.SetDelaySamples(0.5); err == nil {
		t.Fatal("expected error for delay below one sample")
	}
	if err := m.SetDelaySamples(11); err == nil {
		t.Fatal("expected error for delay above capacity")
	}

	buf := []float64{1, 0, 0, 0, 0}
	m.ProcessTo(buf, buf)
	if buf[3] != 1 || buf[0] != 0 {
		t.Fatalf("unexpected output %v", buf)
	}
}

func TestModulatedLengthMismatchPanics(t *testing.T) {
	m, _ := NewModulated(1000, 0.01)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	m.ProcessModulated(make([]float64, 2), make([]float64, 2), make([]float64, 1))
}
