package moog

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for invalid sample rate")
	}

	if _, err := New(48000, WithCutoffHz(24000)); err == nil {
		t.Fatal("expected error for cutoff at Nyquist")
	}

	if _, err := New(48000, WithCutoffHz(-1)); err == nil {
		t.Fatal("expected error for negative cutoff")
	}

	if _, err := New(48000, WithResonance(1.5)); err == nil {
		t.Fatal("expected error for resonance out of range")
	}
}

func TestCoefficients(t *testing.T) {
	f, err := New(48000, WithCutoffHz(6000), WithResonance(0.5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c := f.coeffs.Load()
	fc := 0.25
	wantP := fc * (1.8 - 0.8*fc)
	wantK := 2*math.Sin(fc*math.Pi/2) - 1
	t1 := (1 - wantP) * 1.386249
	t2 := 12 + t1*t1
	wantR := 0.5 * (t2 + 6*t1) / (t2 - 6*t1)

	if c.p != wantP || c.k != wantK || math.Abs(c.r-wantR) > 1e-15 {
		t.Fatalf("coeffs = %+v, want p=%v k=%v r=%v", *c, wantP, wantK, wantR)
	}
}

func TestResonanceScaleIsMusicdspConstant(t *testing.T) {
	if resonanceScale != 1.386249 {
		t.Fatalf("resonanceScale = %v, want 1.386249", resonanceScale)
	}

	if math.Abs(resonanceScale-math.Ln2*2) < 1e-5 {
		t.Fatalf("resonanceScale = %v, must not be ln(4)", resonanceScale)
	}
}

func TestProcessInPlaceMatchesSample(t *testing.T) {
	f1, err := New(48000, WithCutoffHz(2400), WithResonance(0.7))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f2, err := New(48000, WithCutoffHz(2400), WithResonance(0.7))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := make([]float64, 384)
	for i := range in {
		in[i] = 0.65*math.Sin(2*math.Pi*float64(i)/47) + 0.12*math.Sin(2*math.Pi*float64(i)/11)
	}

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = f1.ProcessSample(x)
	}

	got := append([]float64(nil), in...)
	f2.ProcessInPlace(got)

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestBlockSizeInvariance(t *testing.T) {
	const n = 1500

	in := testutil.Impulse(n, 0)

	ref, _ := New(44100, WithCutoffHz(1800), WithResonance(0.9))
	want := make([]float64, n)
	ref.ProcessTo(want, in)

	for _, sizes := range [][]int{{1}, {3}, {128}, {1000}, {5, 17, 64}} {
		f, _ := New(44100, WithCutoffHz(1800), WithResonance(0.9))
		got := testutil.ProcessInBlocks(f.ProcessTo, in, sizes...)
		testutil.RequireSliceNearlyEqual(t, got, want, 0)
	}
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	peak := func(freq float64) float64 {
		f, _ := New(48000, WithCutoffHz(1000), WithResonance(0))
		buf := make([]float64, 48000)
		for i := range buf {
			buf[i] = math.Sin(2 * math.Pi * freq * float64(i) / 48000)
		}
		f.ProcessInPlace(buf)

		p := 0.0
		for _, v := range buf[24000:] {
			p = math.Max(p, math.Abs(v))
		}
		return p
	}

	low, high := peak(100), peak(10000)
	if low < 0.5 {
		t.Fatalf("passband peak too small: %v", low)
	}
	if high > 1e-3 {
		t.Fatalf("stopband peak too large: %v", high)
	}
}

func TestFullResonanceStaysBounded(t *testing.T) {
	f, _ := New(48000, WithCutoffHz(1000), WithResonance(1))
	buf := make([]float64, 48000)
	buf[0] = 1
	f.ProcessInPlace(buf)

	for i, v := range buf {
		if math.IsNaN(v) || math.Abs(v) > 1.5 {
			t.Fatalf("sample %d unbounded: %v", i, v)
		}
	}
}

func TestParameterChangeKeepsState(t *testing.T) {
	f, _ := New(48000)
	f.ProcessInPlace([]float64{1, 0.5, 0.25, 0})
	before := f.State()

	if err := f.SetCutoffHz(5000); err != nil {
		t.Fatalf("SetCutoffHz() error = %v", err)
	}
	if err := f.SetResonance(0.6); err != nil {
		t.Fatalf("SetResonance() error = %v", err)
	}
	if f.State() != before {
		t.Fatal("parameter change reset state")
	}
	if err := f.SetCutoffHz(30000); err == nil {
		t.Fatal("expected error for cutoff above Nyquist")
	}
	if f.CutoffHz() != 5000 {
		t.Fatalf("cutoff mutated on error: %v", f.CutoffHz())
	}
}

func TestStateRoundTripAndReset(t *testing.T) {
	f, _ := New(48000, WithCutoffHz(900), WithResonance(0.4))
	f.ProcessInPlace([]float64{0.3, -0.2, 0.9})

	saved := f.State()
	a := f.ProcessSample(0.1)

	if err := f.SetState(saved); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if b := f.ProcessSample(0.1); b != a {
		t.Fatalf("restored state diverged: %v != %v", b, a)
	}

	bad := saved
	bad.Delay[2] = math.Inf(1)
	if err := f.SetState(bad); err == nil {
		t.Fatal("expected error for non-finite state")
	}

	f.Reset()
	if f.State() != (State{}) {
		t.Fatal("Reset did not clear state")
	}
}
