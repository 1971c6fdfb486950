package granular

import (
	"errors"
	"math"
	"testing"
)

func sineSource(n int) []float64 {
	src := make([]float64, n)
	for i := range src {
		src[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 48000)
	}
	return src
}

func TestGrainTableCoversSource(t *testing.T) {
	src := sineSource(48000)
	p, err := New(48000, src, 48000, WithGrainSeconds(0.05), WithSeed(7))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tbl := p.table.Load()
	total := 0
	for i, g := range tbl.grains {
		if len(g) < 2 || len(g) > 2400 {
			t.Fatalf("grain %d length %d outside [2, 2400]", i, len(g))
		}
		if math.Abs(g[0]) > 1e-12 || math.Abs(g[len(g)-1]) > 1e-12 {
			t.Fatalf("grain %d not windowed at its edges: %v %v", i, g[0], g[len(g)-1])
		}
		total += len(g)
	}
	if total > len(src) || total < len(src)-1 {
		t.Fatalf("grains cover %d samples, want %d", total, len(src))
	}
}

func TestOverlapProducesMoreGrains(t *testing.T) {
	src := sineSource(48000)
	p, _ := New(48000, src, 48000, WithGrainSeconds(0.05), WithSeed(3))
	plain := p.Grains()

	if err := p.SetOverlap(true); err != nil {
		t.Fatalf("SetOverlap: %v", err)
	}
	if !p.Overlap() {
		t.Fatal("overlap not recorded")
	}
	if p.Grains() <= plain {
		t.Fatalf("overlap grains %d not more than %d", p.Grains(), plain)
	}
}

func TestOutputBoundedAndDeterministic(t *testing.T) {
	src := sineSource(12000)

	run := func() []float64 {
		p, err := New(48000, src, 44100, WithSeed(11), WithSpeed(1.3))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		out := make([]float64, 0, 20000)
		for range 40 {
			buf := make([]float64, 500)
			p.ProcessTo(buf, buf)
			out = append(out, buf...)
		}
		return out
	}

	a, b := run(), run()
	nonzero := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between seeded runs", i)
		}
		if math.IsNaN(a[i]) || math.Abs(a[i]) > 1 {
			t.Fatalf("sample %d out of range: %v", i, a[i])
		}
		if a[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("player produced silence")
	}
}

func TestReversePlaybackStaysInBounds(t *testing.T) {
	p, _ := New(48000, sineSource(5000), 48000, WithSpeed(-2.5), WithGrainSeconds(0.01))

	buf := make([]float64, 10000)
	p.ProcessTo(buf, nil)

	for i, v := range buf {
		if math.IsNaN(v) || math.Abs(v) > 1 {
			t.Fatalf("sample %d out of range: %v", i, v)
		}
	}
}

func TestSpeedMatchesSourceRate(t *testing.T) {
	// Speed 1 from a source at half the processing rate advances by 0.5
	// source samples per output sample.
	p, _ := New(1000, sineSource(64), 500)
	p.table.Store(&table{grains: [][]float64{make([]float64, 64)}, grainSeconds: 0.064})

	buf := make([]float64, 3)
	p.ProcessTo(buf, nil)
	if p.time != 1.5 {
		t.Fatalf("time=%v, want 1.5", p.time)
	}
}

func TestSettersValidateAndRebuild(t *testing.T) {
	p, _ := New(48000, sineSource(4800), 48000)
	before := p.table.Load()

	if err := p.SetGrainSeconds(0); err == nil {
		t.Fatal("expected error for zero grain size")
	}
	if p.table.Load() != before {
		t.Fatal("table replaced on error")
	}
	if err := p.SetGrainSeconds(0.02); err != nil {
		t.Fatalf("SetGrainSeconds: %v", err)
	}
	if p.table.Load() == before || p.GrainSeconds() != 0.02 {
		t.Fatal("table not rebuilt")
	}
	if err := p.SetSpeed(math.NaN()); err == nil {
		t.Fatal("expected error for NaN speed")
	}
	if err := p.SetSpeed(0.5); err != nil || p.Speed() != 0.5 {
		t.Fatalf("SetSpeed: %v speed=%v", err, p.Speed())
	}
}

func TestSourceValidation(t *testing.T) {
	if _, err := New(48000, []float64{1}, 48000); !errors.Is(err, ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if _, err := New(48000, []float64{0, math.Inf(1)}, 48000); !errors.Is(err, ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if _, err := New(48000, []float64{0, 1}, 0); err == nil {
		t.Fatal("expected source rate error")
	}
}

func TestSeedSelectsGrainSequence(t *testing.T) {
	src := sineSource(12000)

	run := func(seed uint64) []float64 {
		p, err := New(48000, src, 48000, WithSeed(seed), WithGrainSeconds(0.01))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		buf := make([]float64, 8000)
		p.ProcessTo(buf, nil)
		return buf
	}

	a, b := run(1), run(2)
	for i := range a {
		if a[i] != b[i] {
			return
		}
	}
	t.Fatal("different seeds produced identical output")
}
