package envelope

import (
	"sync"
	"testing"
)

func ones(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = 1
	}
	return buf
}

func TestFullVelocityReachesOneThenDecays(t *testing.T) {
	e, err := New(48000, WithAttack(0.01), WithDecay(0.02))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Trigger(127); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	// attack is 480 samples; process well past it in uneven blocks
	var out []float64
	for _, n := range []int{100, 333, 512, 1000} {
		buf := ones(n)
		e.ProcessInPlace(buf)
		out = append(out, buf...)
	}

	peak := -1
	for i, v := range out {
		if v == 1.0 {
			peak = i
			break
		}
		if v > 1.0 {
			t.Fatalf("sample %d overshoots: %v", i, v)
		}
	}
	if peak < 0 {
		t.Fatal("amplitude never reached exactly 1.0")
	}
	if peak < 470 || peak > 490 {
		t.Fatalf("peak at sample %d, want about 480", peak)
	}

	for i := 1; i <= peak; i++ {
		if out[i] < out[i-1] {
			t.Fatalf("attack not monotonic at %d: %v < %v", i, out[i], out[i-1])
		}
	}

	decreased := false
	for i := peak + 1; i < len(out); i++ {
		if out[i] > out[i-1] {
			t.Fatalf("decay not monotonic at %d: %v > %v", i, out[i], out[i-1])
		}
		if out[i] < out[i-1] {
			decreased = true
		}
	}
	if !decreased {
		t.Fatal("amplitude never decayed")
	}
	if out[len(out)-1] != 0 {
		t.Fatalf("amplitude did not settle at 0: %v", out[len(out)-1])
	}
	if e.Amplitude() != 0 || e.Attacking() || e.Velocity() != 127 {
		t.Fatalf("unexpected accessors amp=%v attacking=%v velocity=%d", e.Amplitude(), e.Attacking(), e.Velocity())
	}
}

func TestZeroVelocityNeverRaisesAmplitude(t *testing.T) {
	e, _ := New(48000)
	if err := e.Trigger(0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	buf := ones(4096)
	e.ProcessInPlace(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
	if e.Amplitude() != 0 {
		t.Fatalf("amplitude = %v", e.Amplitude())
	}
}

func TestTriggerObservedAtNextBlock(t *testing.T) {
	e, _ := New(1000, WithAttack(0.004))

	buf := ones(2)
	e.ProcessInPlace(buf)
	if buf[0] != 0 || buf[1] != 0 {
		t.Fatalf("output before trigger: %v", buf)
	}

	_ = e.Trigger(127)
	if e.Attacking() {
		t.Fatal("trigger observed before processing")
	}

	buf = ones(4)
	e.ProcessInPlace(buf)
	want := []float64{0.25, 0.5, 0.75, 1}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}
	if !e.Attacking() {
		t.Fatal("expected attack phase until the next sample")
	}
}

func TestRetriggerDuringDecay(t *testing.T) {
	e, _ := New(1000, WithAttack(0.002), WithDecay(0.01))
	_ = e.Trigger(127)
	e.ProcessInPlace(ones(6))
	low := e.Amplitude()
	if low >= 1 || low <= 0 {
		t.Fatalf("expected partial decay, amp=%v", low)
	}

	_ = e.Trigger(127)
	buf := ones(1)
	e.ProcessInPlace(buf)
	if buf[0] <= low {
		t.Fatalf("retrigger did not raise amplitude: %v <= %v", buf[0], low)
	}
}

func TestValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected sample rate error")
	}
	if _, err := New(48000, WithAttack(0)); err == nil {
		t.Fatal("expected attack error")
	}
	if _, err := New(48000, WithDecay(-1)); err == nil {
		t.Fatal("expected decay error")
	}

	e, _ := New(48000)
	for _, v := range []int{-1, 128} {
		if err := e.Trigger(v); err == nil {
			t.Fatalf("expected error for velocity %d", v)
		}
	}
	buf := ones(8)
	e.ProcessInPlace(buf)
	if buf[7] != 0 {
		t.Fatal("invalid trigger was queued")
	}
	if err := e.SetAttack(0); err == nil || e.Attack() != defaultAttackSeconds {
		t.Fatal("SetAttack accepted invalid value")
	}
}

func TestConcurrentTrigger(t *testing.T) {
	e, _ := New(48000)
	buf := ones(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			_ = e.Trigger(i % 128)
		}
	}()

	for range 200 {
		e.ProcessInPlace(buf)
	}
	wg.Wait()

	if a := e.Amplitude(); a < 0 || a > 1 {
		t.Fatalf("amplitude out of range: %v", a)
	}
}
