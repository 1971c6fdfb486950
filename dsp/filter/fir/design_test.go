package fir

import (
	"errors"
	"testing"
)

func TestDesignResponses(t *testing.T) {
	const fs = 48000

	tests := []struct {
		name  string
		spec  Spec
		pass  []float64
		stop  []float64
	}{
		{
			name: "lowpass",
			spec: Spec{Type: TypeLowpass, Order: 256, FreqHz: 4000, TransitionHz: 1000, SampleRate: fs},
			pass: []float64{0, 1000, 3900},
			stop: []float64{6000, 12000},
		},
		{
			name: "highpass",
			spec: Spec{Type: TypeHighpass, Order: 256, FreqHz: 4000, TransitionHz: 1000, SampleRate: fs},
			pass: []float64{8000, 20000},
			stop: []float64{1, 2000},
		},
		{
			name: "bandpass",
			spec: Spec{Type: TypeBandpass, Order: 256, FreqHz: 6000, BandwidthHz: 2000, TransitionHz: 1000, SampleRate: fs},
			pass: []float64{6000},
			stop: []float64{1000, 12000},
		},
		{
			name: "bandstop",
			spec: Spec{Type: TypeBandstop, Order: 256, FreqHz: 6000, BandwidthHz: 2000, TransitionHz: 1000, SampleRate: fs},
			pass: []float64{1000, 12000},
			stop: []float64{6000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taps, err := Design(tt.spec)
			if err != nil {
				t.Fatalf("Design: %v", err)
			}
			if len(taps) != tt.spec.Order+1 {
				t.Fatalf("len=%d, want %d", len(taps), tt.spec.Order+1)
			}

			for _, f := range tt.pass {
				if db := MagnitudeDB(taps, f, fs); db < -0.1 || db > 0.1 {
					t.Errorf("passband %v Hz: %v dB", f, db)
				}
			}
			for _, f := range tt.stop {
				if db := MagnitudeDB(taps, f, fs); db > -60 {
					t.Errorf("stopband %v Hz: %v dB", f, db)
				}
			}
		})
	}
}

func TestDesignIsLinearPhase(t *testing.T) {
	taps, err := Design(Spec{Type: TypeBandpass, Order: 28, FreqHz: 1000, BandwidthHz: 400, TransitionHz: 300, SampleRate: 48000})
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	for i := range taps {
		if !almostEqual(taps[i], taps[len(taps)-1-i], 1e-15) {
			t.Fatalf("taps not symmetric at %d: %v vs %v", i, taps[i], taps[len(taps)-1-i])
		}
	}
}

func TestDesignValidation(t *testing.T) {
	base := Spec{Type: TypeLowpass, Order: 32, FreqHz: 1000, BandwidthHz: 400, TransitionHz: 300, SampleRate: 48000}

	tests := []struct {
		name   string
		mutate func(*Spec)
		target error
	}{
		{"zero order", func(s *Spec) { s.Order = 0 }, nil},
		{"huge order", func(s *Spec) { s.Order = MaxOrder + 1 }, nil},
		{"no transition", func(s *Spec) { s.TransitionHz = 0 }, nil},
		{"bad sample rate", func(s *Spec) { s.SampleRate = -1 }, nil},
		{"edge above nyquist", func(s *Spec) { s.FreqHz = 23990 }, ErrBand},
		{"highpass edge below zero", func(s *Spec) { s.Type = TypeHighpass; s.FreqHz = 100 }, ErrBand},
		{"odd highpass", func(s *Spec) { s.Type = TypeHighpass; s.Order = 31 }, nil},
		{"bandpass without bandwidth", func(s *Spec) { s.Type = TypeBandpass; s.BandwidthHz = 0 }, nil},
		{"unknown type", func(s *Spec) { s.Type = Type(9) }, ErrType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)

			_, err := Design(spec)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{TypeLowpass, TypeHighpass, TypeBandpass, TypeBandstop} {
		got, err := ParseType(typ.String())
		if err != nil || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseType("allpass"); !errors.Is(err, ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}
