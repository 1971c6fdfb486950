package fir

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultOrder        = 28
	defaultFreqHz       = 1000.0
	defaultBandwidthHz  = 400.0
	defaultTransitionHz = 300.0
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	spec     Spec
	maxBlock int
}

func defaultConfig(sampleRate float64) config {
	return config{
		spec: Spec{
			Type:         TypeBandpass,
			Order:        defaultOrder,
			FreqHz:       defaultFreqHz,
			BandwidthHz:  defaultBandwidthHz,
			TransitionHz: defaultTransitionHz,
			SampleRate:   sampleRate,
		},
		maxBlock: core.DefaultBlockSize,
	}
}

// WithType sets the response type.
func WithType(t Type) Option {
	return func(cfg *config) error {
		cfg.spec.Type = t
		return nil
	}
}

// WithOrder sets the filter order (taps - 1).
func WithOrder(order int) Option {
	return func(cfg *config) error {
		cfg.spec.Order = order
		return nil
	}
}

// WithFreqHz sets the edge or center frequency.
func WithFreqHz(freqHz float64) Option {
	return func(cfg *config) error {
		cfg.spec.FreqHz = freqHz
		return nil
	}
}

// WithBandwidthHz sets the bandpass/bandstop bandwidth.
func WithBandwidthHz(bandwidthHz float64) Option {
	return func(cfg *config) error {
		cfg.spec.BandwidthHz = bandwidthHz
		return nil
	}
}

// WithTransitionHz sets the transition band width.
func WithTransitionHz(transitionHz float64) Option {
	return func(cfg *config) error {
		cfg.spec.TransitionHz = transitionHz
		return nil
	}
}

// WithMaxBlockSize sets the block size processed without allocation.
func WithMaxBlockSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("fir: max block size must be > 0: %d", n)
		}

		cfg.maxBlock = n

		return nil
	}
}

// Filter is a convolution filter module whose taps are redesigned whenever
// one of its parameters changes. Input history survives redesigns.
type Filter struct {
	conv *ShortConvolver
	spec atomic.Pointer[Spec]
}

var _ core.Module = (*Filter)(nil)

// New designs the initial taps and constructs the filter.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	cfg := defaultConfig(sampleRate)

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	taps, err := Design(cfg.spec)
	if err != nil {
		return nil, err
	}

	conv, err := newShortConvolver(taps, cfg.maxBlock, MaxOrder+1)
	if err != nil {
		return nil, err
	}

	f := &Filter{conv: conv}
	spec := cfg.spec
	f.spec.Store(&spec)

	return f, nil
}

// Spec returns the current design parameters.
func (f *Filter) Spec() Spec { return *f.spec.Load() }

// Taps returns a copy of the current taps.
func (f *Filter) Taps() []float64 { return f.conv.Taps() }

// Mix returns the wet weight.
func (f *Filter) Mix() float64 { return f.conv.Mix() }

// Reserve grows the work buffers for blocks of up to maxBlock samples. It
// must not run concurrently with ProcessTo.
func (f *Filter) Reserve(maxBlock int) { f.conv.Reserve(maxBlock) }

// SetMix sets the wet weight in [0, 1].
func (f *Filter) SetMix(mix float64) error { return f.conv.SetMix(mix) }

// SetType changes the response type and redesigns.
func (f *Filter) SetType(t Type) error {
	return f.update(func(s *Spec) { s.Type = t })
}

// SetOrder changes the order and redesigns.
func (f *Filter) SetOrder(order int) error {
	return f.update(func(s *Spec) { s.Order = order })
}

// SetFreqHz changes the edge or center frequency and redesigns.
func (f *Filter) SetFreqHz(freqHz float64) error {
	return f.update(func(s *Spec) { s.FreqHz = freqHz })
}

// SetBandwidthHz changes the bandwidth and redesigns.
func (f *Filter) SetBandwidthHz(bandwidthHz float64) error {
	return f.update(func(s *Spec) { s.BandwidthHz = bandwidthHz })
}

// SetTransitionHz changes the transition width and redesigns.
func (f *Filter) SetTransitionHz(transitionHz float64) error {
	return f.update(func(s *Spec) { s.TransitionHz = transitionHz })
}

func (f *Filter) update(mutate func(*Spec)) error {
	spec := *f.spec.Load()
	mutate(&spec)

	taps, err := Design(spec)
	if err != nil {
		return err
	}

	if err := f.conv.SetTaps(taps); err != nil {
		return err
	}

	f.spec.Store(&spec)

	return nil
}

// MagnitudeResponse returns the dB magnitude of the current taps.
func (f *Filter) MagnitudeResponse(bins int) ([]float64, error) {
	return MagnitudeResponse(f.conv.Taps(), bins)
}

// Reset clears the convolution history.
func (f *Filter) Reset() { f.conv.Reset() }

// ProcessInPlace filters buf in place.
func (f *Filter) ProcessInPlace(buf []float64) { f.conv.ProcessTo(buf, buf) }

// ProcessTo filters src into dst. Both slices must have the same length.
func (f *Filter) ProcessTo(dst, src []float64) { f.conv.ProcessTo(dst, src) }
