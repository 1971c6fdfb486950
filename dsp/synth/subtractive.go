// Package synth provides synthesizer voices built from the oscillator and
// filter packages.
package synth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/filter/svf"
	"github.com/cwbudde/algo-synth/dsp/osc"
)

const (
	defaultFreqHz = 55.0
	// cutoffRatio places the initial filter cutoff at this multiple of the
	// voice frequency.
	cutoffRatio      = 10.0
	defaultResonance = 1.0
)

// ErrSource is returned for an unknown oscillator source.
var ErrSource = errors.New("synth: unknown source")

// Source selects the raw waveform fed into the filter.
type Source int

const (
	// SourceSawtooth is a band-limited sawtooth.
	SourceSawtooth Source = iota
	// SourceSquare is a band-limited square wave.
	SourceSquare
	// SourceNoise is uniform white noise.
	SourceNoise
	// SourceSine is a single sine partial at the voice frequency.
	SourceSine

	sourceCount
)

var sourceNames = [sourceCount]string{"sawtooth", "square", "noise", "sine"}

// String returns the lower-case source name.
func (s Source) String() string {
	if s >= 0 && s < sourceCount {
		return sourceNames[s]
	}

	return fmt.Sprintf("Source(%d)", int(s))
}

// ParseSource maps "sawtooth", "square", "noise" or "sine" to a Source.
func ParseSource(name string) (Source, error) {
	for i, n := range sourceNames {
		if strings.EqualFold(n, name) {
			return Source(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrSource, name)
}

// Option configures a [Subtractive] voice.
type Option func(*config) error

type config struct {
	freqHz float64
	source Source
	seed   uint64
}

// WithFreqHz sets the oscillator frequency (default 55 Hz).
func WithFreqHz(freqHz float64) Option {
	return func(cfg *config) error {
		cfg.freqHz = freqHz
		return nil
	}
}

// WithSource sets the oscillator source (default sawtooth).
func WithSource(source Source) Option {
	return func(cfg *config) error {
		if source < 0 || source >= sourceCount {
			return fmt.Errorf("%w: %d", ErrSource, int(source))
		}

		cfg.source = source

		return nil
	}
}

// WithSeed seeds the noise source.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// Subtractive is a harmonically rich source followed by a resonant
// state-variable filter. The filter starts as a lowpass at ten times the
// voice frequency.
type Subtractive struct {
	core.Wet

	sampleRate float64
	freqHz     core.AtomicFloat
	source     atomic.Int32

	saw    *osc.Additive
	square *osc.Additive
	sine   *osc.Additive
	noise  *osc.Noise
	filter *svf.Filter

	// serializes frequency rebuilds
	mu sync.Mutex
}

var _ core.Module = (*Subtractive)(nil)

// NewSubtractive creates a voice with mix 1.
func NewSubtractive(sampleRate float64, opts ...Option) (*Subtractive, error) {
	cfg := config{freqHz: defaultFreqHz, source: SourceSawtooth}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	saw, square, err := partialSets(sampleRate, cfg.freqHz)
	if err != nil {
		return nil, err
	}

	s := &Subtractive{sampleRate: sampleRate, noise: osc.NewNoise(cfg.seed)}

	if s.saw, err = osc.NewAdditive(sampleRate, saw); err != nil {
		return nil, err
	}

	if s.square, err = osc.NewAdditive(sampleRate, square); err != nil {
		return nil, err
	}

	if s.sine, err = osc.NewAdditive(sampleRate, sinePartial(cfg.freqHz)); err != nil {
		return nil, err
	}

	s.filter, err = svf.New(sampleRate,
		svf.WithCutoffHz(min(cfg.freqHz*cutoffRatio, svf.MaxCutoffHz(sampleRate, defaultResonance))),
		svf.WithResonance(defaultResonance),
		svf.WithMode(svf.ModeLowpass),
	)
	if err != nil {
		return nil, err
	}

	s.freqHz.Store(cfg.freqHz)
	s.source.Store(int32(cfg.source))
	_ = s.SetMix(1)

	return s, nil
}

func sinePartial(freqHz float64) []osc.Partial {
	return []osc.Partial{{FreqHz: freqHz, Amplitude: 1}}
}

func partialSets(sampleRate, freqHz float64) (saw, square []osc.Partial, err error) {
	saw, err = osc.Sawtooth(sampleRate, freqHz)
	if err != nil {
		return nil, nil, fmt.Errorf("synth: %w", err)
	}

	square, err = osc.Square(sampleRate, freqHz)
	if err != nil {
		return nil, nil, fmt.Errorf("synth: %w", err)
	}

	return saw, square, nil
}

// SampleRate returns the sample rate in Hz.
func (s *Subtractive) SampleRate() float64 { return s.sampleRate }

// FreqHz returns the oscillator frequency.
func (s *Subtractive) FreqHz() float64 { return s.freqHz.Load() }

// Source returns the selected oscillator source.
func (s *Subtractive) Source() Source { return Source(s.source.Load()) }

// Filter returns the embedded filter, so its cutoff, resonance and mode can
// be changed directly.
func (s *Subtractive) Filter() *svf.Filter { return s.filter }

// SetFreqHz rebuilds the band-limited partial sets for a new frequency. The
// filter cutoff is left alone.
func (s *Subtractive) SetFreqHz(freqHz float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saw, square, err := partialSets(s.sampleRate, freqHz)
	if err != nil {
		return err
	}

	// both sets are already validated
	_ = s.saw.SetPartials(saw)
	_ = s.square.SetPartials(square)
	_ = s.sine.SetPartials(sinePartial(freqHz))
	s.freqHz.Store(freqHz)

	return nil
}

// SetSource selects the oscillator source.
func (s *Subtractive) SetSource(source Source) error {
	if source < 0 || source >= sourceCount {
		return fmt.Errorf("%w: %d", ErrSource, int(source))
	}

	s.source.Store(int32(source))

	return nil
}

// Reset clears oscillator phases and filter state.
func (s *Subtractive) Reset() {
	s.saw.Reset()
	s.square.Reset()
	s.sine.Reset()
	s.filter.Reset()
}

// ProcessTo renders the filtered source into dst. src is ignored.
func (s *Subtractive) ProcessTo(dst, src []float64) {
	switch s.Source() {
	case SourceSquare:
		s.square.ProcessTo(dst, src)
	case SourceNoise:
		s.noise.ProcessTo(dst, src)
	case SourceSine:
		s.sine.ProcessTo(dst, src)
	default:
		s.saw.ProcessTo(dst, src)
	}

	s.filter.ProcessInPlace(dst)
}
