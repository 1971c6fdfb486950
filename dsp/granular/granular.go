package granular

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/interp"
	"github.com/cwbudde/algo-synth/dsp/window"
)

const (
	defaultGrainSeconds = 0.1
	defaultSpeed        = 1.0
	defaultSeed         = 1

	minGrainSamples = 2

	// reverseStart places time just inside the last interpolation interval
	// of a grain entered from its end.
	reverseStart = 1e-5
)

// ErrSource is returned when the source waveform is too short to grain.
var ErrSource = errors.New("granular: source must hold at least 2 finite samples")

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	grainSeconds float64
	speed        float64
	overlap      bool
	seed         uint64
}

// WithGrainSeconds sets the longest grain duration in seconds.
func WithGrainSeconds(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateGrainSeconds(seconds); err != nil {
			return err
		}

		cfg.grainSeconds = seconds

		return nil
	}
}

// WithSpeed sets the playback speed. Negative values play grains backwards.
func WithSpeed(speed float64) Option {
	return func(cfg *config) error {
		if !core.IsFinite(speed) {
			return fmt.Errorf("granular: speed must be finite: %f", speed)
		}

		cfg.speed = speed

		return nil
	}
}

// WithOverlap lets consecutive grains overlap in the source.
func WithOverlap(overlap bool) Option {
	return func(cfg *config) error {
		cfg.overlap = overlap
		return nil
	}
}

// WithSeed seeds grain cutting and grain selection.
func WithSeed(seed uint64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

func validateGrainSeconds(seconds float64) error {
	if !core.IsFinite(seconds) || seconds <= 0 {
		return fmt.Errorf("granular: grain seconds must be > 0 and finite: %f", seconds)
	}

	return nil
}

// table is an immutable set of grains.
type table struct {
	grains       [][]float64
	grainSeconds float64
	overlap      bool
}

// Player is a granular source module. It ignores its input.
type Player struct {
	core.Wet

	sampleRate float64
	sourceRate float64
	source     []float64
	speed      core.AtomicFloat
	table      atomic.Pointer[table]

	mu      sync.Mutex // serializes table rebuilds
	cutRNG  *rand.Rand
	playRNG *rand.Rand

	// audio goroutine state
	loaded  *table
	current []float64
	time    float64
}

var _ core.Module = (*Player)(nil)

// New cuts source, sampled at sourceRate, into grains for playback at
// sampleRate. The source is copied.
func New(sampleRate float64, source []float64, sourceRate float64, opts ...Option) (*Player, error) {
	if err := core.ValidateSampleRate("granular", sampleRate); err != nil {
		return nil, err
	}

	if err := core.ValidateSampleRate("granular", sourceRate); err != nil {
		return nil, err
	}

	if len(source) < minGrainSamples {
		return nil, fmt.Errorf("%w: got %d", ErrSource, len(source))
	}

	for i, v := range source {
		if !core.IsFinite(v) {
			return nil, fmt.Errorf("%w: sample %d is %v", ErrSource, i, v)
		}
	}

	cfg := config{grainSeconds: defaultGrainSeconds, speed: defaultSpeed, seed: defaultSeed}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	p := &Player{
		sampleRate: sampleRate,
		sourceRate: sourceRate,
		source:     append([]float64(nil), source...),
		cutRNG:     rand.New(rand.NewPCG(cfg.seed, 1)),
		playRNG:    rand.New(rand.NewPCG(cfg.seed, 2)),
	}
	p.speed.Store(cfg.speed)
	p.rebuild(cfg.grainSeconds, cfg.overlap)
	_ = p.SetMix(1)

	return p, nil
}

// SampleRate returns the processing sample rate in Hz.
func (p *Player) SampleRate() float64 { return p.sampleRate }

// SourceRate returns the source sample rate in Hz.
func (p *Player) SourceRate() float64 { return p.sourceRate }

// Speed returns the playback speed.
func (p *Player) Speed() float64 { return p.speed.Load() }

// GrainSeconds returns the longest grain duration in seconds.
func (p *Player) GrainSeconds() float64 { return p.table.Load().grainSeconds }

// Overlap reports whether grains may overlap in the source.
func (p *Player) Overlap() bool { return p.table.Load().overlap }

// Grains returns the number of grains in the current table.
func (p *Player) Grains() int { return len(p.table.Load().grains) }

// SetSpeed sets the playback speed.
func (p *Player) SetSpeed(speed float64) error {
	if !core.IsFinite(speed) {
		return fmt.Errorf("granular: speed must be finite: %f", speed)
	}

	p.speed.Store(speed)

	return nil
}

// SetGrainSeconds re-cuts the source with a new longest grain duration.
func (p *Player) SetGrainSeconds(seconds float64) error {
	if err := validateGrainSeconds(seconds); err != nil {
		return err
	}

	p.rebuild(seconds, p.Overlap())

	return nil
}

// SetOverlap re-cuts the source with or without overlapping grains.
func (p *Player) SetOverlap(overlap bool) error {
	p.rebuild(p.GrainSeconds(), overlap)
	return nil
}

func (p *Player) rebuild(grainSeconds float64, overlap bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.table.Store(cut(p.source, grainSeconds, p.sampleRate, overlap, p.cutRNG))
}

// cut partitions source into Hann-windowed grains whose lengths are uniform
// in [2, grainSeconds*sampleRate]. Without overlap each grain starts where
// the previous one ended; with overlap the hop is uniform in [1, length].
func cut(source []float64, grainSeconds, sampleRate float64, overlap bool, rng *rand.Rand) *table {
	maxLen := max(int(grainSeconds*sampleRate), minGrainSamples)
	t := &table{grainSeconds: grainSeconds, overlap: overlap}

	for start := 0; start < len(source); {
		length := min(minGrainSamples+rng.IntN(maxLen-minGrainSamples+1), len(source)-start)
		if length < minGrainSamples {
			break
		}

		g := append([]float64(nil), source[start:start+length]...)
		_ = window.Taper(g, window.Hann(length))
		t.grains = append(t.grains, g)

		hop := length
		if overlap {
			hop = 1 + rng.IntN(length)
		}

		start += hop
	}

	return t
}

// Reset restarts playback on a fresh grain.
func (p *Player) Reset() {
	p.loaded = nil
	p.current = nil
	p.time = 0
}

// ProcessTo writes len(dst) granular samples to dst. src is ignored.
func (p *Player) ProcessTo(dst, _ []float64) {
	if len(dst) == 0 {
		return
	}

	if t := p.table.Load(); t != p.loaded {
		p.loaded = t
		p.current = p.pick()
		p.time = 0
	}

	step := p.speed.Load() * p.sourceRate / p.sampleRate
	g, tm := p.current, p.time

	for i := range dst {
		switch {
		case tm < 0:
			g = p.pick()
			tm = float64(len(g)-1) - reverseStart
		case tm >= float64(len(g)-1):
			g = p.pick()
			tm = 0
		}

		idx := int(math.Floor(tm))
		dst[i] = interp.Linear2(tm-float64(idx), g[idx], g[idx+1])
		tm += step
	}

	p.current, p.time = g, tm
}

func (p *Player) pick() []float64 {
	grains := p.loaded.grains
	return grains[p.playRNG.IntN(len(grains))]
}
