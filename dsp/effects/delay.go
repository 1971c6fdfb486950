package effects

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/delay"
)

const (
	defaultDelayMaxSeconds = 1.0
	defaultDelayPreset     = "chorus"
)

// ErrPreset is returned for an unknown delay preset name.
var ErrPreset = errors.New("effects: unknown delay preset")

// DelayPreset is a named delay setting. Times are in seconds.
type DelayPreset struct {
	FixedSeconds float64
	ModSeconds   float64
	RateHz       float64
	Mix          float64
	Feedback     float64
}

var delayPresets = map[string]DelayPreset{
	"vibrato":          {FixedSeconds: 0.005, ModSeconds: 0.005, RateHz: 1, Mix: 1},
	"flanger":          {FixedSeconds: 0.002, ModSeconds: 0.002, RateHz: 0.2, Mix: 0.5},
	"flanger_feedback": {FixedSeconds: 0.002, ModSeconds: 0.002, RateHz: 0.2, Mix: 0.5, Feedback: 0.7},
	"chorus":           {FixedSeconds: 0.002, ModSeconds: 0.002, RateHz: 1.5, Mix: 0.4},
	"chorus_feedback":  {FixedSeconds: 0.002, ModSeconds: 0.002, RateHz: 1.5, Mix: 0.4, Feedback: 0.7},
	"slapback":         {FixedSeconds: 0.02, Mix: 0.5},
	"echo":             {FixedSeconds: 0.05, Mix: 0.5},
}

// DelayPresets returns the preset names in sorted order.
func DelayPresets() []string {
	names := make([]string, 0, len(delayPresets))
	for name := range delayPresets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// LookupDelayPreset returns the named preset.
func LookupDelayPreset(name string) (DelayPreset, error) {
	p, ok := delayPresets[name]
	if !ok {
		return DelayPreset{}, fmt.Errorf("%w: %q", ErrPreset, name)
	}

	return p, nil
}

// delayShape is the immutable LFO setting read once per block.
type delayShape struct {
	fixedSeconds float64
	modSeconds   float64
	rateHz       float64
}

// DelayOption mutates delay construction parameters.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	maxSeconds float64
	preset     string
}

// WithDelayMaxSeconds sets the delay line capacity (default 1 s).
func WithDelayMaxSeconds(seconds float64) DelayOption {
	return func(cfg *delayConfig) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("delay capacity must be > 0 and finite: %f", seconds)
		}
		cfg.maxSeconds = seconds
		return nil
	}
}

// WithDelayPreset selects the initial preset (default "chorus").
func WithDelayPreset(name string) DelayOption {
	return func(cfg *delayConfig) error {
		if _, err := LookupDelayPreset(name); err != nil {
			return err
		}
		cfg.preset = name
		return nil
	}
}

// Delay is a modulated delay. Sample i of a block is delayed by
//
//	(fixed + mod*sin(phase_i)) * sampleRate
//
// samples, where the LFO phase advances by 2*pi*rate/sampleRate per sample.
// With mod 0 the output comes from a fixed line, rounded to whole samples.
// Both lines see every input, so switching between them keeps the echo tail.
type Delay struct {
	core.Wet

	sampleRate float64
	maxSeconds float64
	line       *delay.Modulated
	static     *delay.Line
	shape      atomic.Pointer[delayShape]
	preset     atomic.Pointer[string]

	// serializes read-modify-write of shape
	mu sync.Mutex

	// owned by the processing goroutine
	lfoPhase float64
	delays   [chunk]float64
	spare    [chunk]float64
}

var _ core.Module = (*Delay)(nil)

// NewDelay creates a modulated delay loaded with a preset.
func NewDelay(sampleRate float64, opts ...DelayOption) (*Delay, error) {
	cfg := delayConfig{maxSeconds: defaultDelayMaxSeconds, preset: defaultDelayPreset}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	line, err := delay.NewModulated(sampleRate, cfg.maxSeconds)
	if err != nil {
		return nil, err
	}

	static, err := delay.NewLine(sampleRate, cfg.maxSeconds)
	if err != nil {
		return nil, err
	}

	d := &Delay{sampleRate: sampleRate, maxSeconds: cfg.maxSeconds, line: line, static: static}
	if err := d.SetPreset(cfg.preset); err != nil {
		return nil, err
	}

	return d, nil
}

// SampleRate returns sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// Preset returns the name of the last preset applied.
func (d *Delay) Preset() string { return *d.preset.Load() }

// FixedSeconds returns the centre delay time.
func (d *Delay) FixedSeconds() float64 { return d.shape.Load().fixedSeconds }

// ModSeconds returns the LFO depth in seconds.
func (d *Delay) ModSeconds() float64 { return d.shape.Load().modSeconds }

// RateHz returns the LFO rate.
func (d *Delay) RateHz() float64 { return d.shape.Load().rateHz }

// Feedback returns the feedback gain.
func (d *Delay) Feedback() float64 { return d.line.Feedback() }

// SetPreset applies a named preset, including its mix and feedback.
func (d *Delay) SetPreset(name string) error {
	p, err := LookupDelayPreset(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	shape := delayShape{fixedSeconds: p.FixedSeconds, modSeconds: p.ModSeconds, rateHz: p.RateHz}
	if err := d.validateShape(shape); err != nil {
		return err
	}

	if err := d.SetFeedback(p.Feedback); err != nil {
		return err
	}

	if err := d.SetMix(p.Mix); err != nil {
		return err
	}

	d.store(shape)
	d.preset.Store(&name)

	return nil
}

// SetFixedSeconds sets the centre delay time.
func (d *Delay) SetFixedSeconds(seconds float64) error {
	return d.update(func(s *delayShape) { s.fixedSeconds = seconds })
}

// SetModSeconds sets the LFO depth in seconds.
func (d *Delay) SetModSeconds(seconds float64) error {
	return d.update(func(s *delayShape) { s.modSeconds = seconds })
}

// SetRateHz sets the LFO rate.
func (d *Delay) SetRateHz(rateHz float64) error {
	return d.update(func(s *delayShape) { s.rateHz = rateHz })
}

// SetFeedback sets the feedback gain in [0, 1).
func (d *Delay) SetFeedback(feedback float64) error {
	if err := d.line.SetFeedback(feedback); err != nil {
		return err
	}

	return d.static.SetFeedback(feedback)
}

// store publishes shape and retunes the fixed line. The caller holds mu.
func (d *Delay) store(shape delayShape) {
	samples := int(math.Round(shape.fixedSeconds * d.sampleRate))
	// validateShape keeps fixed within the shared capacity
	_ = d.static.SetDelaySamples(min(max(samples, 1), d.static.Capacity()))
	d.shape.Store(&shape)
}

func (d *Delay) update(apply func(*delayShape)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	shape := *d.shape.Load()
	apply(&shape)

	if err := d.validateShape(shape); err != nil {
		return err
	}

	d.store(shape)

	return nil
}

func (d *Delay) validateShape(s delayShape) error {
	for _, v := range []float64{s.fixedSeconds, s.modSeconds, s.rateHz} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("delay times and rate must be >= 0 and finite: %+v", s)
		}
	}

	if s.fixedSeconds+s.modSeconds > d.maxSeconds {
		return fmt.Errorf("delay fixed+mod must be <= %g s: %f", d.maxSeconds, s.fixedSeconds+s.modSeconds)
	}

	return nil
}

// Reset clears the lines and restarts the LFO.
func (d *Delay) Reset() {
	d.line.Reset()
	d.static.Reset()
	d.lfoPhase = 0
}

// ProcessTo writes the delayed signal of src to dst. Both slices must have
// the same length and may alias.
func (d *Delay) ProcessTo(dst, src []float64) {
	s := d.shape.Load()
	fixed := s.fixedSeconds * d.sampleRate
	mod := s.modSeconds * d.sampleRate
	step := 2 * math.Pi * s.rateHz / d.sampleRate
	static := s.modSeconds == 0

	for start := 0; start < len(src); start += chunk {
		end := min(start+chunk, len(src))
		delays := d.delays[:end-start]

		for i := range delays {
			delays[i] = fixed + mod*math.Sin(d.lfoPhase)
			d.lfoPhase += step
			if d.lfoPhase >= 2*math.Pi {
				d.lfoPhase -= 2 * math.Pi
			}
		}

		spare := d.spare[:end-start]
		if static {
			d.line.ProcessModulated(spare, src[start:end], delays)
			d.static.ProcessTo(dst[start:end], src[start:end])
		} else {
			d.static.ProcessTo(spare, src[start:end])
			d.line.ProcessModulated(dst[start:end], src[start:end], delays)
		}
	}
}
