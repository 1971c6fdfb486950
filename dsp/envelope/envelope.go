// Package envelope provides a two-phase attack/decay amplitude envelope
// driven by discrete trigger events.
package envelope

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultAttackSeconds = 0.01
	defaultDecaySeconds  = 0.3

	// MaxVelocity is the largest trigger velocity; it maps to amplitude 1.
	MaxVelocity = 127

	noTrigger = -1
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	attack float64
	decay  float64
}

// WithAttack sets the attack time in seconds (> 0).
func WithAttack(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateTime("attack", seconds); err != nil {
			return err
		}

		cfg.attack = seconds

		return nil
	}
}

// WithDecay sets the decay time in seconds (> 0).
func WithDecay(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateTime("decay", seconds); err != nil {
			return err
		}

		cfg.decay = seconds

		return nil
	}
}

func validateTime(name string, seconds float64) error {
	if !core.IsFinite(seconds) || seconds <= 0 {
		return fmt.Errorf("envelope: %s must be > 0 and finite: %f", name, seconds)
	}

	return nil
}

// Envelope multiplies its input by an amplitude that ramps linearly up to
// velocity/127 after a trigger and then linearly back down to zero.
//
// Trigger may be called from any goroutine. A trigger is observed at the
// start of the next ProcessTo call; of several triggers between two calls,
// only the last one counts.
type Envelope struct {
	core.Wet

	sampleRate float64
	attack     core.AtomicFloat
	decay      core.AtomicFloat
	pending    atomic.Int32

	// audio goroutine state
	amp       float64
	attacking bool
	velocity  int

	// snapshots for readers on other goroutines
	ampOut       core.AtomicFloat
	attackingOut atomic.Bool
	velocityOut  atomic.Int32
}

var _ core.Module = (*Envelope)(nil)

// New constructs an envelope at rest.
func New(sampleRate float64, opts ...Option) (*Envelope, error) {
	if err := core.ValidateSampleRate("envelope", sampleRate); err != nil {
		return nil, err
	}

	cfg := config{attack: defaultAttackSeconds, decay: defaultDecaySeconds}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &Envelope{sampleRate: sampleRate}
	e.attack.Store(cfg.attack)
	e.decay.Store(cfg.decay)
	e.pending.Store(noTrigger)
	_ = e.SetMix(1)

	return e, nil
}

// SampleRate returns the sample rate in Hz.
func (e *Envelope) SampleRate() float64 { return e.sampleRate }

// Attack returns the attack time in seconds.
func (e *Envelope) Attack() float64 { return e.attack.Load() }

// Decay returns the decay time in seconds.
func (e *Envelope) Decay() float64 { return e.decay.Load() }

// SetAttack sets the attack time in seconds.
func (e *Envelope) SetAttack(seconds float64) error {
	if err := validateTime("attack", seconds); err != nil {
		return err
	}

	e.attack.Store(seconds)

	return nil
}

// SetDecay sets the decay time in seconds.
func (e *Envelope) SetDecay(seconds float64) error {
	if err := validateTime("decay", seconds); err != nil {
		return err
	}

	e.decay.Store(seconds)

	return nil
}

// Trigger starts a new attack towards velocity/127 at the next block.
func (e *Envelope) Trigger(velocity int) error {
	if velocity < 0 || velocity > MaxVelocity {
		return fmt.Errorf("envelope: velocity must be in [0, %d]: %d", MaxVelocity, velocity)
	}

	e.pending.Store(int32(velocity))

	return nil
}

// Amplitude returns the amplitude at the end of the last block.
func (e *Envelope) Amplitude() float64 { return e.ampOut.Load() }

// Attacking reports whether the last block ended in the attack phase.
func (e *Envelope) Attacking() bool { return e.attackingOut.Load() }

// Velocity returns the velocity of the last observed trigger.
func (e *Envelope) Velocity() int { return int(e.velocityOut.Load()) }

// Reset silences the envelope and drops any pending trigger.
func (e *Envelope) Reset() {
	e.pending.Store(noTrigger)
	e.amp, e.attacking, e.velocity = 0, false, 0
	e.publish()
}

// ProcessInPlace applies the envelope to buf in place.
func (e *Envelope) ProcessInPlace(buf []float64) {
	e.ProcessTo(buf, buf)
}

// ProcessTo writes src scaled by the envelope to dst. Both slices must have
// the same length and may alias.
func (e *Envelope) ProcessTo(dst, src []float64) {
	if v := e.pending.Swap(noTrigger); v != noTrigger {
		e.attacking = true
		e.velocity = int(v)
	}

	n := len(src)
	if n > 0 {
		_ = dst[n-1]

		target := float64(e.velocity) / MaxVelocity
		up := target / (e.attack.Load() * e.sampleRate)
		down := target / (e.decay.Load() * e.sampleRate)
		amp, attacking := e.amp, e.attacking

		for i, x := range src {
			if attacking {
				if amp < target {
					amp += up
					if amp > target {
						amp = target
					}
				} else {
					attacking = false
				}
			} else {
				if amp > 0 {
					amp -= down
				}
				if amp < 0 {
					amp = 0
				}
			}

			dst[i] = x * amp
		}

		e.amp, e.attacking = amp, attacking
	}

	e.publish()
}

func (e *Envelope) publish() {
	e.ampOut.Store(e.amp)
	e.attackingOut.Store(e.attacking)
	e.velocityOut.Store(int32(e.velocity))
}
