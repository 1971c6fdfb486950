// Package engine runs a chain of synthesis and effect modules at a fixed
// internal sample rate and delivers resampled, quantized blocks to an audio
// device or a WAV file.
//
// Per output block the engine sizes its source buffer with the resampler,
// clears it, fills it through the chain, resamples it to the external rate and
// quantizes the result in place.
package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-synth/dsp/chain"
	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/resample"
	"github.com/cwbudde/algo-synth/internal/device"
	"github.com/cwbudde/algo-synth/internal/log"
	"github.com/cwbudde/algo-synth/param"
)

// ErrNotRunning is returned by Stop when no stream is open.
var ErrNotRunning = errors.New("engine: stream not running")

// ErrRunning is returned by Start when the stream is already open.
var ErrRunning = errors.New("engine: stream already running")

// Device is an open output stream.
type Device interface {
	Start() error
	Stop() error
	Close() error
}

// OpenFunc opens an output stream that calls cb once per block of
// blockSize frames at sampleRate.
type OpenFunc func(sampleRate float64, blockSize int, cb func(out []float32)) (Device, error)

func openPortAudio(sampleRate float64, blockSize int, cb func(out []float32)) (Device, error) {
	stream, err := device.Open(sampleRate, blockSize, cb)
	if err != nil {
		return nil, err
	}

	return stream, nil
}

// Engine owns the modules, the chain, the resampler and the quantizer.
//
// Control methods are safe for concurrent use and serialize on a mutex the
// audio callback never takes. Callback itself must only be called from one
// goroutine at a time.
type Engine struct {
	logger log.Logger
	open   OpenFunc
	rack   *rack
	order  []string
	params *param.Tree

	mu      sync.Mutex
	cfg     Config
	stream  Device
	session string

	// owned by the audio goroutine while a stream runs
	chain     *chain.Chain
	resampler *resample.Resampler
	source    []float64
	out       []float64
}

// New builds the modules and the processing state.
func New(opts ...Option) (*Engine, error) {
	o := options{cfg: DefaultConfig(), open: openPortAudio}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	if o.logger == nil {
		o.logger = log.New()
	}

	e := &Engine{
		logger: o.logger,
		open:   o.open,
		cfg:    o.cfg,
		order:  o.cfg.chainOrder(),
	}

	maxSource := sourceBufferSize(o.cfg)

	r, err := newRack(o.cfg, maxSource)
	if err != nil {
		return nil, err
	}

	e.rack = r

	groups := append(r.groups(), e.engineGroup())

	if e.params, err = param.NewTree(groups...); err != nil {
		return nil, err
	}

	if err := e.setup(o.cfg); err != nil {
		return nil, err
	}

	return e, nil
}

// sourceBufferSize returns the largest source block a configuration needs.
func sourceBufferSize(cfg Config) int {
	ratio := cfg.InternalRate / cfg.ExternalRate
	return int(math.Ceil(ratio*float64(cfg.BlockSize))) + 3
}

// setup rebuilds the rate-dependent state. The stream must not be running.
func (e *Engine) setup(cfg Config) error {
	rs, err := resample.New(cfg.InternalRate, cfg.ExternalRate, cfg.Kernel)
	if err != nil {
		return err
	}

	source := rs.MakeSourceBuffer(cfg.BlockSize)

	modules, err := e.rack.modules(e.order)
	if err != nil {
		return err
	}

	ch, err := chain.New(modules, chain.WithMaxBlockSize(len(source)))
	if err != nil {
		return err
	}

	e.rack.convfilter.Reserve(len(source))

	e.cfg = cfg
	e.resampler = rs
	e.source = source
	e.chain = ch
	e.out = make([]float64, cfg.BlockSize)

	e.logger.WithFields(logrus.Fields{
		"internal_rate": cfg.InternalRate,
		"external_rate": cfg.ExternalRate,
		"block_size":    cfg.BlockSize,
		"kernel":        cfg.Kernel.String(),
	}).Infof("engine: setup")

	return nil
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cfg
}

// Params returns the parameter tree over all modules and the engine.
func (e *Engine) Params() *param.Tree { return e.params }

// Chain returns the names of the chained modules in processing order.
func (e *Engine) Chain() []string { return append([]string(nil), e.order...) }

// Callback fills out with the next len(out) frames at the external rate.
// It performs no allocation for blocks up to the configured block size.
func (e *Engine) Callback(out []float32) {
	for len(out) > 0 {
		n := min(len(out), len(e.out))
		block := e.out[:n]
		e.process(block)
		core.ToFloat32(out, block)

		out = out[n:]
	}
}

// process renders one block of at most BlockSize frames.
func (e *Engine) process(out []float64) {
	src := e.source[:e.resampler.SourceBlockSize(len(out))]
	core.Zero(src)
	e.chain.Process(src)
	e.resampler.Process(out, src)
	e.rack.quantizer.ProcessInPlace(out)
}

// Running reports whether a stream is open.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stream != nil
}

// Start opens the output device and begins playback.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream != nil {
		return ErrRunning
	}

	return e.startLocked()
}

func (e *Engine) startLocked() error {
	stream, err := e.open(e.cfg.ExternalRate, e.cfg.BlockSize, e.Callback)
	if err != nil {
		return fmt.Errorf("engine: open device: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("engine: start stream: %w", err)
	}

	e.stream = stream
	e.session = xid.New().String()
	e.logger.WithField("session", e.session).Infof("engine: stream started at %g Hz", e.cfg.ExternalRate)

	return nil
}

// Stop halts playback and closes the device.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return ErrNotRunning
	}

	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	stream := e.stream
	e.stream = nil

	err := errors.Join(stream.Stop(), stream.Close())
	e.logger.WithField("session", e.session).Infof("engine: stream stopped")
	e.session = ""

	if err != nil {
		return fmt.Errorf("engine: stop stream: %w", err)
	}

	return nil
}

// Close stops the stream if it runs.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return nil
	}

	return e.stopLocked()
}

// reconfigure stops a running stream, applies cfg and restarts.
func (e *Engine) reconfigure(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}

	restart := e.stream != nil
	if restart {
		e.logger.Infof("engine: stopping the stream to apply the new setup")

		if err := e.stopLocked(); err != nil {
			return err
		}
	}

	if err := e.setup(cfg); err != nil {
		return err
	}

	if restart {
		return e.startLocked()
	}

	return nil
}

// SampleRate returns the external sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.Config().ExternalRate }

// SetSampleRate changes the external sample rate, restarting a running
// stream.
func (e *Engine) SetSampleRate(rate float64) error {
	cfg := e.Config()
	cfg.ExternalRate = rate

	return e.reconfigure(cfg)
}

// BlockSize returns the frames per output block.
func (e *Engine) BlockSize() int { return e.Config().BlockSize }

// SetBlockSize changes the frames per output block, restarting a running
// stream.
func (e *Engine) SetBlockSize(n int) error {
	cfg := e.Config()
	cfg.BlockSize = n

	return e.reconfigure(cfg)
}

// SetKernel changes the resampling kernel, restarting a running stream.
func (e *Engine) SetKernel(k resample.Kernel) error {
	cfg := e.Config()
	cfg.Kernel = k

	return e.reconfigure(cfg)
}

// Trigger starts the envelope with velocity in [0, 127].
func (e *Engine) Trigger(velocity int) error {
	return e.rack.envelope.Trigger(velocity)
}

// NoteOn tunes the subtractive voice to the MIDI pitch and triggers the
// envelope.
func (e *Engine) NoteOn(pitch, velocity int) error {
	if pitch < 0 || pitch > 127 {
		return fmt.Errorf("engine: pitch must be in [0, 127]: %d", pitch)
	}

	if err := e.rack.subtractive.SetFreqHz(PitchHz(pitch)); err != nil {
		return err
	}

	return e.Trigger(velocity)
}

// PitchHz converts a MIDI pitch to Hz with A4 (69) at 440 Hz.
func PitchHz(pitch int) float64 {
	return 440 * math.Exp2(float64(pitch-69)/12)
}

func (e *Engine) engineGroup() *param.Group {
	return param.NewGroup("engine").MustAdd(
		param.NewFloat("samplerate", "Hz", e.SampleRate, e.SetSampleRate),
		param.NewInt("blocksize", e.BlockSize, e.SetBlockSize),
		param.NewChoice("kernel", kernelOptions,
			func() string { return e.Config().Kernel.String() },
			func(v string) error {
				k, err := resample.ParseKernel(v)
				if err != nil {
					return err
				}

				return e.SetKernel(k)
			}),
	)
}
