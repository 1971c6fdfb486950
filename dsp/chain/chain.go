// Package chain composes modules into an ordered processing chain.
//
// Each module runs on a scratch copy of the running signal, and its output
// is blended back by the module's mix weight:
//
//	running = running*(1-mix) + scratch*mix
//
// A mix of 0 leaves the running signal untouched, a mix of 1 replaces it
// with the module output. The order of modules is fixed when the chain is
// built.
package chain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// ErrNilModule is returned when a chain is built with a nil module.
var ErrNilModule = errors.New("chain: nil module")

type config struct {
	maxBlockSize int
}

// Option configures a [Chain].
type Option func(*config) error

// WithMaxBlockSize preallocates scratch space for blocks up to n samples.
// Longer blocks still work but allocate on first use.
func WithMaxBlockSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("chain: max block size must be > 0: %d", n)
		}

		cfg.maxBlockSize = n

		return nil
	}
}

// Chain runs a fixed sequence of modules over a block. It is owned by the
// audio goroutine; the modules' parameters may be changed concurrently.
type Chain struct {
	modules []core.Module
	scratch []float64
}

// New builds a chain from modules in processing order. The chain keeps
// references to the modules, so they can also be reached through a
// parameter tree.
func New(modules []core.Module, opts ...Option) (*Chain, error) {
	cfg := config{maxBlockSize: core.DefaultBlockSize}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	for i, m := range modules {
		if m == nil {
			return nil, fmt.Errorf("%w at position %d", ErrNilModule, i)
		}
	}

	return &Chain{
		modules: append([]core.Module(nil), modules...),
		scratch: make([]float64, cfg.maxBlockSize),
	}, nil
}

// Modules returns the modules in processing order.
func (c *Chain) Modules() []core.Module {
	return append([]core.Module(nil), c.modules...)
}

// Len returns the number of modules.
func (c *Chain) Len() int {
	return len(c.modules)
}

// Process runs every module over block in order, blending each module's
// output into the running signal by its mix weight.
func (c *Chain) Process(block []float64) {
	n := len(block)
	if n == 0 {
		return
	}

	if cap(c.scratch) < n {
		c.scratch = make([]float64, n)
	}

	scratch := c.scratch[:n]

	for _, m := range c.modules {
		copy(scratch, block)
		m.ProcessTo(scratch, scratch)

		mix := m.Mix()

		switch {
		case mix <= 0:
			// module state advanced, output discarded
		case mix >= 1:
			copy(block, scratch)
		default:
			vecmath.ScaleBlock(block, block, 1-mix)
			vecmath.ScaleBlock(scratch, scratch, mix)
			vecmath.AddBlockInPlace(block, scratch)
		}
	}
}
