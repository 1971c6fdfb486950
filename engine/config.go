package engine

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/dither"
	"github.com/cwbudde/algo-synth/dsp/resample"
	"github.com/cwbudde/algo-synth/internal/log"
)

const (
	DefaultInternalRate = 48000.0
	DefaultExternalRate = 44100.0
	DefaultBlockSize    = core.DefaultBlockSize
	DefaultBitDepth     = 16

	// MaxBlockSize bounds the frames per callback.
	MaxBlockSize = 1 << 14
)

// Module names usable with WithChain.
const (
	ModuleSubtractive = "subtractive"
	ModuleGranular    = "granular"
	ModuleMoog        = "moog"
	ModuleConvFilter  = "convfilter"
	ModuleEnvelope    = "envelope"
	ModuleAutoWah     = "autowah"
	ModuleDelay       = "delay"
	ModuleTremolo     = "tremolo"
)

// defaultChain lists the chain order used without WithChain. Modules after
// the filters start with a mix of 0.
var defaultChain = []string{
	ModuleSubtractive,
	ModuleMoog,
	ModuleConvFilter,
	ModuleEnvelope,
	ModuleAutoWah,
	ModuleDelay,
	ModuleTremolo,
}

// Config holds the engine setup. The internal rate is fixed for the
// lifetime of an engine; the external rate and block size can change.
type Config struct {
	InternalRate float64
	ExternalRate float64
	BlockSize    int
	Kernel       resample.Kernel
	BitDepth     int
	Dither       dither.DitherType

	// Chain is the module order. Empty selects the default chain.
	Chain []string

	// GranularSource is an optional WAV file feeding the granular player.
	GranularSource string

	// Seed drives the noise source, the grain picker and the dither.
	// Zero picks a random seed.
	Seed uint64
}

// DefaultConfig returns the configuration used by New without options.
func DefaultConfig() Config {
	return Config{
		InternalRate: DefaultInternalRate,
		ExternalRate: DefaultExternalRate,
		BlockSize:    DefaultBlockSize,
		Kernel:       resample.Cubic,
		BitDepth:     DefaultBitDepth,
		Dither:       dither.DitherTriangular,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := core.ValidateSampleRate("engine", c.InternalRate); err != nil {
		return err
	}

	if err := core.ValidateSampleRate("engine", c.ExternalRate); err != nil {
		return err
	}

	if err := validateBlockSize(c.BlockSize); err != nil {
		return err
	}

	if c.Kernel != resample.Linear && c.Kernel != resample.Cubic {
		return fmt.Errorf("%w: %d", resample.ErrKernel, c.Kernel)
	}

	if c.BitDepth < 1 || c.BitDepth > 32 {
		return fmt.Errorf("engine: bit depth must be in [1, 32]: %d", c.BitDepth)
	}

	if !c.Dither.Valid() {
		return fmt.Errorf("%w: %d", dither.ErrDitherType, c.Dither)
	}

	for i, name := range c.Chain {
		if !slices.Contains(moduleNames, name) {
			return fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}

		if slices.Contains(c.Chain[:i], name) {
			return fmt.Errorf("engine: module %q appears twice in the chain", name)
		}

		if name == ModuleGranular && c.GranularSource == "" {
			return fmt.Errorf("engine: granular module needs a source file")
		}
	}

	return nil
}

func validateBlockSize(n int) error {
	if n <= 0 || n > MaxBlockSize {
		return fmt.Errorf("engine: block size must be in [1, %d]: %d", MaxBlockSize, n)
	}

	return nil
}

// chainOrder resolves the module order.
func (c Config) chainOrder() []string {
	if len(c.Chain) > 0 {
		return c.Chain
	}

	if c.GranularSource == "" {
		return defaultChain
	}

	order := make([]string, 0, len(defaultChain)+1)
	order = append(order, defaultChain[0], ModuleGranular)

	return append(order, defaultChain[1:]...)
}

// Option configures an Engine.
type Option func(*options) error

type options struct {
	cfg    Config
	open   OpenFunc
	logger log.Logger
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.cfg = cfg
		return nil
	}
}

// WithExternalRate sets the output sample rate in Hz.
func WithExternalRate(rate float64) Option {
	return func(o *options) error {
		o.cfg.ExternalRate = rate
		return nil
	}
}

// WithInternalRate sets the processing sample rate in Hz.
func WithInternalRate(rate float64) Option {
	return func(o *options) error {
		o.cfg.InternalRate = rate
		return nil
	}
}

// WithBlockSize sets the frames per output block.
func WithBlockSize(n int) Option {
	return func(o *options) error {
		o.cfg.BlockSize = n
		return nil
	}
}

// WithKernel selects the resampling kernel.
func WithKernel(k resample.Kernel) Option {
	return func(o *options) error {
		o.cfg.Kernel = k
		return nil
	}
}

// WithQuantizer sets the output bit depth and dither.
func WithQuantizer(bits int, dt dither.DitherType) Option {
	return func(o *options) error {
		o.cfg.BitDepth = bits
		o.cfg.Dither = dt

		return nil
	}
}

// WithChain sets the module order.
func WithChain(names ...string) Option {
	return func(o *options) error {
		if len(names) == 0 {
			return fmt.Errorf("engine: chain must not be empty")
		}

		o.cfg.Chain = slices.Clone(names)

		return nil
	}
}

// WithGranularSource loads path as the granular player's source.
func WithGranularSource(path string) Option {
	return func(o *options) error {
		o.cfg.GranularSource = path
		return nil
	}
}

// WithSeed makes the random sources reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) error {
		o.cfg.Seed = seed
		return nil
	}
}

// WithDevice replaces the audio device used by Start.
func WithDevice(open OpenFunc) Option {
	return func(o *options) error {
		if open == nil {
			return fmt.Errorf("engine: device opener must not be nil")
		}

		o.open = open

		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return fmt.Errorf("engine: logger must not be nil")
		}

		o.logger = l

		return nil
	}
}
