package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/dither"
	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/dsp/envelope"
	"github.com/cwbudde/algo-synth/dsp/filter/fir"
	"github.com/cwbudde/algo-synth/dsp/filter/moog"
	"github.com/cwbudde/algo-synth/dsp/filter/svf"
	"github.com/cwbudde/algo-synth/dsp/granular"
	"github.com/cwbudde/algo-synth/dsp/resample"
	"github.com/cwbudde/algo-synth/dsp/synth"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/param"
)

// ErrUnknownModule is returned for a chain entry that names no module.
var ErrUnknownModule = errors.New("engine: unknown module")

var moduleNames = []string{
	ModuleSubtractive,
	ModuleGranular,
	ModuleMoog,
	ModuleConvFilter,
	ModuleEnvelope,
	ModuleAutoWah,
	ModuleDelay,
	ModuleTremolo,
}

// bypassed modules start with a mix of 0 in the default chain.
var bypassed = []string{ModuleGranular, ModuleEnvelope, ModuleAutoWah, ModuleDelay, ModuleTremolo}

var (
	sourceOptions = []string{synth.SourceSawtooth.String(), synth.SourceSquare.String(), synth.SourceNoise.String(), synth.SourceSine.String()}
	modeOptions   = []string{svf.ModeLowpass.String(), svf.ModeBandpass.String(), svf.ModeHighpass.String(), svf.ModeNotch.String()}
	typeOptions   = []string{fir.TypeLowpass.String(), fir.TypeHighpass.String(), fir.TypeBandpass.String(), fir.TypeBandstop.String()}
	ditherOptions = []string{"none", "rectangular", "triangular"}
	kernelOptions = []string{resample.Linear.String(), resample.Cubic.String()}
)

// rack holds every module the engine can place in its chain.
type rack struct {
	subtractive *synth.Subtractive
	granular    *granular.Player
	moog        *moog.Filter
	convfilter  *fir.Filter
	envelope    *envelope.Envelope
	autowah     *effects.AutoWah
	delay       *effects.Delay
	tremolo     *effects.Tremolo
	quantizer   *dither.Quantizer
}

func newRack(cfg Config, maxBlock int) (*rack, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	fs := cfg.InternalRate
	r := &rack{}

	var err error

	if r.subtractive, err = synth.NewSubtractive(fs, synth.WithSeed(seed)); err != nil {
		return nil, err
	}

	if cfg.GranularSource != "" {
		samples, rate, err := wavio.ReadMono(cfg.GranularSource)
		if err != nil {
			return nil, fmt.Errorf("engine: granular source: %w", err)
		}

		r.granular, err = granular.New(fs, samples, float64(rate), granular.WithSeed(seed))
		if err != nil {
			return nil, err
		}
	}

	if r.moog, err = moog.New(fs); err != nil {
		return nil, err
	}

	if r.convfilter, err = fir.New(fs, fir.WithMaxBlockSize(maxBlock)); err != nil {
		return nil, err
	}

	if r.envelope, err = envelope.New(fs); err != nil {
		return nil, err
	}

	if r.autowah, err = effects.NewAutoWah(fs); err != nil {
		return nil, err
	}

	if r.delay, err = effects.NewDelay(fs); err != nil {
		return nil, err
	}

	if r.tremolo, err = effects.NewTremolo(fs); err != nil {
		return nil, err
	}

	r.quantizer, err = dither.NewQuantizer(
		dither.WithBitDepth(cfg.BitDepth),
		dither.WithDitherType(cfg.Dither),
		dither.WithRNG(rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))),
	)
	if err != nil {
		return nil, err
	}

	if len(cfg.Chain) == 0 {
		for _, name := range bypassed {
			if m := r.module(name); m != nil {
				_ = m.SetMix(0)
			}
		}
	}

	return r, nil
}

// module returns the named module, or nil when it is not available.
func (r *rack) module(name string) core.Module {
	switch name {
	case ModuleSubtractive:
		return r.subtractive
	case ModuleGranular:
		if r.granular == nil {
			return nil
		}

		return r.granular
	case ModuleMoog:
		return r.moog
	case ModuleConvFilter:
		return r.convfilter
	case ModuleEnvelope:
		return r.envelope
	case ModuleAutoWah:
		return r.autowah
	case ModuleDelay:
		return r.delay
	case ModuleTremolo:
		return r.tremolo
	default:
		return nil
	}
}

func (r *rack) modules(order []string) ([]core.Module, error) {
	mods := make([]core.Module, len(order))
	for i, name := range order {
		m := r.module(name)
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}

		mods[i] = m
	}

	return mods, nil
}

func mixParam(m core.Module) *param.Float {
	return param.NewFloat("mix", "", m.Mix, m.SetMix)
}

// groups builds the parameter groups of the modules.
func (r *rack) groups() []*param.Group {
	sub := r.subtractive
	filter := sub.Filter()

	groups := []*param.Group{
		param.NewGroup(ModuleSubtractive).MustAdd(
			param.NewFloat("freq", "Hz", sub.FreqHz, sub.SetFreqHz),
			param.NewChoice("source", sourceOptions,
				func() string { return sub.Source().String() },
				func(v string) error {
					s, err := synth.ParseSource(v)
					if err != nil {
						return err
					}

					return sub.SetSource(s)
				}),
			mixParam(sub),
		).MustAddGroup(
			param.NewGroup("filter").MustAdd(
				param.NewFloat("cutoff", "Hz", filter.CutoffHz, filter.SetCutoffHz),
				param.NewFloat("resonance", "", filter.Resonance, filter.SetResonance),
				param.NewChoice("mode", modeOptions,
					func() string { return filter.Mode().String() },
					func(v string) error {
						m, err := svf.ParseMode(v)
						if err != nil {
							return err
						}

						return filter.SetMode(m)
					}),
			),
		),
	}

	if g := r.granular; g != nil {
		groups = append(groups, param.NewGroup(ModuleGranular).MustAdd(
			param.NewFloat("grain", "s", g.GrainSeconds, g.SetGrainSeconds),
			param.NewFloat("speed", "", g.Speed, g.SetSpeed),
			param.NewBool("overlap", g.Overlap, g.SetOverlap),
			mixParam(g),
		))
	}

	conv := r.convfilter
	env := r.envelope
	wah := r.autowah
	dl := r.delay
	trem := r.tremolo

	groups = append(groups,
		param.NewGroup(ModuleMoog).MustAdd(
			param.NewFloat("cutoff", "Hz", r.moog.CutoffHz, r.moog.SetCutoffHz),
			param.NewFloat("resonance", "", r.moog.Resonance, r.moog.SetResonance),
			mixParam(r.moog),
		),
		param.NewGroup(ModuleConvFilter).MustAdd(
			param.NewChoice("type", typeOptions,
				func() string { return conv.Spec().Type.String() },
				func(v string) error {
					t, err := fir.ParseType(v)
					if err != nil {
						return err
					}

					return conv.SetType(t)
				}),
			param.NewInt("order", func() int { return conv.Spec().Order }, conv.SetOrder),
			param.NewFloat("freq", "Hz", func() float64 { return conv.Spec().FreqHz }, conv.SetFreqHz),
			param.NewFloat("bandwidth", "Hz", func() float64 { return conv.Spec().BandwidthHz }, conv.SetBandwidthHz),
			param.NewFloat("transition", "Hz", func() float64 { return conv.Spec().TransitionHz }, conv.SetTransitionHz),
			mixParam(conv),
		),
		param.NewGroup(ModuleEnvelope).MustAdd(
			param.NewFloat("attack", "s", env.Attack, env.SetAttack),
			param.NewFloat("decay", "s", env.Decay, env.SetDecay),
			mixParam(env),
		),
		param.NewGroup(ModuleAutoWah).MustAdd(
			param.NewFloat("low", "Hz", func() float64 { low, _ := wah.RangeHz(); return low }, wah.SetLowHz),
			param.NewFloat("high", "Hz", func() float64 { _, high := wah.RangeHz(); return high }, wah.SetHighHz),
			param.NewFloat("rate", "Hz", wah.RateHz, wah.SetRateHz),
			param.NewFloat("resonance", "", wah.Resonance, wah.SetResonance),
			mixParam(wah),
		),
		param.NewGroup(ModuleDelay).MustAdd(
			param.NewChoice("preset", effects.DelayPresets(), dl.Preset, dl.SetPreset),
			param.NewFloat("fixed", "s", dl.FixedSeconds, dl.SetFixedSeconds),
			param.NewFloat("mod", "s", dl.ModSeconds, dl.SetModSeconds),
			param.NewFloat("rate", "Hz", dl.RateHz, dl.SetRateHz),
			param.NewFloat("feedback", "", dl.Feedback, dl.SetFeedback),
			mixParam(dl),
		),
		param.NewGroup(ModuleTremolo).MustAdd(
			param.NewFloat("rate", "Hz", trem.RateHz, trem.SetRateHz),
			param.NewFloat("depth", "", trem.Depth, trem.SetDepth),
			mixParam(trem),
		),
		r.quantizerGroup(),
	)

	return groups
}

func (r *rack) quantizerGroup() *param.Group {
	q := r.quantizer

	return param.NewGroup("quantizer").MustAdd(
		param.NewInt("bits", q.BitDepth, q.SetBitDepth),
		param.NewChoice("dither", ditherOptions,
			func() string { return strings.ToLower(q.DitherType().String()) },
			func(v string) error {
				dt, err := dither.ParseDitherType(v)
				if err != nil {
					return err
				}

				return q.SetDitherType(dt)
			}),
		param.NewFloat("amplitude", "LSB", q.DitherAmplitude, q.SetDitherAmplitude),
		param.NewBool("limit", q.Limit, func(v bool) error {
			q.SetLimit(v)
			return nil
		}),
	)
}
