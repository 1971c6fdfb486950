// Command synthengine runs the synthesis engine behind a small command
// shell.
//
// Usage:
//
//	synthengine [flags]
//
// Commands are read line by line from stdin. Type "help" for the list.
//
// Examples:
//
//	synthengine
//	synthengine -rate 48000 -block 256 -kernel linear
//	synthengine -render 5 -o tone.wav
//	echo "set subtractive.freq 220" | synthengine -render 2 -o low.wav -y
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/cwbudde/algo-synth/dsp/dither"
	"github.com/cwbudde/algo-synth/dsp/resample"
	"github.com/cwbudde/algo-synth/engine"
	"github.com/cwbudde/algo-synth/internal/log"
)

func main() {
	rate := flag.Float64("rate", engine.DefaultExternalRate, "output sample rate in Hz")
	block := flag.Int("block", engine.DefaultBlockSize, "frames per output block")
	kernel := flag.String("kernel", resample.Cubic.String(), "resampling kernel (linear, cubic)")
	bits := flag.Int("bits", engine.DefaultBitDepth, "output bit depth")
	ditherName := flag.String("dither", "triangular", "dither type (none, rectangular, triangular)")
	chainList := flag.String("chain", "", "comma-separated module order (default: all modules)")
	granular := flag.String("granular", "", "WAV file feeding the granular player")
	seed := flag.Uint64("seed", 0, "seed for noise and dither (0: random)")
	render := flag.Float64("render", 0, "render this many seconds to -o after running stdin commands, then exit")
	output := flag.String("o", "out.wav", "render output file")
	yes := flag.Bool("y", false, "overwrite existing files without asking")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: synthengine [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the synthesis engine and reads commands from stdin.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  synthengine -rate 48000 -block 256\n")
		fmt.Fprintf(os.Stderr, "  synthengine -render 5 -o tone.wav\n")
	}
	flag.Parse()

	logger := log.New()

	opts, err := engineOptions(*rate, *block, *kernel, *bits, *ditherName, *chainList, *granular, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	eng, err := engine.New(append(opts, engine.WithLogger(logger))...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	sh := newShell(eng, os.Stdin, os.Stdout, interactive)
	sh.overwrite = *yes

	if *render > 0 {
		// Batch mode: stdin only sets parameters.
		sh.interactive = false
		if err := sh.run(ctx); err != nil {
			logger.Warnf("synthengine: %v", err)
		}

		sh.render(ctx, []string{fmt.Sprint(*render), *output})

		return
	}

	if err := sh.run(ctx); err != nil {
		logger.Warnf("synthengine: %v", err)
	}
}

func engineOptions(rate float64, block int, kernel string, bits int, ditherName, chainList, granular string, seed uint64) ([]engine.Option, error) {
	k, err := resample.ParseKernel(kernel)
	if err != nil {
		return nil, err
	}

	dt, err := dither.ParseDitherType(ditherName)
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithExternalRate(rate),
		engine.WithBlockSize(block),
		engine.WithKernel(k),
		engine.WithQuantizer(bits, dt),
		engine.WithSeed(seed),
	}

	if chainList != "" {
		names := strings.Split(chainList, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}

		opts = append(opts, engine.WithChain(names...))
	}

	if granular != "" {
		opts = append(opts, engine.WithGranularSource(granular))
	}

	return opts, nil
}
