package moog_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/filter/moog"
)

func ExampleNew() {
	f, err := moog.New(48000, moog.WithCutoffHz(2000), moog.WithResonance(0.3))
	if err != nil {
		panic(err)
	}

	out := make([]float64, 3)
	for i := range out {
		out[i] = f.ProcessSample(0.5)
	}

	fmt.Printf("%.6f %.6f %.6f\n", out[0], out[1], out[2])
	// Output:
	// 0.000218 0.001732 0.006798
}
