package fir_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/filter/fir"
)

func ExampleShortConvolver() {
	// 3-tap moving average filter.
	c, err := fir.NewShortConvolver([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, 4)
	if err != nil {
		panic(err)
	}

	blocks := [][]float64{{0, 1, 2}, {3, 3, 3}}
	for _, b := range blocks {
		c.ProcessInPlace(b)
		fmt.Printf("%.4f %.4f %.4f\n", b[0], b[1], b[2])
	}
	// Output:
	// 0.0000 0.3333 1.0000
	// 2.0000 2.6667 3.0000
}
