package envelope_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/envelope"
)

func ExampleEnvelope() {
	e, err := envelope.New(1000, envelope.WithAttack(0.002), envelope.WithDecay(0.004))
	if err != nil {
		panic(err)
	}

	_ = e.Trigger(127)

	buf := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	e.ProcessInPlace(buf)
	fmt.Println(buf)
	// Output:
	// [0.5 1 1 0.75 0.5 0.25 0 0]
}
