// Package osc provides source modules: an additive oscillator built from
// sine partials, band-limited sawtooth and square partial sets, and a
// white-noise generator.
//
// Sources ignore their input block and overwrite the output, so in a chain
// they are normally placed first with a mix of 1.
package osc
