// Package moog provides a four-pole Moog-style ladder low-pass filter.
//
// The ladder is four cascaded one-pole sections with global feedback from
// the last stage to the input, a one-sample delay feeding every stage and a
// cubic soft clip on the output stage. Coefficients follow the empirically
// tuned musicdsp.org formulation and are published as an immutable bundle,
// so cutoff and resonance can be changed from a control goroutine without
// resetting the stage accumulators.
package moog
