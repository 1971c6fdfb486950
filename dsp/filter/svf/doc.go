// Package svf provides the Chamberlin two-integrator state-variable filter
// with lowpass, bandpass, highpass and notch outputs.
//
// Filter holds fixed coefficients that can be swapped atomically while the
// audio goroutine is processing. Modulated runs the same recurrence with a
// cutoff supplied per sample, for LFO-driven sweeps.
//
// Integrator state is committed after every sample, so the impulse response
// does not depend on how the input is split into blocks, and parameter
// changes never reset it.
package svf
