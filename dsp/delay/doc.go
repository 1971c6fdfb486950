// Package delay provides circular-buffer delay lines for echo, slapback,
// vibrato, flanger and chorus effects.
//
// Line delays by a whole number of samples. Modulated reads at a fractional,
// per-sample delay with linear interpolation. Both write
// in*(1-feedback) + delayed*feedback back into the buffer and emit the
// delayed signal; the dry/wet blend is left to the module's mix.
package delay
