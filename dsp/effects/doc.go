// Package effects provides LFO-driven effect modules built on the filter
// and delay primitives.
//
// Effects in this package:
//   - Tremolo: sine amplitude modulation.
//   - AutoWah: a bandpass state-variable filter swept by a sine LFO.
//   - Delay: modulated delay line with vibrato, flanger, chorus, slapback
//     and echo presets.
//
// Every effect implements the chain module contract; its dry/wet blend is
// applied by the chain, not inside ProcessTo.
package effects

// chunk is the number of samples of per-sample control values (delay
// times, cutoffs) computed at a time.
const chunk = 256
