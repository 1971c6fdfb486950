// Package param exposes module parameters as a tree of named, typed
// handles addressed by dotted paths such as "subtractive.filter.cutoff".
//
// Each handle pairs a getter with a setter. The setter carries any side
// effect the change needs (a coefficient or tap rebuild) and either
// succeeds completely or returns an error with no state changed.
//
// Trees are built once at engine setup. Lookups are safe for concurrent
// use; whether Set is safe concurrently with audio processing depends on
// the setter, and every setter in this module is.
package param
