// Package fir provides short block convolution and windowed-sinc FIR design.
//
// A [ShortConvolver] convolves each block with an impulse response shorter
// than the block, carrying len(taps)-1 input samples of history across
// blocks. [Design] builds Kaiser-windowed sinc taps for lowpass, highpass,
// bandpass and bandstop responses, and [Filter] ties the two together as a
// chain module whose parameter setters redesign the taps in place.
package fir
