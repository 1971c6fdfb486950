// Package granular provides a granular player that cuts a source waveform
// into Hann-windowed grains and plays randomly chosen grains back to back.
//
// The playback rate combines the speed parameter with the ratio between the
// source and processing sample rates, so speed 1 plays grains at their
// original pitch, 0.5 an octave down and negative values in reverse.
package granular
