// Package interp provides the fractional-position interpolation kernels
// shared by the resampler, the modulated delay line and the granular player.
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Catmull-Rom interpolation
//
// Both kernels return the left sample exactly at t == 0, which makes a
// resampler running at a 1:1 ratio a sample-exact identity.
package interp
