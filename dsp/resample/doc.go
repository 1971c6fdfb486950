// Package resample converts a block stream from one sample rate to another
// with a linear or cubic (Catmull-Rom) interpolation kernel.
//
// The Resampler is pull-based: for every output block of n samples the
// caller asks [Resampler.SourceBlockSize] how many source samples to
// produce, renders exactly that many, and hands both to
// [Resampler.Process]. A fractional cursor and a short history ring carry
// the read position across blocks, so the concatenated output equals a
// continuous resampling of the concatenated source.
//
// Typical workflow:
//
//	r, _ := resample.New(48000, 44100, resample.Cubic)
//	src := r.MakeSourceBuffer(maxBlock)
//	for {
//		m := r.SourceBlockSize(len(out))
//		render(src[:m])
//		r.Process(out, src[:m])
//	}
package resample
