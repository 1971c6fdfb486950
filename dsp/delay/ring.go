package delay

// ring is a fixed-size circular buffer.
type ring struct {
	buffer   []float64
	writePos int
}

func newRing(size int) ring {
	return ring{buffer: make([]float64, size)}
}

// write stores one sample and advances the write cursor.
func (r *ring) write(sample float64) {
	r.buffer[r.writePos] = sample
	r.writePos++
	if r.writePos >= len(r.buffer) {
		r.writePos = 0
	}
}

// read returns the sample written delay writes ago; read(1) is the newest.
// delay must be in [1, len(buffer)].
func (r *ring) read(delay int) float64 {
	size := len(r.buffer)
	readPos := r.writePos - delay
	if readPos < 0 {
		readPos += size
	}

	return r.buffer[readPos]
}

func (r *ring) reset() {
	for i := range r.buffer {
		r.buffer[i] = 0
	}
	r.writePos = 0
}
