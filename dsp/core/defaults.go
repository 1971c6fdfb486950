package core

const (
	// DefaultSampleRate is the internal processing rate in Hz.
	DefaultSampleRate = 48000.0
	// DefaultBlockSize is the default number of output frames per callback.
	DefaultBlockSize = 512
)
