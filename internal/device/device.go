// Package device plays mono audio through the default PortAudio output.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var errClosed = errors.New("device: stream closed")

// Callback fills one block of output samples. It runs on the PortAudio
// audio thread.
type Callback func(out []float32)

// Stream is an open output stream on the default device.
type Stream struct {
	stream     *portaudio.Stream
	sampleRate float64
	blockSize  int

	mu      sync.Mutex
	started bool
	closed  bool
}

var (
	initMu   sync.Mutex
	initRefs int
)

// acquire initializes PortAudio on first use.
func acquire() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initRefs == 0 {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("device: initialize: %w", err)
		}
	}

	initRefs++

	return nil
}

// release terminates PortAudio when the last stream closes.
func release() error {
	initMu.Lock()
	defer initMu.Unlock()

	initRefs--
	if initRefs == 0 {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("device: terminate: %w", err)
		}
	}

	return nil
}

// Open opens a mono output stream calling cb for every block of blockSize
// samples at sampleRate.
func Open(sampleRate float64, blockSize int, cb Callback) (*Stream, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("device: invalid stream format: %g Hz, %d frames", sampleRate, blockSize)
	}

	if err := acquire(); err != nil {
		return nil, err
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, blockSize, func(out []float32) {
		cb(out)
	})
	if err != nil {
		_ = release()
		return nil, fmt.Errorf("device: open stream: %w", err)
	}

	return &Stream{stream: stream, sampleRate: sampleRate, blockSize: blockSize}, nil
}

// SampleRate returns the stream sample rate in Hz.
func (s *Stream) SampleRate() float64 { return s.sampleRate }

// BlockSize returns the frames per callback.
func (s *Stream) BlockSize() int { return s.blockSize }

// Start begins playback.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	if s.started {
		return nil
	}

	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("device: start: %w", err)
	}

	s.started = true

	return nil
}

// Stop halts playback after the pending buffers have played. No callback
// runs after Stop returns.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("device: stop: %w", err)
	}

	s.started = false

	return nil
}

// Close stops the stream if needed and releases it.
func (s *Stream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.stream.Close(); err != nil {
		_ = release()
		return fmt.Errorf("device: close: %w", err)
	}

	return release()
}
