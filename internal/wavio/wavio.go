// Package wavio writes 16-bit mono WAV files and reads WAV files into mono
// float samples.
package wavio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	pcmFormat = 1
	fullScale = 1<<(bitDepth-1) - 1
)

var (
	// ErrFileExists is returned by Create when the file exists and
	// overwrite is false.
	ErrFileExists = errors.New("wavio: file already exists")
	// ErrInvalidFile is returned by ReadMono for a file that is not a WAV.
	ErrInvalidFile = errors.New("wavio: not a valid wav file")
)

// Writer encodes float blocks as 16-bit mono PCM.
type Writer struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	frames  int
}

// Create opens path for writing. Without overwrite an existing file is left
// untouched and ErrFileExists is returned.
func Create(path string, sampleRate int, overwrite bool) (*Writer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavio: sample rate must be > 0: %d", sampleRate)
	}

	flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
		}

		return nil, fmt.Errorf("wavio: %w", err)
	}

	return &Writer{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, 1, pcmFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}, nil
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// Frames returns the number of samples written so far.
func (w *Writer) Frames() int { return w.frames }

// WriteBlock appends block, clamped to [-1, 1] and scaled to 16 bits.
func (w *Writer) WriteBlock(block []float64) error {
	if cap(w.buf.Data) < len(block) {
		w.buf.Data = make([]int, len(block))
	}

	data := w.buf.Data[:len(block)]
	for i, x := range block {
		data[i] = toPCM(x)
	}

	w.buf.Data = data
	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("wavio: write %s: %w", w.path, err)
	}

	w.frames += len(block)

	return nil
}

// Close finalizes the header and closes the file.
func (w *Writer) Close() error {
	encErr := w.encoder.Close()
	fileErr := w.file.Close()

	if err := errors.Join(encErr, fileErr); err != nil {
		return fmt.Errorf("wavio: close %s: %w", w.path, err)
	}

	return nil
}

func toPCM(x float64) int {
	if math.IsNaN(x) {
		return 0
	}

	x = math.Max(-1, math.Min(1, x))

	return int(math.Round(x * fullScale))
}

// ReadMono decodes a PCM WAV file and averages its channels into one
// float signal in [-1, 1].
func ReadMono(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavio: decode %s: %w", path, err)
	}

	channels := max(buf.Format.NumChannels, 1)
	depth := int(decoder.BitDepth)
	if depth <= 0 {
		depth = buf.SourceBitDepth
	}

	scale := 1 / math.Exp2(float64(depth-1))
	frames := len(buf.Data) / channels
	out := make([]float64, frames)

	for i := range out {
		var sum float64
		for c := range channels {
			sum += float64(buf.Data[i*channels+c])
		}

		out[i] = sum / float64(channels) * scale
	}

	return out, int(decoder.SampleRate), nil
}
