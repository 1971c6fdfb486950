package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/xid"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-synth/internal/wavio"
)

// ErrFileExists is returned by Render when the target exists and
// overwrite is false.
var ErrFileExists = wavio.ErrFileExists

// progressSteps is the number of progress log lines per render.
const progressSteps = 10

// RenderStats summarizes a finished render.
type RenderStats struct {
	Path       string
	Frames     int
	SampleRate float64
	Peak       float64
	RMS        float64
	Elapsed    time.Duration
	// Stopped reports that a running stream was stopped for the render.
	Stopped bool
}

// Duration returns the rendered length.
func (s RenderStats) Duration() time.Duration {
	return time.Duration(float64(s.Frames) / s.SampleRate * float64(time.Second))
}

// Render writes seconds of output to path as a 16-bit mono WAV file at the
// external rate. A running stream is stopped first and not restarted.
// The last block is shortened to hit the exact frame count. On
// cancellation the partial file is removed.
func (e *Engine) Render(ctx context.Context, path string, seconds float64, overwrite bool) (RenderStats, error) {
	if !(seconds >= 0) || math.IsInf(seconds, 0) {
		return RenderStats{}, fmt.Errorf("engine: render duration must be >= 0: %f", seconds)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats := RenderStats{Path: path, SampleRate: e.cfg.ExternalRate}

	w, err := wavio.Create(path, int(math.Round(e.cfg.ExternalRate)), overwrite)
	if err != nil {
		return stats, err
	}

	if e.stream != nil {
		e.logger.Infof("engine: stopping the stream to render to file")

		if err := e.stopLocked(); err != nil {
			_ = w.Close()
			return stats, err
		}

		stats.Stopped = true
	}

	logger := e.logger.WithField("session", xid.New().String())
	total := int(seconds * e.cfg.ExternalRate)
	logger.Infof("engine: rendering %d frames to %s", total, path)

	start := time.Now()
	step := max(total/progressSteps, 1)
	next := step

	var sumSquares float64

	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			_ = w.Close()
			_ = os.Remove(path)

			return stats, fmt.Errorf("engine: render %s: %w", path, err)
		}

		block := e.out[:min(len(e.out), total-done)]
		e.process(block)

		if err := w.WriteBlock(block); err != nil {
			_ = w.Close()
			return stats, err
		}

		stats.Peak = max(stats.Peak, floats.Max(block), -floats.Min(block))
		sumSquares += floats.Dot(block, block)
		done += len(block)

		if done >= next && done < total {
			logger.Debugf("engine: render %5.1f%% (%.2f/%.2f s)",
				100*float64(done)/float64(total),
				float64(done)/e.cfg.ExternalRate, float64(total)/e.cfg.ExternalRate)

			next += step
		}
	}

	stats.Frames = w.Frames()
	stats.Elapsed = time.Since(start)

	if stats.Frames > 0 {
		stats.RMS = math.Sqrt(sumSquares / float64(stats.Frames))
	}

	if err := w.Close(); err != nil {
		return stats, err
	}

	logger.WithField("peak", stats.Peak).WithField("rms", stats.RMS).
		Infof("engine: rendered %.2f s in %s", stats.Duration().Seconds(), stats.Elapsed.Round(time.Millisecond))

	return stats, nil
}
