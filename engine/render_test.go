package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-synth/internal/wavio"
)

func TestRenderWritesExactLength(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "out.wav")

	// 4410 frames: eight full blocks and a partial one.
	stats, err := e.Render(context.Background(), path, 0.1, false)
	require.NoError(t, err)

	assert.Equal(t, path, stats.Path)
	assert.Equal(t, 4410, stats.Frames)
	assert.InDelta(t, 0.1, stats.Duration().Seconds(), 1e-6)
	assert.False(t, stats.Stopped)
	assert.LessOrEqual(t, stats.Peak, 1.0)
	assert.LessOrEqual(t, stats.RMS, stats.Peak)

	samples, rate, err := wavio.ReadMono(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Len(t, samples, 4410)
}

func TestRenderZeroSeconds(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "empty.wav")

	stats, err := e.Render(context.Background(), path, 0, false)
	require.NoError(t, err)
	assert.Zero(t, stats.Frames)
	assert.Zero(t, stats.RMS)
}

func TestRenderRejectsBadDuration(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "out.wav")

	_, err := e.Render(context.Background(), path, -1, false)
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestRenderRefusesExistingFile(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	_, err := e.Render(context.Background(), path, 0.01, false)
	require.ErrorIs(t, err, ErrFileExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	stats, err := e.Render(context.Background(), path, 0.01, true)
	require.NoError(t, err)
	assert.Equal(t, 441, stats.Frames)
}

func TestRenderCancelledRemovesFile(t *testing.T) {
	e, _ := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "out.wav")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Render(ctx, path, 1, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestRenderStopsRunningStream(t *testing.T) {
	e, opener := newTestEngine(t)
	require.NoError(t, e.Start())

	stats, err := e.Render(context.Background(), filepath.Join(t.TempDir(), "out.wav"), 0.05, false)
	require.NoError(t, err)

	assert.True(t, stats.Stopped)
	assert.False(t, e.Running())
	assert.False(t, opener.devices()[0].isRunning())
}
