package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDump(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReplaySourceStreamsWholeFile(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}
	src := NewReplaySource(writeDump(t, data), 64, 0)

	out := make(chan []byte, 32)
	err := src.Run(context.Background(), out)
	require.NoError(t, err, "EOF must end the replay cleanly")
	close(out)

	var got []byte
	for chunk := range out {
		assert.LessOrEqual(t, len(chunk), 64)
		got = append(got, chunk...)
	}
	assert.Equal(t, data, got)
}

func TestReplaySourceMissingFile(t *testing.T) {
	src := NewReplaySource(filepath.Join(t.TempDir(), "nope.bin"), 64, 0)
	err := src.Run(context.Background(), make(chan []byte, 1))
	assert.Error(t, err)
}

func TestReplaySourceHonorsCancellation(t *testing.T) {
	data := make([]byte, 4096)
	src := NewReplaySource(writeDump(t, data), 16, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered channel with no reader: only cancellation can unblock Run.
	err := src.Run(ctx, make(chan []byte))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplaySourcePacing(t *testing.T) {
	data := make([]byte, 30) // three 10-byte chunks, two sleeps
	src := NewReplaySource(writeDump(t, data), 10, 20*time.Millisecond)

	out := make(chan []byte, 8)
	start := time.Now()
	require.NoError(t, src.Run(context.Background(), out))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestReplaySourceChunkSizeClamped(t *testing.T) {
	src := NewReplaySource(writeDump(t, []byte{1, 2, 3}), 0, 0)

	out := make(chan []byte, 4)
	require.NoError(t, src.Run(context.Background(), out))
	close(out)

	var got []byte
	for chunk := range out {
		got = append(got, chunk...)
	}
	assert.Equal(t, []byte{1, 2, 3}, got)
}
