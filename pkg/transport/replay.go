package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ReplaySource feeds a captured byte dump through the pipeline in fixed-size
// chunks, optionally paced to approximate the live notification cadence.
type ReplaySource struct {
	path      string
	chunkSize int
	interval  time.Duration
}

// NewReplaySource reads path in chunkSize chunks, sleeping interval between
// chunks. A zero interval replays as fast as the consumer drains.
func NewReplaySource(path string, chunkSize int, interval time.Duration) *ReplaySource {
	if chunkSize <= 0 {
		chunkSize = 64
	}
	return &ReplaySource{path: path, chunkSize: chunkSize, interval: interval}
}

// Run streams the file and returns nil at EOF.
func (s *ReplaySource) Run(ctx context.Context, out chan<- []byte) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, s.chunkSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := f.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case out <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read replay file: %w", err)
		}
		if s.interval > 0 {
			timer := time.NewTimer(s.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}
