// Package transport delivers raw notification byte chunks from a sensor
// link into a bounded hand-off channel. The decode path never runs on the
// transport goroutine: chunks are copied and queued so file I/O and FFT
// latency downstream cannot stall the link.
package transport

import "context"

// ChunkSource streams byte chunks into out until ctx is cancelled or the
// source is exhausted. Implementations own the chunk memory they send; each
// chunk is safe for the receiver to retain.
type ChunkSource interface {
	Run(ctx context.Context, out chan<- []byte) error
}
