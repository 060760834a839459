// Package ringbuf provides a fixed-capacity FIFO sample buffer.
//
// Pushing into a full buffer evicts the oldest element. Snapshot copies the
// contents out in insertion order so analysis can run on a stable window
// while new samples keep arriving.
package ringbuf

// Buffer is a fixed-capacity rolling buffer. The zero value is not usable;
// create one with New.
type Buffer[T any] struct {
	buf  []T
	head int // index of the next write position
	n    int // number of valid elements
}

// New creates a Buffer holding at most capacity elements.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest element if the buffer is full.
func (b *Buffer[T]) Push(v T) {
	b.buf[b.head] = v
	b.head = (b.head + 1) % len(b.buf)
	if b.n < len(b.buf) {
		b.n++
	}
}

// Len returns the number of buffered elements.
func (b *Buffer[T]) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.buf)
}

// Snapshot returns a copy of the buffered elements, oldest first. The
// returned slice is independent of subsequent pushes.
func (b *Buffer[T]) Snapshot() []T {
	if b.n == 0 {
		return nil
	}
	out := make([]T, b.n)
	start := (b.head - b.n + len(b.buf)) % len(b.buf)
	for i := 0; i < b.n; i++ {
		out[i] = b.buf[(start+i)%len(b.buf)]
	}
	return out
}

// Clear drops all buffered elements.
func (b *Buffer[T]) Clear() {
	b.head = 0
	b.n = 0
}
