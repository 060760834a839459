package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
)

// TCPSource reads raw byte chunks from a TCP endpoint, reconnecting with
// linear backoff when the link drops. It performs no framing; downstream
// owns reassembly.
type TCPSource struct {
	addr         string
	chunkSize    int
	dialTimeout  time.Duration
	readTimeout  time.Duration
	reconnect    time.Duration
	reconnectMax time.Duration
	logger       *zap.Logger
}

// TCPOption configures a TCPSource.
type TCPOption func(*TCPSource)

// WithChunkSize sets the read buffer size per chunk.
func WithChunkSize(n int) TCPOption {
	return func(s *TCPSource) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithDialTimeout sets the connection timeout.
func WithDialTimeout(d time.Duration) TCPOption {
	return func(s *TCPSource) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

// WithReadTimeout sets the per-read deadline.
func WithReadTimeout(d time.Duration) TCPOption {
	return func(s *TCPSource) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithReconnectInterval sets the base reconnect backoff.
func WithReconnectInterval(d time.Duration) TCPOption {
	return func(s *TCPSource) {
		if d > 0 {
			s.reconnect = d
		}
	}
}

// WithLogger attaches a logger for connection lifecycle events.
func WithLogger(logger *zap.Logger) TCPOption {
	return func(s *TCPSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewTCPSource creates a source for the given address.
func NewTCPSource(addr string, opts ...TCPOption) *TCPSource {
	s := &TCPSource{
		addr:         addr,
		chunkSize:    4096,
		dialTimeout:  5 * time.Second,
		reconnect:    time.Second,
		reconnectMax: 30 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects and pumps chunks into out until ctx is cancelled.
func (s *TCPSource) Run(ctx context.Context, out chan<- []byte) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := net.DialTimeout("tcp", s.addr, s.dialTimeout)
		if err != nil {
			s.logger.Warn("sensor link dial failed",
				zap.String("addr", s.addr), zap.Error(err))
			attempt++
			if !s.sleepBackoff(ctx, attempt) {
				return ctx.Err()
			}
			continue
		}

		s.logger.Info("sensor link connected", zap.String("addr", s.addr))
		attempt = 0
		err = s.pump(ctx, conn, out)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.Warn("sensor link dropped", zap.Error(err))
		}
		if !s.sleepBackoff(ctx, 1) {
			return ctx.Err()
		}
	}
}

func (s *TCPSource) pump(ctx context.Context, conn net.Conn, out chan<- []byte) error {
	buf := make([]byte, s.chunkSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		n, err := conn.Read(buf)
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
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return err
		}
	}
}

func (s *TCPSource) sleepBackoff(ctx context.Context, attempt int) bool {
	wait := min(s.reconnect*time.Duration(attempt), s.reconnectMax)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
