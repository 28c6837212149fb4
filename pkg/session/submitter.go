package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Submitter applies resolved requests to a capture session. Errors are
// returned as reported by the session; callers decide how to wrap them.
type Submitter interface {
	Submit(ctx context.Context, env *Envelope) error
}

// ErrClosed is returned by a submitter after Close.
var ErrClosed = errors.New("session submitter closed")

// StreamSubmitter writes envelopes as a CBOR sequence to a stream.
// It is safe for concurrent use.
type StreamSubmitter struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *cbor.Encoder
	closed  bool
}

// NewStreamSubmitter creates a submitter writing to w. If w is an
// io.Closer it is closed by Close.
func NewStreamSubmitter(w io.Writer) *StreamSubmitter {
	s := &StreamSubmitter{encoder: encMode.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenFile creates a submitter appending to the file at path.
func OpenFile(path string) (*StreamSubmitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open session output: %w", err)
	}
	return NewStreamSubmitter(f), nil
}

// Submit encodes env onto the stream.
func (s *StreamSubmitter) Submit(ctx context.Context, env *Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.encoder.Encode(env); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// Close closes the underlying stream. It is safe to call more than once.
func (s *StreamSubmitter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Discard accepts and drops every envelope.
var Discard Submitter = discard{}

type discard struct{}

func (discard) Submit(ctx context.Context, _ *Envelope) error {
	return ctx.Err()
}

var _ Submitter = (*StreamSubmitter)(nil)
