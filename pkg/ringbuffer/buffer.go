// Package ringbuffer keeps a bounded, sequence-numbered history of the
// requests handed to a capture session.
package ringbuffer

import (
	"errors"
	"sync"
	"time"

	"github.com/video-system/go-capture-negotiation/pkg/session"
)

// Config holds ring buffer configuration
type Config struct {
	Capacity int           // Entries kept before the oldest is overwritten
	MaxAge   time.Duration // Entries older than this are pruned, zero keeps them
}

// Buffer is a ring of submission records. It is safe for concurrent use.
type Buffer struct {
	cfg Config
	now func() time.Time

	mu       sync.RWMutex
	entries  map[int]*Entry // sequence -> entry
	firstSeq int
	lastSeq  int
}

// Entry records one submission attempt
type Entry struct {
	Sequence    int               `json:"sequence"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Envelope    *session.Envelope `json:"envelope"`
	Error       string            `json:"error,omitempty"`
}

// Status summarises the buffer contents
type Status struct {
	Count      int   `json:"count"`
	FirstSeq   int   `json:"first_seq"`
	LastSeq    int   `json:"last_seq"`
	OldestTime int64 `json:"oldest_time"`
	NewestTime int64 `json:"newest_time"`
}

// New creates a new ring buffer
func New(cfg Config) (*Buffer, error) {
	if cfg.Capacity <= 0 {
		return nil, errors.New("ring buffer capacity must be positive")
	}
	if cfg.MaxAge < 0 {
		return nil, errors.New("ring buffer max age must not be negative")
	}
	return &Buffer{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[int]*Entry, cfg.Capacity),
	}, nil
}

// Add records env with the outcome of its submission and returns the entry.
// Once the buffer is full the oldest entry is dropped.
func (b *Buffer) Add(env *session.Envelope, submitErr error) *Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	e := &Entry{
		Sequence:    b.lastSeq,
		SubmittedAt: b.now().UTC(),
		Envelope:    env,
	}
	if submitErr != nil {
		e.Error = submitErr.Error()
	}
	b.entries[e.Sequence] = e
	if b.firstSeq == 0 {
		b.firstSeq = e.Sequence
	}

	for len(b.entries) > b.cfg.Capacity {
		delete(b.entries, b.firstSeq)
		b.firstSeq++
	}
	b.pruneLocked()
	return e
}

// Get returns an entry by sequence number
func (b *Buffer) Get(seq int) (*Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[seq]
	return e, ok
}

// Entries returns the retained entries, oldest first.
func (b *Buffer) Entries() []*Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()

	out := make([]*Entry, 0, len(b.entries))
	for seq := b.firstSeq; seq <= b.lastSeq && seq > 0; seq++ {
		if e, ok := b.entries[seq]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Range returns entries submitted within [start, end).
func (b *Buffer) Range(start, end time.Time) []*Entry {
	var out []*Entry
	for _, e := range b.Entries() {
		if !e.SubmittedAt.Before(start) && e.SubmittedAt.Before(end) {
			out = append(out, e)
		}
	}
	return out
}

// Status returns the current buffer status
func (b *Buffer) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st := Status{Count: len(b.entries)}
	if st.Count == 0 {
		return st
	}
	st.FirstSeq, st.LastSeq = b.firstSeq, b.lastSeq
	if e, ok := b.entries[b.firstSeq]; ok {
		st.OldestTime = e.SubmittedAt.UnixMilli()
	}
	if e, ok := b.entries[b.lastSeq]; ok {
		st.NewestTime = e.SubmittedAt.UnixMilli()
	}
	return st
}

// pruneLocked drops entries older than MaxAge. Entries are added in time
// order, so pruning stops at the first entry inside the window.
func (b *Buffer) pruneLocked() {
	if b.cfg.MaxAge == 0 {
		return
	}
	cutoff := b.now().Add(-b.cfg.MaxAge)
	for b.firstSeq > 0 && b.firstSeq <= b.lastSeq {
		e, ok := b.entries[b.firstSeq]
		if ok && !e.SubmittedAt.Before(cutoff) {
			return
		}
		delete(b.entries, b.firstSeq)
		b.firstSeq++
	}
}
