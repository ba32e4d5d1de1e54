package audio

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// BufferSink collects the session's PCM in memory. It is used for offline
// rendering and as a test double.
type BufferSink struct {
	mu      sync.Mutex
	format  Format
	buf     bytes.Buffer
	started bool
	starts  int
	stops   int
	closed  bool
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) SetAudioFormat(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.format = f
	s.mu.Unlock()
	return nil
}

func (s *BufferSink) Start() error {
	s.mu.Lock()
	s.started = true
	s.starts++
	s.mu.Unlock()
	return nil
}

func (s *BufferSink) Stop() error {
	s.mu.Lock()
	s.started = false
	s.stops++
	s.mu.Unlock()
	return nil
}

func (s *BufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errPipeClosed
	}
	return s.buf.Write(p)
}

func (s *BufferSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *BufferSink) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Bytes returns a copy of everything written so far.
func (s *BufferSink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

func (s *BufferSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// Started reports whether the line is currently acquired.
func (s *BufferSink) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Transitions returns how often Start and Stop were called.
func (s *BufferSink) Transitions() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}

// DiscardSink accepts and drops everything, counting the bytes. It backs
// players that run without an output device.
type DiscardSink struct {
	n atomic.Int64
}

func (s *DiscardSink) SetAudioFormat(f Format) error { return f.Validate() }
func (s *DiscardSink) Start() error                  { return nil }
func (s *DiscardSink) Stop() error                   { return nil }
func (s *DiscardSink) Close() error                  { return nil }

func (s *DiscardSink) Write(p []byte) (int, error) {
	s.n.Add(int64(len(p)))
	return len(p), nil
}

// Written is the number of bytes accepted so far.
func (s *DiscardSink) Written() int64 { return s.n.Load() }
