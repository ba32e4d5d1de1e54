package audio

import (
	"errors"
	"sync"
)

var errPipeClosed = errors.New("audio pipe closed")

// pipe bridges the push model of a Sink to the pull model of realtime
// backends. Writers block while the ring is full; readers never block and
// get silence for whatever the writer has not delivered yet.
type pipe struct {
	mu      sync.Mutex
	cond    *sync.Cond
	ring    []byte
	r, n    int
	silence byte
	closed  bool
}

func newPipe(size int, silence byte) *pipe {
	p := &pipe{ring: make([]byte, size), silence: silence}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	written := 0
	for len(b) > 0 {
		for p.n == len(p.ring) && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			return written, errPipeClosed
		}
		w := (p.r + p.n) % len(p.ring)
		end := len(p.ring)
		if w < p.r {
			end = p.r
		}
		c := copy(p.ring[w:end], b)
		if c > len(p.ring)-p.n {
			c = len(p.ring) - p.n
		}
		p.n += c
		written += c
		b = b[c:]
	}
	return written, nil
}

// Read always fills b completely.
func (p *pipe) Read(b []byte) (int, error) {
	p.mu.Lock()
	got := 0
	for got < len(b) && p.n > 0 {
		end := p.r + p.n
		if end > len(p.ring) {
			end = len(p.ring)
		}
		c := copy(b[got:], p.ring[p.r:end])
		p.r = (p.r + c) % len(p.ring)
		p.n -= c
		got += c
	}
	p.cond.Broadcast()
	p.mu.Unlock()
	for i := got; i < len(b); i++ {
		b[i] = p.silence
	}
	return len(b), nil
}

// Buffered returns the number of bytes waiting to be read.
func (p *pipe) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

// Reset drops buffered audio and wakes blocked writers.
func (p *pipe) Reset() {
	p.mu.Lock()
	p.r, p.n = 0, 0
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}
