// Package playback drives a Source into an audio.Sink on a dedicated
// goroutine while other goroutines pause, stop or seek it.
//
// Control calls never touch the source or the sink. They post an intent
// and wait on a condition variable until the playback loop, which checks
// intents before every block, has carried it out. Blocks are at most
// MaxBlock long, which bounds the acknowledgement latency.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/modsynth-go/internal/audio"
)

// MaxBlock is the longest stretch of audio produced between two intent
// checks.
const MaxBlock = 5 * time.Millisecond

var (
	ErrNoSource       = errors.New("playback: no source")
	ErrNoSink         = errors.New("playback: no sink")
	ErrAlreadyRunning = errors.New("playback: already running")
)

// Source is the mixing loop the machine pulls audio from.
type Source interface {
	Format() audio.Format
	// Mix renders whole frames into p and returns the number of bytes
	// written. ended is true once the score has played to its end; n may
	// still be non-zero then.
	Mix(p []byte) (n int, ended bool)
	// Seek repositions the source to ms milliseconds from the start.
	Seek(ms int64)
	// Position is the current playback position in milliseconds.
	Position() int64
}

type State int32

const (
	Stopped State = iota
	Playing
	Pausing
	Paused
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Pausing:
		return "pausing"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Option func(*Machine)

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithBlock sets the block length, clamped to (0, MaxBlock].
func WithBlock(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 && d <= MaxBlock {
			m.block = d
		}
	}
}

// Machine is the playback state machine. One StartPlayback may run at a
// time; every other method is safe for concurrent use.
type Machine struct {
	src   Source
	sink  audio.Sink
	log   *slog.Logger
	block time.Duration

	// mu serializes control calls and guards state transitions; state is
	// also readable without it.
	mu      sync.Mutex
	cond    *sync.Cond
	state   atomic.Int32
	running bool // guarded by mu

	seeking    atomic.Bool
	seekTarget int64 // guarded by mu

	pending  atomic.Int64 // deferred seek target, -1 when none
	stopAt   atomic.Int64 // stop position, -1 when none
	position atomic.Int64
	finished atomic.Bool
}

func New(src Source, sink audio.Sink, opts ...Option) (*Machine, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	if sink == nil {
		return nil, ErrNoSink
	}
	m := &Machine{
		src:   src,
		sink:  sink,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		block: MaxBlock,
	}
	m.cond = sync.NewCond(&m.mu)
	m.pending.Store(-1)
	m.stopAt.Store(-1)
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Machine) State() State    { return State(m.state.Load()) }
func (m *Machine) IsPlaying() bool { return m.State() == Playing }
func (m *Machine) IsPaused() bool  { return m.State() == Paused }
func (m *Machine) IsStopped() bool { return m.State() == Stopped }
func (m *Machine) IsSeeking() bool { return m.seeking.Load() }

// HasFinished reports whether the last session ended because the score or
// the stop position was reached. A session ended by StopPlayback or by a
// sink failure has not finished.
func (m *Machine) HasFinished() bool { return m.finished.Load() }

// MillisecondPosition is the position of the last block handed to the
// sink, or the deferred seek target while stopped.
func (m *Machine) MillisecondPosition() int64 {
	if p := m.pending.Load(); p >= 0 && m.State() != Playing {
		return p
	}
	return m.position.Load()
}

// SetStopMillisecondPosition makes the playback loop stop once ms is
// reached. ms <= 0 removes the stop position.
func (m *Machine) SetStopMillisecondPosition(ms int64) {
	if ms <= 0 {
		ms = -1
	}
	m.stopAt.Store(ms)
}

func (m *Machine) StopMillisecondPosition() int64 { return m.stopAt.Load() }

// setState must be called with mu held.
func (m *Machine) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		m.log.Debug("playback state", "from", prev, "to", s)
	}
	m.cond.Broadcast()
}

func (m *Machine) transition(s State) {
	m.mu.Lock()
	m.setState(s)
	m.mu.Unlock()
}

// waitIdle waits until no pause or seek is in flight. mu must be held.
func (m *Machine) waitIdle() {
	for m.State() == Pausing || m.seeking.Load() {
		m.cond.Wait()
	}
}

// StopPlayback asks the loop to stop and waits until it has released the
// sink. Calling it on a stopped machine does nothing.
func (m *Machine) StopPlayback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitIdle()
	if !m.running {
		return
	}
	if m.State() != Stopping {
		m.setState(Stopping)
	}
	for m.running {
		m.cond.Wait()
	}
}

// PausePlayback pauses a playing machine and waits until the loop has
// released the sink. On a paused machine it resumes playback. Stopped and
// stopping machines are left alone.
func (m *Machine) PausePlayback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitIdle()
	switch m.State() {
	case Playing:
		m.setState(Pausing)
		for m.State() == Pausing {
			m.cond.Wait()
		}
	case Paused:
		m.setState(Playing)
	}
}

// SetMillisecondPosition seeks to ms. While the machine is not playing the
// target is only remembered and applied when playback starts or resumes.
// While playing it waits until the loop has performed the seek.
func (m *Machine) SetMillisecondPosition(ms int64) {
	if ms < 0 {
		ms = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitIdle()
	if m.State() != Playing {
		m.pending.Store(ms)
		return
	}
	m.seekTarget = ms
	m.seeking.Store(true)
	m.cond.Broadcast()
	for m.seeking.Load() {
		m.cond.Wait()
	}
}

// StartPlayback runs the playback loop on the calling goroutine until the
// score ends, the stop position is reached, StopPlayback is called or the
// sink fails. A sink failure is returned wrapped.
func (m *Machine) StartPlayback() (err error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.running = true
	m.finished.Store(false)
	m.mu.Unlock()

	lineStarted := false
	defer func() {
		if lineStarted {
			if stopErr := m.sink.Stop(); stopErr != nil && err == nil {
				err = fmt.Errorf("playback: release line: %w", stopErr)
			}
		}
		m.mu.Lock()
		m.running = false
		m.seeking.Store(false)
		m.setState(Stopped)
		m.mu.Unlock()
		if err != nil {
			m.log.Error("playback aborted", "err", err)
		} else {
			m.log.Debug("playback stopped", "finished", m.finished.Load(), "position", m.position.Load())
		}
	}()

	format := m.src.Format()
	if err := m.sink.SetAudioFormat(format); err != nil {
		return fmt.Errorf("playback: set audio format: %w", err)
	}
	m.applyPending()
	if err := m.sink.Start(); err != nil {
		return fmt.Errorf("playback: start line: %w", err)
	}
	lineStarted = true

	// A stop may have been requested while the line was being set up.
	m.mu.Lock()
	if m.State() == Stopping {
		m.mu.Unlock()
		return nil
	}
	m.setState(Playing)
	m.mu.Unlock()
	m.log.Debug("playback started", "format", format.String(), "position", m.position.Load())

	frameBytes := format.FrameBytes()
	blockFrames := format.FramesFor(m.block.Milliseconds())
	if blockFrames < 1 {
		blockFrames = 1
	}
	buf := make([]byte, blockFrames*frameBytes)
	for {
		switch m.State() {
		case Stopping:
			return nil
		case Pausing:
			resumed, err := m.pause()
			if err != nil {
				return err
			}
			if !resumed {
				return nil
			}
			continue
		}
		if m.seeking.Load() {
			if err := m.seek(); err != nil {
				return err
			}
			continue
		}
		if m.pending.Load() >= 0 {
			m.applyPending()
		}

		frames := blockFrames
		if stop := m.stopAt.Load(); stop >= 0 {
			left := format.FramesFor(stop - m.position.Load())
			if left <= 0 {
				m.finished.Store(true)
				return nil
			}
			if left < frames {
				frames = left
			}
		}
		n, ended := m.src.Mix(buf[:frames*frameBytes])
		if n > 0 {
			if _, err := m.sink.Write(buf[:n]); err != nil {
				return fmt.Errorf("playback: write: %w", err)
			}
		}
		m.position.Store(m.src.Position())
		if ended || n == 0 {
			m.finished.Store(true)
			return nil
		}
	}
}

// pause releases the line, parks the loop until resumed or stopped, and
// reacquires the line on resume.
func (m *Machine) pause() (resumed bool, err error) {
	if err := m.sink.Stop(); err != nil {
		return false, fmt.Errorf("playback: release line: %w", err)
	}
	m.mu.Lock()
	m.setState(Paused)
	for m.State() == Paused {
		m.cond.Wait()
	}
	resumed = m.State() == Playing
	m.mu.Unlock()
	if !resumed {
		return false, nil
	}
	m.applyPending()
	if err := m.sink.Start(); err != nil {
		return false, fmt.Errorf("playback: start line: %w", err)
	}
	return true, nil
}

func (m *Machine) seek() error {
	m.mu.Lock()
	target := m.seekTarget
	m.mu.Unlock()
	m.log.Debug("playback seek", "from", m.position.Load(), "to", target)

	err := m.sink.Stop()
	if err == nil {
		m.src.Seek(target)
		m.position.Store(m.src.Position())
		err = m.sink.Start()
	}
	m.mu.Lock()
	m.seeking.Store(false)
	m.cond.Broadcast()
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("playback: seek: %w", err)
	}
	return nil
}

func (m *Machine) applyPending() {
	if ms := m.pending.Swap(-1); ms >= 0 {
		m.src.Seek(ms)
	}
	m.position.Store(m.src.Position())
}
