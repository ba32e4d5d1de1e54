package score

import (
	"errors"
	"fmt"

	"github.com/cbegin/modsynth-go/internal/dialect"
)

// MaxChannels bounds the channel count of a song.
const MaxChannels = 64

// Song is a complete loaded score.
type Song struct {
	Name    string
	Dialect dialect.Dialect

	InitialSpeed        int // ticks per row
	InitialTempo        int // BPM, drives the tick length
	InitialGlobalVolume int // 0..128
	MixingVolume        int // 0..128, IT only; XM uses 128

	// Orders lists pattern indices in play order. RestartPosition is the
	// order index playback returns to when the song loops.
	Orders          []int
	RestartPosition int

	// LinearFrequencies selects linear pitch slides (XM flag, IT linear
	// slides). Amiga periods are used otherwise.
	LinearFrequencies bool

	ChannelPanning []int // per-channel default panning, 0..256
	ChannelVolume  []int // per-channel volume, 0..64

	Patterns    *PatternContainer
	Instruments *InstrumentsContainer

	// Effects are insert effect directives applied to the master bus.
	Effects []string

	channels int
}

func NewSong(d dialect.Dialect, channels int) *Song {
	s := &Song{
		Dialect:             d,
		InitialSpeed:        6,
		InitialTempo:        125,
		InitialGlobalVolume: 128,
		MixingVolume:        128,
		LinearFrequencies:   true,
		Patterns:            NewPatternContainer(),
		Instruments:         NewInstrumentsContainer(),
	}
	s.SetChannels(channels)
	return s
}

func (s *Song) Channels() int { return s.channels }

// SetChannels reshapes every pattern and the per-channel defaults.
// Existing channel settings are preserved, new channels get centered
// panning at full volume.
func (s *Song) SetChannels(channels int) {
	channels = clamp(channels, 0, MaxChannels)
	s.channels = channels
	s.ChannelPanning = resizeInts(s.ChannelPanning, channels, 128)
	s.ChannelVolume = resizeInts(s.ChannelVolume, channels, 64)
	s.Patterns.SetChannels(channels)
}

// NewPattern creates an empty pattern of the song's width and adds it to
// the pool.
func (s *Song) NewPattern(rows int) (*Pattern, int) {
	p := NewPattern(s.Dialect, rows, s.channels)
	return p, s.Patterns.Add(p)
}

// PatternAt returns the pattern played at order position pos.
func (s *Song) PatternAt(pos int) *Pattern {
	if pos < 0 || pos >= len(s.Orders) {
		return nil
	}
	return s.Patterns.Pattern(s.Orders[pos])
}

// Validate checks the cross references a loader must get right: orders
// point at existing patterns, and all patterns share the song's width. It
// never modifies the song.
func (s *Song) Validate() error {
	if s.channels == 0 {
		return errors.New("song has no channels")
	}
	if len(s.Orders) == 0 {
		return errors.New("song has an empty order list")
	}
	for i, o := range s.Orders {
		if s.Patterns.Pattern(o) == nil {
			return fmt.Errorf("order %d references missing pattern %d", i, o)
		}
	}
	for i := 0; i < s.Patterns.Len(); i++ {
		p := s.Patterns.Pattern(i)
		if p != nil && p.Channels() != s.channels {
			return fmt.Errorf("pattern %d has %d channels, song has %d", i, p.Channels(), s.channels)
		}
	}
	return nil
}

// Restart is the order position a looping song continues from:
// RestartPosition, or 0 when that is outside the order list.
func (s *Song) Restart() int {
	if s.RestartPosition < 0 || s.RestartPosition >= len(s.Orders) {
		return 0
	}
	return s.RestartPosition
}

func resizeInts(v []int, n, fill int) []int {
	if len(v) >= n {
		return v[:n]
	}
	for len(v) < n {
		v = append(v, fill)
	}
	return v
}
