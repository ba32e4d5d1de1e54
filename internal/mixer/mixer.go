// Package mixer is the channel-mixing loop: it walks a song's order list
// tick by tick, runs the pattern effects of both dialects, mixes the
// resulting voices and renders PCM for a playback.Machine.
package mixer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync/atomic"

	"github.com/cbegin/modsynth-go/internal/audio"
	"github.com/cbegin/modsynth-go/internal/effects"
	"github.com/cbegin/modsynth-go/internal/lfo"
	"github.com/cbegin/modsynth-go/internal/score"
)

// Mixer renders a song. Mix, Seek, Position and Duration must be called
// from one goroutine; the master volume, equalizer and level readings may
// be used from any goroutine.
type Mixer struct {
	song   *score.Song
	opts   Options
	format audio.Format

	channels []*channel
	voices   []*voice
	free     []*voice
	rng      *rand.Rand

	seqPos    int
	breakPos  int
	row       int
	nextRow   int
	tick      int
	speed     int
	tempo     int
	globalVol int
	plCount   int
	plChannel int
	played    *score.PlayedRows

	tickLeft int
	frames   int64
	ended    bool

	left    []float32
	right   []float32
	fx      *effects.Chain
	bus     *effects.Chain
	eq      *effects.EQ5Band
	limiter *effects.Limiter
	meter   effects.Meter

	gain  atomic.Uint32
	peakL atomic.Uint32
	peakR atomic.Uint32
}

func New(song *score.Song) (*Mixer, error) {
	return NewWithOptions(song, Options{})
}

func NewWithOptions(song *score.Song, opts Options) (*Mixer, error) {
	if song == nil {
		return nil, errors.New("mixer: song is nil")
	}
	if err := song.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	format := audio.Format{SampleRate: opts.SampleRate, Channels: opts.Channels, BitsPerSample: opts.BitsPerSample}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	fx, err := effects.ParseChain(append(slices.Clone(song.Effects), opts.Effects...), opts.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("mixer: %w", err)
	}
	m := &Mixer{
		song:    song,
		opts:    opts,
		format:  format,
		fx:      fx,
		eq:      effects.NewEQ5Band(opts.SampleRate),
		limiter: effects.NewLimiter(opts.SampleRate, 1, 50),
		played:  song.Patterns.NewPlayedRows(),
	}
	m.bus = effects.NewChain(m.eq, m.limiter)
	m.gain.Store(math.Float32bits(1))
	m.restart(0)
	return m, nil
}

func (m *Mixer) Format() audio.Format { return m.format }
func (m *Mixer) Song() *score.Song    { return m.song }

// SetMasterVolume sets the linear output gain, 1 being unity.
func (m *Mixer) SetMasterVolume(v float32) {
	if v < 0 {
		v = 0
	}
	m.gain.Store(math.Float32bits(v))
}

func (m *Mixer) MasterVolume() float32 { return math.Float32frombits(m.gain.Load()) }

// EQ exposes the master equalizer.
func (m *Mixer) EQ() *effects.EQ5Band { return m.eq }

// Levels returns the peak levels of the last mixed block.
func (m *Mixer) Levels() (left, right float32) {
	return math.Float32frombits(m.peakL.Load()), math.Float32frombits(m.peakR.Load())
}

// Order returns the current order position and row.
func (m *Mixer) Order() (pos, row int) { return m.seqPos, m.row }

// restart resets the song state and positions it at order pos.
func (m *Mixer) restart(pos int) {
	s := m.song
	m.rng = rand.New(rand.NewPCG(0x6d6f64, 0x73796e74))
	m.channels = make([]*channel, s.Channels())
	for i := range m.channels {
		m.channels[i] = newChannel(i, s.ChannelPanning[i], s.ChannelVolume[i])
	}
	for _, v := range m.voices {
		m.release(v)
	}
	m.voices = m.voices[:0]
	m.seqPos = 0
	m.breakPos = pos
	m.nextRow = 0
	m.row = 0
	m.speed = max(s.InitialSpeed, 1)
	m.tempo = clamp(s.InitialTempo, 32, 255)
	m.tick = 1
	m.globalVol = clamp(s.InitialGlobalVolume, 0, 128)
	m.plCount, m.plChannel = -1, -1
	m.tickLeft = 0
	m.frames = 0
	m.ended = false
	m.fx.Reset()
	m.bus.Reset()
	m.played.Reset()
}

// tickLength is the number of frames in one tick at the current tempo.
func (m *Mixer) tickLength() int {
	return m.format.SampleRate * 5 / (m.tempo * 2)
}

// Mix renders whole frames into p. ended is reported once the song has
// played through; looping songs never end.
func (m *Mixer) Mix(p []byte) (int, bool) {
	fb := m.format.FrameBytes()
	frames := len(p) / fb
	if m.ended || frames == 0 {
		return 0, m.ended
	}
	if cap(m.left) < frames {
		m.left = make([]float32, frames)
		m.right = make([]float32, frames)
	}
	left, right := m.left[:frames], m.right[:frames]
	clear(left)
	clear(right)
	done := 0
	for done < frames {
		if m.tickLeft == 0 {
			if m.advanceTick() {
				m.ended = true
				m.emit(EventPlaybackEnded)
				break
			}
			m.tickLeft = m.tickLength()
		}
		n := min(frames-done, m.tickLeft)
		m.render(left[done:done+n], right[done:done+n])
		m.tickLeft -= n
		done += n
	}
	m.frames += int64(done)
	m.masterBus(left[:done], right[:done])
	m.encode(p, left[:done], right[:done])
	return done * fb, m.ended
}

func (m *Mixer) render(left, right []float32) {
	mode := m.opts.Interpolation
	for _, c := range m.channels {
		if c.voice != nil {
			c.voice.render(left, right, mode)
		}
	}
	for _, v := range m.voices {
		v.render(left, right, mode)
	}
}

func (m *Mixer) skip(frames int) {
	for _, c := range m.channels {
		if c.voice != nil {
			c.voice.skip(frames)
		}
	}
	for _, v := range m.voices {
		v.skip(frames)
	}
}

// Position is the playback position in milliseconds.
func (m *Mixer) Position() int64 {
	return m.frames * 1000 / int64(m.format.SampleRate)
}

// Seek repositions to ms by replaying the song silently from the start
// (or from the current position when seeking forward).
func (m *Mixer) Seek(ms int64) {
	if ms < 0 {
		ms = 0
	}
	target := ms * int64(m.format.SampleRate) / 1000
	if target < m.frames || m.ended {
		m.restart(0)
	}
	m.fastForward(target)
}

func (m *Mixer) fastForward(target int64) {
	for m.frames < target && !m.ended {
		if m.tickLeft == 0 {
			if m.advanceTick() {
				m.ended = true
				break
			}
			m.tickLeft = m.tickLength()
		}
		n := int(min(int64(m.tickLeft), target-m.frames))
		m.skip(n)
		m.tickLeft -= n
		m.frames += int64(n)
	}
	m.fx.Reset()
	m.bus.Reset()
}

// Duration plays the song silently once through and returns its length
// in milliseconds. The playing state is restored afterwards.
func (m *Mixer) Duration() int64 {
	saved := m.frames
	loop, onEvent := m.opts.LoopSong, m.opts.OnEvent
	m.opts.LoopSong, m.opts.OnEvent = false, nil
	m.restart(0)
	for !m.ended {
		if m.advanceTick() {
			break
		}
		m.frames += int64(m.tickLength())
	}
	total := m.frames
	m.opts.LoopSong, m.opts.OnEvent = loop, onEvent
	m.restart(0)
	m.fastForward(saved)
	return total * 1000 / int64(m.format.SampleRate)
}

func (m *Mixer) emit(k EventKind) {
	if m.opts.OnEvent != nil {
		m.opts.OnEvent(k)
	}
}

// background moves v to the background voice list. The oldest background
// voice is dropped when the list is full.
func (m *Mixer) background(v *voice) {
	if len(m.voices) >= m.opts.MaxVoices {
		m.release(m.voices[0])
		m.voices = append(m.voices[:0], m.voices[1:]...)
	}
	m.voices = append(m.voices, v)
}

func (m *Mixer) allocVoice(ch int) *voice {
	if n := len(m.free); n > 0 {
		v := m.free[n-1]
		m.free = m.free[:n-1]
		v.channel = ch
		v.vibWave = lfo.New(ch)
		return v
	}
	return newVoice(m.song.Dialect, ch)
}

func (m *Mixer) release(v *voice) {
	v.active = false
	m.free = append(m.free, v)
}

// pastNotes applies an IT past-note action (cut, off, fade) to the
// background voices of channel ch.
func (m *Mixer) pastNotes(ch, action int) {
	for _, v := range m.voices {
		if v.channel != ch || !v.active {
			continue
		}
		switch action {
		case 0:
			v.stop()
		case 1:
			v.release()
		case 2:
			v.noteFade()
		}
	}
}

// updateBackground runs one tick for every background voice and drops the
// ones that have fallen silent.
func (m *Mixer) updateBackground() {
	kept := m.voices[:0]
	for _, v := range m.voices {
		if !v.active {
			m.release(v)
			continue
		}
		v.update(m)
		kept = append(kept, v)
	}
	clear(m.voices[len(kept):])
	m.voices = kept
}
