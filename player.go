// Package modsynth plays tracker scores (XM and IT dialects) in real time
// or renders them offline.
package modsynth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	intaudio "github.com/cbegin/modsynth-go/internal/audio"
	intfx "github.com/cbegin/modsynth-go/internal/effects"
	intmix "github.com/cbegin/modsynth-go/internal/mixer"
	intplay "github.com/cbegin/modsynth-go/internal/playback"
	intsmp "github.com/cbegin/modsynth-go/internal/sample"
	intscore "github.com/cbegin/modsynth-go/internal/score"
	intfile "github.com/cbegin/modsynth-go/internal/scorefile"
)

type (
	Song          = intscore.Song
	Sink          = intaudio.Sink
	Interpolation = intsmp.Interpolation
)

const (
	InterpolationNone   = intsmp.InterpolationNone
	InterpolationLinear = intsmp.InterpolationLinear
	InterpolationCubic  = intsmp.InterpolationCubic
	InterpolationSinc   = intsmp.InterpolationSinc
	InterpolationFIR    = intsmp.InterpolationFIR
)

// ParseInterpolation accepts the names printed by Interpolation.String.
func ParseInterpolation(name string) (Interpolation, error) {
	return intsmp.ParseInterpolation(name)
}

// LoadScore reads a YAML or JSON score file.
func LoadScore(path string) (*Song, error) {
	return intfile.Load(path)
}

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

type Output string

// OutputNone discards the audio. Nothing paces the mixer then, so a song
// plays through as fast as it can be rendered.
const (
	OutputEbiten Output = "ebiten"
	OutputOto    Output = "oto"
	OutputNone   Output = "none"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	interpolation Interpolation
	loopPlayback  bool
	output        Output
	sink          Sink
	logger        *slog.Logger
	bitsPerSample int
	separation    int
	effects       []string
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		interpolation: InterpolationLinear,
		output:        OutputEbiten,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		bitsPerSample: 16,
		separation:    100,
	}
}

func WithInterpolation(mode Interpolation) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.interpolation = mode
	}
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithOutput selects the audio device backend. It is ignored when a sink
// is given with WithSink.
func WithOutput(out Output) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.output = out
	}
}

// WithSink plays into a caller-provided sink instead of an audio device.
func WithSink(sink Sink) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sink = sink
	}
}

func WithLogger(l *slog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithBitsPerSample sets the PCM width: 8, 16 or 24. The ebiten output
// only accepts 16.
func WithBitsPerSample(bits int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bitsPerSample = bits
	}
}

// WithStereoSeparation scales the panning width in percent (0..200).
func WithStereoSeparation(percent int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.separation = percent
	}
}

// WithEffects adds insert effects after the song's own, each given as a
// directive such as "reverb 0.6,0.8,0.3" or "echo 250". Known effects are
// delay (echo), reverb, chorus, dist (distortion, overdrive), eq (tone)
// and limiter.
func WithEffects(directives ...string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = append(cfg.effects, directives...)
	}
}

func (cfg playerConfig) mixerOptions(sampleRate int) intmix.Options {
	sep := cfg.separation
	if sep <= 0 {
		// 0 selects the mixer default.
		sep = 1
	}
	return intmix.Options{
		SampleRate:       sampleRate,
		Channels:         2,
		BitsPerSample:    cfg.bitsPerSample,
		Interpolation:    cfg.interpolation,
		LoopSong:         cfg.loopPlayback,
		StereoSeparation: sep,
		Effects:          cfg.effects,
	}
}

func newSink(out Output) (Sink, error) {
	switch out {
	case OutputEbiten, "":
		return intaudio.NewEbitenSink(), nil
	case OutputOto:
		return intaudio.NewOtoSink(), nil
	case OutputNone:
		return &intaudio.DiscardSink{}, nil
	default:
		return nil, fmt.Errorf("unknown output %q (expected ebiten|oto|none)", out)
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	sink       Sink
	mixer      *intmix.Mixer
	machine    *intplay.Machine
	duration   int64
	stopAt     int64
	volume     float64
	eq         [5]float32
	err        error
	done       chan struct{}
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sink == nil {
		if _, err := newSink(cfg.output); err != nil {
			return nil, err
		}
	}
	if _, err := intfx.ParseChain(cfg.effects, sampleRate); err != nil {
		return nil, err
	}
	p := &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		sink:       cfg.sink,
		volume:     1,
	}
	for i := range p.eq {
		p.eq[i] = 1
	}
	return p, nil
}

// PlayFile loads a score file and plays it.
func (p *Player) PlayFile(path string) error {
	song, err := LoadScore(path)
	if err != nil {
		return err
	}
	return p.Play(song)
}

// Play replaces the current playback with song. It returns once the
// playback goroutine has been started; playback errors are reported by Err.
func (p *Player) Play(song *Song) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := p.cfg.mixerOptions(p.sampleRate)
	opts.OnEvent = func(kind intmix.EventKind) {
		if kind == intmix.EventLoopCompleted {
			p.sendEvent(PlaybackEvent{Kind: EventLoopCompleted})
		}
	}
	mix, err := intmix.NewWithOptions(song, opts)
	if err != nil {
		return err
	}
	mix.SetMasterVolume(float32(p.volume))
	for band, g := range p.eq {
		mix.EQ().SetGain(band, g)
	}
	duration := mix.Duration()

	if p.sink == nil {
		if p.sink, err = newSink(p.cfg.output); err != nil {
			return err
		}
	}
	m, err := intplay.New(mix, p.sink, intplay.WithLogger(p.cfg.logger))
	if err != nil {
		return err
	}
	m.SetStopMillisecondPosition(p.stopAt)

	if p.machine != nil {
		old := p.machine
		p.mu.Unlock()
		old.StopPlayback()
		p.mu.Lock()
	}
	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	done := make(chan struct{})
	p.done = done
	p.mixer = mix
	p.machine = m
	p.duration = duration
	p.err = nil
	p.cfg.logger.Debug("play", "song", song.Name, "dialect", song.Dialect, "durationMs", duration)

	go p.run(m, done)
	return nil
}

func (p *Player) run(m *intplay.Machine, done chan struct{}) {
	err := m.StartPlayback()
	if err != nil {
		p.cfg.logger.Error("playback failed", "err", err)
	}
	p.mu.Lock()
	current := p.machine == m
	if current {
		p.err = err
	}
	p.mu.Unlock()
	if current && m.HasFinished() {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	}
	p.signalDone(done)
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// signalDone closes done if it is still the current playback's channel.
func (p *Player) signalDone(done chan struct{}) {
	p.mu.Lock()
	if p.done == done {
		p.done = nil
		close(done)
	}
	p.mu.Unlock()
}

func (p *Player) currentMachine() *intplay.Machine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine
}

// Pause suspends playback and releases the output line.
func (p *Player) Pause() {
	if m := p.currentMachine(); m != nil && m.IsPlaying() {
		m.PausePlayback()
	}
}

func (p *Player) Resume() {
	if m := p.currentMachine(); m != nil && m.IsPaused() {
		m.PausePlayback()
	}
}

func (p *Player) IsPlaying() bool {
	m := p.currentMachine()
	return m != nil && m.IsPlaying()
}

func (p *Player) IsPaused() bool {
	m := p.currentMachine()
	return m != nil && m.IsPaused()
}

func (p *Player) Stop() error {
	m := p.currentMachine()
	if m == nil {
		return nil
	}
	m.StopPlayback()
	p.mu.Lock()
	err := p.err
	done := p.done
	p.done = nil
	p.machine = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Close stops playback and releases the output device. A sink passed with
// WithSink is left open.
func (p *Player) Close() error {
	err := p.Stop()
	p.mu.Lock()
	sink := p.sink
	p.sink = p.cfg.sink
	p.mu.Unlock()
	if sink != nil && sink != p.cfg.sink {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks until Stop (use Watch for loop-counting instead).
// Wait returns immediately if no playback is active or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventLoopCompleted: the song wrapped to its restart position (when looping)
//   - EventPlaybackEnded: playback finished or was stopped
//
// The channel is buffered (cap 8); receive in a goroutine to avoid blocking the mixer.
// Only the most recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// Err returns the error that ended the last playback, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Seek moves playback to ms. While paused the position is applied on
// resume.
func (p *Player) Seek(ms int64) {
	if m := p.currentMachine(); m != nil {
		m.SetMillisecondPosition(ms)
	}
}

// SetStopPosition ends playback once ms is reached; ms <= 0 clears it. It
// applies to the current and every later playback.
func (p *Player) SetStopPosition(ms int64) {
	p.mu.Lock()
	p.stopAt = ms
	m := p.machine
	p.mu.Unlock()
	if m != nil {
		m.SetStopMillisecondPosition(ms)
	}
}

// Position is the playback position in milliseconds. Returns 0 if not
// playing.
func (p *Player) Position() int64 {
	if m := p.currentMachine(); m != nil {
		return m.MillisecondPosition()
	}
	return 0
}

// Duration is the length of the current song played once through, in
// milliseconds.
func (p *Player) Duration() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.mixer != nil {
		p.mixer.SetMasterVolume(float32(volume))
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float32) {
	if band < 0 || band >= len(p.eq) || gain < 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eq[band] = gain
	if p.mixer != nil {
		p.mixer.EQ().SetGain(band, gain)
	}
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float32 {
	if band < 0 || band >= len(p.eq) {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eq[band]
}

// Levels returns the output peak levels of the most recent block.
func (p *Player) Levels() (left, right float32) {
	p.mu.Lock()
	mix := p.mixer
	p.mu.Unlock()
	if mix == nil {
		return 0, 0
	}
	return mix.Levels()
}
