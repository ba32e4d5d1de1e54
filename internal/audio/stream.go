package audio

import (
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// pipeLatency is how much audio a realtime sink buffers ahead of the device.
const pipeLatency = 60 * time.Millisecond

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

// ebiten allows a single audio context per process, so every EbitenSink
// shares it and must agree on the sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// EbitenSink plays 16-bit stereo PCM through ebiten's audio package.
type EbitenSink struct {
	mu     sync.Mutex
	format Format
	pipe   *pipe
	player *ebitaudio.Player
}

func NewEbitenSink() *EbitenSink {
	return &EbitenSink{}
}

func (s *EbitenSink) SetAudioFormat(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Channels != 2 || f.BitsPerSample != 16 {
		return fmt.Errorf("%w: ebiten output needs 16-bit stereo, got %s", ErrUnsupportedFormat, f)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil && s.format == f {
		return nil
	}
	ctx, err := sharedAudioContext(f.SampleRate)
	if err != nil {
		return err
	}
	s.closeLocked()
	p := newPipe(f.FrameBytes()*f.FramesFor(pipeLatency.Milliseconds()), f.Silence())
	pl, err := ctx.NewPlayer(p)
	if err != nil {
		return err
	}
	pl.SetBufferSize(pipeLatency)
	s.format = f
	s.pipe = p
	s.player = pl
	return nil
}

func (s *EbitenSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return fmt.Errorf("ebiten sink: Start before SetAudioFormat")
	}
	s.player.Play()
	return nil
}

// Stop pauses the device and drops audio that was not heard yet.
func (s *EbitenSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
		s.pipe.Reset()
	}
	return nil
}

func (s *EbitenSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	pp := s.pipe
	s.mu.Unlock()
	if pp == nil {
		return 0, fmt.Errorf("ebiten sink: Write before SetAudioFormat")
	}
	return pp.Write(p)
}

// Position returns the playback position of the device, which trails the
// written position by the buffered latency.
func (s *EbitenSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return 0
	}
	return s.player.Position()
}

func (s *EbitenSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *EbitenSink) closeLocked() error {
	if s.player == nil {
		return nil
	}
	s.pipe.Close()
	s.player.Pause()
	err := s.player.Close()
	s.player = nil
	s.pipe = nil
	return err
}
