package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoSink plays PCM through oto directly. Unlike ebiten it accepts mono
// and 8-bit output.
type OtoSink struct {
	mu     sync.Mutex
	ctx    *oto.Context
	format Format
	pipe   *pipe
	player *oto.Player
}

func NewOtoSink() *OtoSink {
	return &OtoSink{}
}

func otoFormat(f Format) (oto.Format, error) {
	switch f.BitsPerSample {
	case 8:
		return oto.FormatUnsignedInt8, nil
	case 16:
		return oto.FormatSignedInt16LE, nil
	default:
		return 0, fmt.Errorf("%w: oto output cannot play %d-bit PCM", ErrUnsupportedFormat, f.BitsPerSample)
	}
}

// SetAudioFormat creates the oto context on first use. oto, like ebiten,
// allows one context per process, so later sessions must keep its format.
func (s *OtoSink) SetAudioFormat(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	of, err := otoFormat(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       of,
			BufferSize:   pipeLatency,
		})
		if err != nil {
			return fmt.Errorf("cannot create oto context: %w", err)
		}
		<-ready
		s.ctx = ctx
		s.format = f
	}
	if s.format != f {
		return fmt.Errorf("%w: oto context is %s, requested %s", ErrUnsupportedFormat, s.format, f)
	}
	if s.player == nil {
		s.pipe = newPipe(f.FrameBytes()*f.FramesFor(pipeLatency.Milliseconds()), f.Silence())
		s.player = s.ctx.NewPlayer(s.pipe)
	}
	return nil
}

func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return fmt.Errorf("oto sink: Start before SetAudioFormat")
	}
	s.player.Play()
	return nil
}

func (s *OtoSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
		s.pipe.Reset()
	}
	return nil
}

func (s *OtoSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	pp := s.pipe
	s.mu.Unlock()
	if pp == nil {
		return 0, fmt.Errorf("oto sink: Write before SetAudioFormat")
	}
	return pp.Write(p)
}

func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	s.pipe.Close()
	s.player.Pause()
	err := s.player.Close()
	s.player = nil
	s.pipe = nil
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
