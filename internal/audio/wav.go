package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSink writes the session to a RIFF/WAVE stream. The header is
// finalized by Close, so w must be seekable.
type WAVSink struct {
	w      io.WriteSeeker
	enc    *wav.Encoder
	format Format
	buf    *goaudio.IntBuffer
	frames int64
}

func NewWAVSink(w io.WriteSeeker) *WAVSink {
	return &WAVSink{w: w}
}

func (s *WAVSink) SetAudioFormat(f Format) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if s.enc != nil {
		if f != s.format {
			return fmt.Errorf("%w: wav stream already started as %s", ErrUnsupportedFormat, s.format)
		}
		return nil
	}
	s.format = f
	s.enc = wav.NewEncoder(s.w, f.SampleRate, f.BitsPerSample, f.Channels, 1)
	s.buf = &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: f.Channels,
			SampleRate:  f.SampleRate,
		},
		SourceBitDepth: f.BitsPerSample,
	}
	return nil
}

func (s *WAVSink) Start() error { return nil }
func (s *WAVSink) Stop() error  { return nil }

func (s *WAVSink) Write(p []byte) (int, error) {
	if s.enc == nil {
		return 0, fmt.Errorf("wav sink: Write before SetAudioFormat")
	}
	bps := s.format.BytesPerSample()
	n := len(p) / s.format.FrameBytes() * s.format.FrameBytes()
	data := s.buf.Data[:0]
	for i := 0; i < n; i += bps {
		data = append(data, decodeSample(p[i:i+bps]))
	}
	s.buf.Data = data
	if err := s.enc.Write(s.buf); err != nil {
		return 0, fmt.Errorf("wav sink: %w", err)
	}
	s.frames += int64(n / s.format.FrameBytes())
	return n, nil
}

// Frames returns the number of frames written so far.
func (s *WAVSink) Frames() int64 { return s.frames }

func (s *WAVSink) Close() error {
	if s.enc == nil {
		return nil
	}
	err := s.enc.Close()
	s.enc = nil
	return err
}

// decodeSample reads one PCM sample in the Format byte convention as the
// integer go-audio expects. 8-bit values stay unsigned, the way WAV stores
// them.
func decodeSample(b []byte) int {
	switch len(b) {
	case 1:
		return int(b[0])
	case 2:
		return int(int16(uint16(b[0]) | uint16(b[1])<<8))
	default:
		v := int32(uint32(b[0])<<8 | uint32(b[1])<<16 | uint32(b[2])<<24)
		return int(v >> 8)
	}
}
