package audio

import (
	"errors"
	"fmt"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes interleaved PCM bytes. 8-bit samples are unsigned,
// 16- and 24-bit samples are signed little-endian.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

func (f Format) Validate() error {
	if f.SampleRate < 8000 || f.SampleRate > 192000 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, f.Channels)
	}
	switch f.BitsPerSample {
	case 8, 16, 24:
	default:
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, f.BitsPerSample)
	}
	return nil
}

func (f Format) BytesPerSample() int { return f.BitsPerSample / 8 }
func (f Format) FrameBytes() int     { return f.Channels * f.BytesPerSample() }

// FramesFor returns the number of frames covering ms milliseconds.
func (f Format) FramesFor(ms int64) int { return int(ms * int64(f.SampleRate) / 1000) }

// Millis converts a frame count into milliseconds.
func (f Format) Millis(frames int64) int64 { return frames * 1000 / int64(f.SampleRate) }

// Silence is the byte value of a zero sample.
func (f Format) Silence() byte {
	if f.BitsPerSample == 8 {
		return 0x80
	}
	return 0
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d-bit, %d ch", f.SampleRate, f.BitsPerSample, f.Channels)
}

// Sink consumes the PCM produced by a playback session. SetAudioFormat is
// called once per session before Start; Start and Stop acquire and release
// the output line and may be called repeatedly (pause, seek).
type Sink interface {
	SetAudioFormat(f Format) error
	Start() error
	Stop() error
	Write(p []byte) (int, error)
	Close() error
}
