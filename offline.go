package modsynth

import (
	"errors"
	"io"

	intaudio "github.com/cbegin/modsynth-go/internal/audio"
	intmix "github.com/cbegin/modsynth-go/internal/mixer"
	intplay "github.com/cbegin/modsynth-go/internal/playback"
)

// Format describes rendered PCM.
type Format = intaudio.Format

// RenderPCM renders song without an audio device and returns the PCM
// bytes. seconds <= 0 renders the whole song once through; looping is
// never applied. Output and sink options are ignored.
func RenderPCM(song *Song, sampleRate int, seconds float64, opts ...PlayerOption) ([]byte, Format, error) {
	sink := intaudio.NewBufferSink()
	if err := renderTo(sink, song, sampleRate, seconds, opts); err != nil {
		return nil, Format{}, err
	}
	return sink.Bytes(), sink.Format(), nil
}

// RenderWAV renders song like RenderPCM and writes it as a WAV stream.
func RenderWAV(w io.WriteSeeker, song *Song, sampleRate int, seconds float64, opts ...PlayerOption) error {
	sink := intaudio.NewWAVSink(w)
	err := renderTo(sink, song, sampleRate, seconds, opts)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	return err
}

// Duration returns how long song plays once through, in milliseconds.
func Duration(song *Song, sampleRate int) (int64, error) {
	mix, err := intmix.NewWithOptions(song, intmix.Options{SampleRate: sampleRate})
	if err != nil {
		return 0, err
	}
	return mix.Duration(), nil
}

func renderTo(sink Sink, song *Song, sampleRate int, seconds float64, opts []PlayerOption) error {
	if sampleRate <= 0 {
		return errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.loopPlayback = false
	mix, err := intmix.NewWithOptions(song, cfg.mixerOptions(sampleRate))
	if err != nil {
		return err
	}
	m, err := intplay.New(mix, sink, intplay.WithLogger(cfg.logger))
	if err != nil {
		return err
	}
	if seconds > 0 {
		m.SetStopMillisecondPosition(int64(seconds * 1000))
	}
	return m.StartPlayback()
}
