package scorefile

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/go-audio/wav"

	"github.com/cbegin/modsynth-go/internal/sample"
)

const (
	defaultLength = 256
	defaultPeriod = 32
)

func (s *Sample) build(files fs.FS) (*sample.Sample, error) {
	smp := sample.New(0, false)
	smp.Name = s.Name
	sources := 0
	for _, set := range []bool{s.Waveform != "", s.PCM != "", s.WAV != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("waveform, pcm and wav are mutually exclusive")
	}
	var err error
	switch {
	case s.PCM != "":
		err = s.loadPCM(smp)
	case s.WAV != "":
		err = s.loadWAV(smp, files)
	case s.Waveform != "":
		err = s.synthesize(smp)
	}
	if err != nil {
		return nil, err
	}

	if s.BaseFrequency > 0 {
		smp.BaseFrequency = s.BaseFrequency
	}
	smp.RelativeNote = s.RelativeNote
	smp.FineTune = s.FineTune
	if s.Volume != nil {
		smp.Volume = max(0, min(*s.Volume, 64))
	}
	if s.GlobalVolume != nil {
		smp.GlobalVolume = max(0, min(*s.GlobalVolume, 64))
	}
	if s.Panning != nil {
		smp.Panning = max(0, min(*s.Panning, 256))
		smp.HasPanning = true
	}
	if s.Vibrato != nil {
		smp.Vibrato = s.Vibrato.build()
	}
	if s.Loop != nil {
		kind, err := parseLoopKind(s.Loop.Kind)
		if err != nil {
			return nil, err
		}
		smp.SetLoop(kind, s.Loop.Start, s.Loop.End)
	}
	if s.Sustain != nil {
		kind, err := parseLoopKind(s.Sustain.Kind)
		if err != nil {
			return nil, err
		}
		smp.SetSustainLoop(kind, s.Sustain.Start, s.Sustain.End)
	}
	smp.FixSampleLoops()
	return smp, nil
}

func (s *Sample) loadPCM(smp *sample.Sample) error {
	raw, err := base64.StdEncoding.DecodeString(s.PCM)
	if err != nil {
		return fmt.Errorf("pcm: %w", err)
	}
	enc := sample.PCMEncoding{
		Bits:      s.Encoding.Bits,
		Unsigned:  s.Encoding.Unsigned,
		BigEndian: s.Encoding.BigEndian,
		Delta:     s.Encoding.Delta,
		Stereo:    s.Encoding.Stereo,
	}
	if enc.Bits == 0 {
		enc.Bits = 8
	}
	return smp.LoadPCM(raw, enc)
}

// loadWAV decodes a PCM WAV file. Its sample rate becomes the C-5 rate
// unless the score sets one.
func (s *Sample) loadWAV(smp *sample.Sample, files fs.FS) error {
	if files == nil {
		return fmt.Errorf("wav %v: no file system to read from", s.WAV)
	}
	data, err := fs.ReadFile(files, s.WAV)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return fmt.Errorf("invalid WAV file: %s", s.WAV)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("wav %v: %w", s.WAV, err)
	}
	bits := int(decoder.BitDepth)
	if bits != 8 && bits != 16 && bits != 24 && bits != 32 {
		return fmt.Errorf("wav %v: unsupported bit depth %d", s.WAV, bits)
	}
	channels := buf.Format.NumChannels
	if channels < 1 || channels > 2 {
		return fmt.Errorf("wav %v: unsupported channel count %d", s.WAV, channels)
	}
	frames := len(buf.Data) / channels
	smp.AllocSampleData(frames, channels == 2)
	dst := [][]int32{smp.Left(), smp.Right()}
	for i, v := range buf.Data[:frames*channels] {
		if bits == 8 {
			v -= 128
		}
		dst[i%channels][i/channels] = int32(v << (32 - bits))
	}
	smp.BaseFrequency = buf.Format.SampleRate
	return nil
}

// synthesize fills Length frames with a repeating single-cycle waveform
// at full 16-bit scale.
func (s *Sample) synthesize(smp *sample.Sample) error {
	length, period := s.Length, s.Period
	if length <= 0 {
		length = defaultLength
	}
	if period <= 0 {
		period = defaultPeriod
	}
	var wave func(phase float64) float64
	switch strings.ToLower(s.Waveform) {
	case "sine":
		wave = func(p float64) float64 { return math.Sin(2 * math.Pi * p) }
	case "square":
		wave = func(p float64) float64 {
			if p < 0.5 {
				return 1
			}
			return -1
		}
	case "saw":
		wave = func(p float64) float64 { return 2*p - 1 }
	case "triangle":
		wave = func(p float64) float64 { return 1 - 4*math.Abs(p-0.5) }
	case "noise":
		rng := rand.New(rand.NewPCG(uint64(length), uint64(period)))
		wave = func(float64) float64 { return 2*rng.Float64() - 1 }
	default:
		return fmt.Errorf("unknown waveform %q", s.Waveform)
	}
	smp.AllocSampleData(length, false)
	data := smp.Left()
	for i := range data {
		v := int32(math.Round(wave(float64(i%period)/float64(period)) * math.MaxInt16))
		data[i] = v << 16
	}
	return nil
}

func parseLoopKind(s string) (sample.LoopKind, error) {
	switch strings.ToLower(s) {
	case "", "normal", "forward":
		return sample.LoopNormal, nil
	case "pingpong", "bidi":
		return sample.LoopPingPong, nil
	case "none", "off":
		return sample.LoopNone, nil
	}
	return sample.LoopNone, fmt.Errorf("unknown loop kind %q", s)
}

func (v *AutoVibrato) build() sample.AutoVibrato {
	return sample.AutoVibrato{Type: v.Type, Sweep: v.Sweep, Depth: v.Depth, Rate: v.Rate}
}
