// Package scorefile loads songs from a YAML (or JSON) description. It is
// the score loader used by the command line tools and the tests: samples
// are synthesized, embedded as base64 PCM or read from WAV files, and
// pattern cells use the tracker text form ("C-5 01 v40 A0F").
package scorefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/effects"
	"github.com/cbegin/modsynth-go/internal/envelope"
	"github.com/cbegin/modsynth-go/internal/score"
)

var ErrUnknownDialect = errors.New("unknown dialect")

// Load reads and builds the score at path. WAV samples are resolved
// relative to the file's directory.
func Load(path string) (*score.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read score %v: %w", path, err)
	}
	return Parse(data, os.DirFS(filepath.Dir(path)))
}

// Decode unmarshals a document, trying JSON first and YAML second.
func Decode(data []byte) (*File, error) {
	var f File
	if errJSON := json.Unmarshal(data, &f); errJSON != nil {
		f = File{}
		if errYaml := yaml.Unmarshal(data, &f); errYaml != nil {
			return nil, fmt.Errorf("the score could not be parsed as .json (%v) or .yml (%w)", errJSON, errYaml)
		}
	}
	return &f, nil
}

// Parse decodes data and builds the song. files resolves WAV sample paths
// and may be nil when none are used.
func Parse(data []byte, files fs.FS) (*score.Song, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Build(files)
}

// Build converts the document into a validated song.
func (f *File) Build(files fs.FS) (*score.Song, error) {
	d := dialect.XM
	if f.Dialect != "" {
		var err error
		if d, err = dialect.Parse(f.Dialect); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownDialect, err)
		}
	}
	channels := f.Channels
	if channels == 0 {
		channels = f.widestPattern()
	}
	if channels < 1 || channels > score.MaxChannels {
		return nil, fmt.Errorf("channel count %d out of range 1..%d", channels, score.MaxChannels)
	}
	s := score.NewSong(d, channels)
	s.Name = f.Name
	if f.Speed > 0 {
		s.InitialSpeed = f.Speed
	}
	if f.Tempo > 0 {
		s.InitialTempo = f.Tempo
	}
	if f.GlobalVolume != nil {
		s.InitialGlobalVolume = *f.GlobalVolume
	}
	if f.MixingVolume != nil {
		s.MixingVolume = *f.MixingVolume
	}
	s.LinearFrequencies = !f.AmigaPeriods
	s.RestartPosition = f.Restart
	s.Orders = append([]int(nil), f.Orders...)
	for i := range min(len(f.Panning), channels) {
		s.ChannelPanning[i] = f.Panning[i]
	}
	for i := range min(len(f.Volume), channels) {
		s.ChannelVolume[i] = f.Volume[i]
	}
	for i, d := range f.Effects {
		if _, err := effects.Parse(d, 44100); err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
	}
	s.Effects = append([]string(nil), f.Effects...)

	for i := range f.Samples {
		smp, err := f.Samples[i].build(files)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		s.Instruments.AddSample(smp)
	}
	for i := range f.Instruments {
		ins, err := f.Instruments[i].build(d, s.Instruments.NumSamples())
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i+1, err)
		}
		s.Instruments.AddInstrument(ins)
	}
	for i, p := range f.Patterns {
		if err := p.build(s); err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	if len(s.Orders) == 0 {
		for i := range f.Patterns {
			s.Orders = append(s.Orders, i)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *File) widestPattern() int {
	n := 0
	for _, p := range f.Patterns {
		for _, r := range p.Rows {
			n = max(n, len(splitRow(r)))
		}
	}
	return n
}

func (p Pattern) build(s *score.Song) error {
	rows := max(p.Length, len(p.Rows))
	if rows == 0 {
		return errors.New("pattern has no rows")
	}
	pat, _ := s.NewPattern(rows)
	for r, text := range p.Rows {
		cells := splitRow(text)
		if len(cells) > s.Channels() {
			return fmt.Errorf("row %d has %d cells, song has %d channels", r, len(cells), s.Channels())
		}
		for ch, cell := range cells {
			e, err := score.ParseElement(s.Dialect, cell)
			if err != nil {
				return fmt.Errorf("row %d channel %d: %w", r, ch, err)
			}
			pat.Row(r).SetElement(ch, e)
		}
	}
	return nil
}

// splitRow cuts a row into its channel cells. An empty row has no cells.
func splitRow(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	cells := strings.Split(text, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func (in *Instrument) build(d dialect.Dialect, samples int) (*score.Instrument, error) {
	ins := score.NewInstrument(d)
	ins.Name = in.Name
	if in.Sample == nil && len(in.Keymap) > 0 {
		for i := range ins.SampleMap {
			ins.SampleMap[i] = -1
		}
	}
	if in.Sample != nil {
		if *in.Sample < 0 || *in.Sample >= samples {
			return nil, fmt.Errorf("sample %d does not exist", *in.Sample)
		}
		ins.SetAllSamples(*in.Sample)
	}
	for _, k := range in.Keymap {
		if k.Sample < 0 || k.Sample >= samples {
			return nil, fmt.Errorf("keymap: sample %d does not exist", k.Sample)
		}
		from, err := parseKey(k.From, 1)
		if err != nil {
			return nil, fmt.Errorf("keymap: %w", err)
		}
		to, err := parseKey(k.To, score.NoteCount)
		if err != nil {
			return nil, fmt.Errorf("keymap: %w", err)
		}
		for n := from; n <= to; n++ {
			ins.SampleMap[n-1] = k.Sample
			ins.NoteMap[n-1] = n + k.Transpose
		}
	}

	var err error
	if ins.NNA, err = parseNNA(in.NNA); err != nil {
		return nil, err
	}
	if ins.DuplicateCheck, err = parseDuplicateCheck(in.DuplicateCheck); err != nil {
		return nil, err
	}
	if ins.DuplicateAction, err = parseDuplicateAction(in.DuplicateAction); err != nil {
		return nil, err
	}
	ins.FadeOut = in.FadeOut
	if in.GlobalVolume != nil {
		ins.GlobalVolume = *in.GlobalVolume
	}
	if in.Panning != nil {
		ins.DefaultPanning = *in.Panning
	}
	if in.FilterCutoff != nil {
		ins.FilterCutoff = *in.FilterCutoff
	}
	if in.FilterResonance != nil {
		ins.FilterResonance = *in.FilterResonance
	}
	ins.RandomVolume = in.RandomVolume
	ins.RandomPanning = in.RandomPanning
	ins.PitchPanSeparation = in.PitchPanSeparation
	if in.PitchPanCenter != "" {
		if ins.PitchPanCenter, err = score.ParseNote(in.PitchPanCenter); err != nil {
			return nil, fmt.Errorf("pitch pan center: %w", err)
		}
	}
	if in.Vibrato != nil {
		ins.Vibrato = in.Vibrato.build()
	}
	in.VolumeEnvelope.apply(d, ins.VolumeEnvelope)
	in.PanningEnvelope.apply(d, ins.PanningEnvelope)
	in.PitchEnvelope.apply(d, ins.PitchEnvelope)
	ins.Sanitize()
	return ins, nil
}

func parseKey(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := score.ParseNote(s)
	if err != nil {
		return 0, err
	}
	if !score.IsPlayable(n) {
		return 0, fmt.Errorf("%q is not a playable note", s)
	}
	return n, nil
}

func (e *Envelope) apply(d dialect.Dialect, env *envelope.Envelope) {
	if e == nil {
		return
	}
	points := make([]envelope.Point, len(e.Points))
	for i, p := range e.Points {
		points[i] = envelope.Point{Position: p[0], Value: p[1] * (envelope.MaxValue / 64)}
	}
	env.SetPoints(points)
	if len(e.Loop) == 2 {
		env.SetLoop(e.Loop[0], e.Loop[1])
	}
	switch len(e.Sustain) {
	case 1:
		env.SetSustain(e.Sustain[0], e.Sustain[0])
	case 2:
		env.SetSustain(e.Sustain[0], e.Sustain[1])
	}
	if d == dialect.IT {
		env.SetITType(e.Type)
	} else {
		env.SetXMType(e.Type)
	}
}

func parseNNA(s string) (score.NNA, error) {
	switch strings.ToLower(s) {
	case "", "cut":
		return score.NNACut, nil
	case "continue":
		return score.NNAContinue, nil
	case "off", "noteoff":
		return score.NNANoteOff, nil
	case "fade", "notefade":
		return score.NNANoteFade, nil
	}
	return 0, fmt.Errorf("unknown new note action %q", s)
}

func parseDuplicateCheck(s string) (score.DuplicateCheck, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return score.DCTOff, nil
	case "note":
		return score.DCTNote, nil
	case "sample":
		return score.DCTSample, nil
	case "instrument":
		return score.DCTInstrument, nil
	}
	return 0, fmt.Errorf("unknown duplicate check %q", s)
}

func parseDuplicateAction(s string) (score.DuplicateAction, error) {
	switch strings.ToLower(s) {
	case "", "cut":
		return score.DCACut, nil
	case "off", "noteoff":
		return score.DCANoteOff, nil
	case "fade", "notefade":
		return score.DCANoteFade, nil
	}
	return 0, fmt.Errorf("unknown duplicate action %q", s)
}
