package score

import (
	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/envelope"
	"github.com/cbegin/modsynth-go/internal/sample"
)

// NNA is the new-note action: what happens to a still-sounding voice when
// its channel triggers another note.
type NNA int

const (
	NNACut NNA = iota
	NNAContinue
	NNANoteOff
	NNANoteFade
)

func (a NNA) String() string {
	switch a {
	case NNAContinue:
		return "continue"
	case NNANoteOff:
		return "off"
	case NNANoteFade:
		return "fade"
	default:
		return "cut"
	}
}

// DuplicateCheck selects what makes a background voice a duplicate of a
// new note on the same channel.
type DuplicateCheck int

const (
	DCTOff DuplicateCheck = iota
	DCTNote
	DCTSample
	DCTInstrument
)

// DuplicateAction is applied to voices found by the duplicate check.
type DuplicateAction int

const (
	DCACut DuplicateAction = iota
	DCANoteOff
	DCANoteFade
)

// FadeOutMax is the full-scale fade-out volume. Instrument.FadeOut is
// subtracted from it every tick once the key is released.
const FadeOutMax = 65536

type Instrument struct {
	Name string

	// SampleMap selects the sample for each note, as a 0-based index into
	// the container's sample list; -1 plays nothing. NoteMap transposes
	// the played note (IT note/sample keyboard).
	SampleMap [NoteCount]int
	NoteMap   [NoteCount]int

	NNA             NNA
	DuplicateCheck  DuplicateCheck
	DuplicateAction DuplicateAction

	// PitchPanSeparation (-32..32) pans notes away from PitchPanCenter.
	PitchPanSeparation int
	PitchPanCenter     int

	RandomVolume  int // percent, 0..100
	RandomPanning int // 0..64

	VolumeEnvelope  *envelope.Envelope
	PanningEnvelope *envelope.Envelope
	PitchEnvelope   *envelope.Envelope

	FadeOut int

	// FilterCutoff and FilterResonance are 0..127, -1 when unset.
	FilterCutoff    int
	FilterResonance int

	GlobalVolume   int // 0..128
	DefaultPanning int // 0..256, -1 when unset

	// Vibrato is the instrument-level auto-vibrato (XM). IT keeps it on the
	// sample instead.
	Vibrato sample.AutoVibrato
}

// NewInstrument returns an instrument that maps every note to sample 0
// untransposed, with inert envelopes of dialect d.
func NewInstrument(d dialect.Dialect) *Instrument {
	ins := &Instrument{
		PitchPanCenter:  61,
		FilterCutoff:    -1,
		FilterResonance: -1,
		GlobalVolume:    128,
		DefaultPanning:  -1,
		VolumeEnvelope:  envelope.New(envelope.Volume),
		PanningEnvelope: envelope.New(envelope.Panning),
		PitchEnvelope:   envelope.New(envelope.Pitch),
	}
	for i := range ins.NoteMap {
		ins.NoteMap[i] = i + 1
	}
	if d == dialect.IT {
		ins.VolumeEnvelope.SetITType(0)
		ins.PanningEnvelope.SetITType(0)
		ins.PitchEnvelope.SetITType(0)
	} else {
		ins.VolumeEnvelope.SetXMType(0)
		ins.PanningEnvelope.SetXMType(0)
		ins.PitchEnvelope.SetXMType(0)
	}
	return ins
}

// Resolve returns the sample index and the transposed note for a played
// note. ok is false when the note is not playable or maps to no sample.
func (ins *Instrument) Resolve(note int) (sampleIndex, mapped int, ok bool) {
	if !IsPlayable(note) {
		return -1, note, false
	}
	sampleIndex = ins.SampleMap[note-1]
	mapped = ins.NoteMap[note-1]
	if !IsPlayable(mapped) {
		mapped = note
	}
	return sampleIndex, mapped, sampleIndex >= 0
}

// SetAllSamples maps every note to the same sample.
func (ins *Instrument) SetAllSamples(index int) {
	for i := range ins.SampleMap {
		ins.SampleMap[i] = index
	}
}

// Sanitize clamps the instrument's fields and envelopes into range. Missing
// envelopes are replaced by inert ones.
func (ins *Instrument) Sanitize() {
	for i := range ins.NoteMap {
		if !IsPlayable(ins.NoteMap[i]) {
			ins.NoteMap[i] = i + 1
		}
	}
	ins.PitchPanSeparation = clamp(ins.PitchPanSeparation, -32, 32)
	ins.PitchPanCenter = clamp(ins.PitchPanCenter, 1, NoteCount)
	ins.RandomVolume = clamp(ins.RandomVolume, 0, 100)
	ins.RandomPanning = clamp(ins.RandomPanning, 0, 64)
	ins.FadeOut = clamp(ins.FadeOut, 0, FadeOutMax)
	ins.GlobalVolume = clamp(ins.GlobalVolume, 0, 128)
	if ins.FilterCutoff > 127 {
		ins.FilterCutoff = 127
	}
	if ins.FilterResonance > 127 {
		ins.FilterResonance = 127
	}
	if ins.DefaultPanning > 256 {
		ins.DefaultPanning = 256
	}
	for _, env := range []**envelope.Envelope{&ins.VolumeEnvelope, &ins.PanningEnvelope, &ins.PitchEnvelope} {
		if *env == nil {
			*env = envelope.New(envelopeKind(env, ins))
			continue
		}
		(*env).Sanitize()
	}
}

func envelopeKind(env **envelope.Envelope, ins *Instrument) envelope.Kind {
	switch env {
	case &ins.PanningEnvelope:
		return envelope.Panning
	case &ins.PitchEnvelope:
		return envelope.Pitch
	default:
		return envelope.Volume
	}
}

// InstrumentsContainer owns the instruments and the samples they reference.
type InstrumentsContainer struct {
	instruments []*Instrument
	samples     []*sample.Sample
}

func NewInstrumentsContainer() *InstrumentsContainer {
	return &InstrumentsContainer{}
}

// AddInstrument appends ins and returns its 1-based number.
func (c *InstrumentsContainer) AddInstrument(ins *Instrument) int {
	c.instruments = append(c.instruments, ins)
	return len(c.instruments)
}

// AddSample appends s and returns its 0-based index.
func (c *InstrumentsContainer) AddSample(s *sample.Sample) int {
	c.samples = append(c.samples, s)
	return len(c.samples) - 1
}

// Instrument looks up a 1-based instrument number. 0 and numbers past the
// end return nil.
func (c *InstrumentsContainer) Instrument(n int) *Instrument {
	if n < 1 || n > len(c.instruments) {
		return nil
	}
	return c.instruments[n-1]
}

// Sample looks up a 0-based sample index, nil when out of range.
func (c *InstrumentsContainer) Sample(i int) *sample.Sample {
	if i < 0 || i >= len(c.samples) {
		return nil
	}
	return c.samples[i]
}

func (c *InstrumentsContainer) NumInstruments() int { return len(c.instruments) }
func (c *InstrumentsContainer) NumSamples() int     { return len(c.samples) }

// SampleFor resolves instrument n and note to a sample and transposed note.
func (c *InstrumentsContainer) SampleFor(n, note int) (*sample.Sample, int) {
	ins := c.Instrument(n)
	if ins == nil {
		return nil, note
	}
	idx, mapped, ok := ins.Resolve(note)
	if !ok {
		return nil, mapped
	}
	return c.Sample(idx), mapped
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
