package mixer

import (
	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/effects"
	"github.com/cbegin/modsynth-go/internal/envelope"
	"github.com/cbegin/modsynth-go/internal/lfo"
	"github.com/cbegin/modsynth-go/internal/sample"
	"github.com/cbegin/modsynth-go/internal/score"
)

const (
	// rampFrames is the length of the gain ramp applied whenever a
	// voice's volume or panning changes.
	rampFrames = 64
	// headroom scales every voice so that two full-scale voices panned
	// to the same side reach full scale.
	headroom   = 0.5
	sampleUnit = 1.0 / (1 << 31)
)

// voice is one sounding sample. Each channel owns a foreground voice that
// its effects drive; new-note actions move it to the background where it
// only follows its envelopes until it falls silent.
type voice struct {
	dialect dialect.Dialect
	channel int
	insNum  int
	ins     *score.Instrument
	smp     *sample.Sample
	note    int

	cursor sample.Cursor
	inc    int
	keyOn  bool
	fading bool
	fade   int

	volPos   int
	panPos   int
	pitchPos int
	autoVib  int
	vibWave  *lfo.LFO

	filter    *effects.Resonant
	cutoff    int
	resonance int

	randVol float64
	randPan int

	// Refreshed by the owning channel every tick while in the foreground.
	freq   float64
	volume float64
	pan    int

	gainL, gainR float32
	stepL, stepR float32
	ramp         int
	stopping     bool
	active       bool
}

func newVoice(d dialect.Dialect, ch int) *voice {
	return &voice{
		dialect: d,
		channel: ch,
		filter:  effects.NewResonant(),
		vibWave: lfo.New(ch),
	}
}

// start triggers smp from the beginning of its data, or from offset
// frames in.
func (v *voice) start(insNum int, ins *score.Instrument, smp *sample.Sample, note, offset int) {
	v.insNum = insNum
	v.ins = ins
	v.smp = smp
	v.note = note
	v.cursor = sample.Cursor{}
	if offset > 0 {
		if offset >= smp.Len() {
			v.cursor.Ended = true
		} else {
			v.cursor.Pos = offset
		}
	}
	v.keyOn = true
	v.fading = false
	v.fade = score.FadeOutMax
	v.volPos, v.panPos, v.pitchPos = 0, 0, 0
	v.autoVib = 0
	v.cutoff, v.resonance = -1, -1
	if ins != nil {
		v.cutoff, v.resonance = ins.FilterCutoff, ins.FilterResonance
	}
	v.filter.Reset()
	v.randVol, v.randPan = 1, 0
	v.stopping = false
	v.active = !v.cursor.Ended
	v.gainL, v.gainR = 0, 0
	v.ramp = 0
}

// carryFrom continues the envelopes of prev where the instrument asks for
// it.
func (v *voice) carryFrom(prev *voice) {
	if prev == nil || !prev.active || prev.ins != v.ins || v.ins == nil {
		return
	}
	if v.ins.VolumeEnvelope.Carry() {
		v.volPos = prev.volPos
	}
	if v.ins.PanningEnvelope.Carry() {
		v.panPos = prev.panPos
	}
	if v.ins.PitchEnvelope.Carry() {
		v.pitchPos = prev.pitchPos
	}
}

// release lifts the key. Sample playback leaves the sustain loop and the
// envelopes leave their sustain range.
func (v *voice) release() {
	if !v.keyOn {
		return
	}
	v.keyOn = false
	if v.smp != nil && v.smp.Sustain.Active() {
		// The main loop has not been entered yet.
		v.cursor.InLoop = false
	}
	if v.ins == nil {
		v.stop()
		return
	}
	if v.dialect == dialect.XM && !v.ins.VolumeEnvelope.Enabled() {
		v.stop()
		return
	}
	v.fading = true
}

func (v *voice) noteFade() { v.fading = true }

// stop ramps the voice down and then frees it.
func (v *voice) stop() {
	v.stopping = true
	v.setGains(0, 0)
}

// update advances the voice by one tick: envelopes, fade-out, auto
// vibrato, the filter and the output gains.
func (v *voice) update(m *Mixer) {
	if !v.active || v.stopping {
		return
	}
	freq := v.freq
	amp := v.volume * v.randVol
	pan := clamp(v.pan+v.randPan, 0, 256)
	filterScale := 256
	if ins := v.ins; ins != nil {
		if env := ins.VolumeEnvelope; env.Enabled() {
			val := env.ValueAt(v.volPos)
			amp *= float64(val) / envelope.MaxValue
			v.volPos = env.Advance(v.volPos, !v.keyOn)
			if val == 0 && env.IsFinished(v.volPos) {
				v.stop()
				return
			}
		}
		if v.fading {
			v.fade -= ins.FadeOut
			if v.fade <= 0 {
				v.fade = 0
				v.stop()
				return
			}
		}
		amp *= float64(v.fade) / score.FadeOutMax
		if env := ins.PanningEnvelope; env.Enabled() {
			val := env.ValueAt(v.panPos) - envelope.MaxValue/2
			width := min(pan, 256-pan)
			pan += width * val / (envelope.MaxValue / 2)
			v.panPos = env.Advance(v.panPos, !v.keyOn)
		}
		if env := ins.PitchEnvelope; env.Enabled() {
			val := env.ValueAt(v.pitchPos)
			if env.IsFilter() {
				filterScale = val / 2
			} else {
				freq *= semitoneRatio(float64(val-envelope.MaxValue/2) / 8)
			}
			v.pitchPos = env.Advance(v.pitchPos, !v.keyOn)
		}
		freq *= v.autoVibrato()
	}
	v.inc = increment(freq, m.format.SampleRate)

	if v.cutoff >= 0 || v.resonance >= 0 || filterScale != 256 {
		cutoff := v.cutoff
		if cutoff < 0 {
			cutoff = effects.FilterOff
		}
		v.filter.Set(cutoff, max(v.resonance, 0), filterScale, m.format.SampleRate)
	}

	pan = 128 + (pan-128)*m.opts.StereoSeparation/100
	pan = clamp(pan, 0, 256)
	g := float32(amp * headroom)
	v.setGains(g*float32(256-pan)/256, g*float32(pan)/256)
}

// autoVibrato returns the frequency ratio of the sample or instrument
// auto-vibrato for the current tick.
func (v *voice) autoVibrato() float64 {
	vib := v.smp.Vibrato
	if vib.Depth == 0 && v.ins != nil {
		vib = v.ins.Vibrato
	}
	depth := vib.Depth & 0x7F
	if depth == 0 {
		return 1
	}
	if sweep := vib.Sweep & 0x7F; v.autoVib < sweep {
		depth = depth * v.autoVib / sweep
	}
	v.vibWave.SetShape(autoVibratoShapes[vib.Type&3])
	add := v.vibWave.Wave(v.autoVib*(vib.Rate&0x7F)>>2) * depth >> 8
	v.autoVib++
	return semitoneRatio(float64(add) / semitoneUnit)
}

// Auto-vibrato types are sine, square, ramp down and ramp up.
var autoVibratoShapes = [4]int{lfo.WaveSine, lfo.WaveSquare, lfo.WaveRampDown, lfo.WaveRampUp}

func (v *voice) setGains(l, r float32) {
	v.stepL = (l - v.gainL) / rampFrames
	v.stepR = (r - v.gainR) / rampFrames
	v.ramp = rampFrames
}

// render adds frames of the voice to left and right.
func (v *voice) render(left, right []float32, mode sample.Interpolation) {
	for i := range left {
		if !v.active {
			return
		}
		if v.inc != 0 {
			l, r := v.smp.Read(mode, v.inc, &v.cursor, v.keyOn)
			fl := float32(l) * sampleUnit
			fr := float32(r) * sampleUnit
			fl, fr = v.filter.Process(fl, fr)
			left[i] += fl * v.gainL
			right[i] += fr * v.gainR
			v.smp.Step(&v.cursor, v.inc, v.keyOn)
		}
		v.advanceRamp()
		if v.cursor.Ended {
			v.active = false
		}
	}
}

// skip advances the voice by frames without producing audio.
func (v *voice) skip(frames int) {
	if !v.active {
		return
	}
	if v.inc != 0 {
		v.smp.Skip(&v.cursor, v.inc, v.keyOn, frames)
	}
	for i := 0; i < frames && v.ramp > 0; i++ {
		v.advanceRamp()
	}
	if v.cursor.Ended || (v.stopping && v.ramp == 0) {
		v.active = false
	}
}

func (v *voice) advanceRamp() {
	if v.ramp == 0 {
		return
	}
	v.gainL += v.stepL
	v.gainR += v.stepR
	v.ramp--
	if v.ramp == 0 && v.stopping {
		v.gainL, v.gainR = 0, 0
		v.active = false
	}
}
