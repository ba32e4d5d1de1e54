package mixer

import (
	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/lfo"
	"github.com/cbegin/modsynth-go/internal/sample"
	"github.com/cbegin/modsynth-go/internal/score"
)

// channel is one pattern column: the effect state of the tracker channel
// and the foreground voice it drives.
type channel struct {
	id    int
	voice *voice

	insNum int
	ins    *score.Instrument
	smp    *sample.Sample
	note   int
	nna    score.NNA

	cell  score.Element
	cmd   command
	param int

	volume     int // 0..64
	chanVolume int // 0..64
	panning    int // 0..256
	period     int
	portaDest  int
	fineTune   int
	cutoff     int
	resonance  int

	fxCount     int
	retrigCount int
	plRow       int

	portaUpParam    int
	portaDownParam  int
	tonePortaParam  int
	offsetParam     int
	highOffset      int
	vslideParam     int
	chanVslideParam int
	gvslideParam    int
	panSlideParam   int
	finePortaUp     int
	finePortaDown   int
	extraFinePorta  int
	fineVolUp       int
	fineVolDown     int
	arpeggioParam   int
	retrigVolume    int
	retrigTicks     int
	tremorOn        int
	tremorOff       int
	tempoSlide      int

	vibrato   *lfo.LFO
	tremolo   *lfo.LFO
	panbrello *lfo.LFO

	vibratoAdd   int
	tremoloAdd   int
	panbrelloAdd int
	arpeggioAdd  int
}

func newChannel(id, panning, volume int) *channel {
	return &channel{
		id:         id,
		panning:    clamp(panning, 0, 256),
		chanVolume: clamp(volume, 0, 64),
		cutoff:     -1,
		resonance:  -1,
		vibrato:    lfo.New(id),
		tremolo:    lfo.New(id + score.MaxChannels),
		panbrello:  lfo.New(id + 2*score.MaxChannels),
	}
}

func (c *channel) linear(m *Mixer) bool { return m.song.LinearFrequencies }

// row starts a new row with cell e.
func (c *channel) row(m *Mixer, e *score.Element) {
	c.cell = *e
	c.cmd, c.param = decode(e)
	c.fxCount = 0
	c.retrigCount++
	c.vibratoAdd, c.tremoloAdd, c.arpeggioAdd, c.panbrelloAdd = 0, 0, 0, 0
	if c.cmd != cmdNoteDelay || c.param == 0 {
		c.trigger(m)
		c.rowVolumeEffect()
	}
	c.rowEffect(m)
	c.refresh(m)
}

// tick runs the per-tick part of the row's effects.
func (c *channel) tick(m *Mixer) {
	c.fxCount++
	c.retrigCount++
	c.vibratoAdd = 0
	if c.cmd == cmdNoteDelay && c.fxCount == c.param {
		c.trigger(m)
		c.rowVolumeEffect()
	}
	if c.cmd != cmdNoteDelay || c.fxCount > c.param {
		c.tickVolumeEffect()
	}
	c.tickEffect(m)
	c.refresh(m)
}

func (c *channel) trigger(m *Mixer) {
	e := &c.cell
	porta := isTonePorta(e, c.cmd)
	if e.Instrument > 0 {
		if ins := m.song.Instruments.Instrument(e.Instrument); ins != nil {
			c.insNum, c.ins = e.Instrument, ins
			note := e.Note
			if !score.IsPlayable(note) {
				note = c.note
			}
			if smp, _ := m.song.Instruments.SampleFor(c.insNum, max(note, 1)); smp != nil {
				c.volume = clamp(smp.Volume, 0, 64)
				if smp.HasPanning {
					c.panning = clamp(smp.Panning, 0, 256)
				}
			}
			if ins.DefaultPanning >= 0 {
				c.panning = ins.DefaultPanning
			}
			if !score.IsPlayable(e.Note) && c.voice != nil && c.voice.active {
				c.voice.keyOn = true
				c.voice.fading = false
				c.voice.fade = score.FadeOutMax
				c.voice.volPos, c.voice.panPos = 0, 0
			}
		}
	}
	switch {
	case e.Note == score.NoteOff:
		c.keyOff()
	case e.Note == score.NoteCut:
		c.cut()
	case e.Note == score.NoteFade:
		if c.voice != nil {
			c.voice.noteFade()
		}
	case score.IsPlayable(e.Note) && c.ins != nil:
		smp, mapped := m.song.Instruments.SampleFor(c.insNum, e.Note)
		if smp == nil || smp.IsEmpty() {
			if !porta {
				c.cut()
			}
			return
		}
		if porta && c.voice != nil && c.voice.active {
			c.portaDest = notePeriod(c.linear(m), mapped, c.voice.smp.FineTune, c.voice.smp)
			return
		}
		fineTune := smp.FineTune
		if c.cmd == cmdSetFineTune {
			fineTune = c.param
		}
		c.smp, c.note, c.fineTune = smp, mapped, fineTune
		c.period = notePeriod(c.linear(m), mapped, fineTune, smp)
		c.portaDest = c.period
		c.newNote(m, e.Note)
	}
}

// newNote hands the current voice to its new-note action and starts a
// fresh one.
func (c *channel) newNote(m *Mixer, written int) {
	old := c.voice
	if old != nil && old.active {
		switch c.nna {
		case score.NNAContinue:
		case score.NNANoteOff:
			old.release()
		case score.NNANoteFade:
			old.noteFade()
		default:
			old.stop()
		}
		m.background(old)
	}
	c.duplicateCheck(m)

	offset := 0
	if c.cmd == cmdSampleOffset {
		if c.param > 0 {
			c.offsetParam = c.param
		}
		offset = c.highOffset<<16 | c.offsetParam<<8
	}

	v := m.allocVoice(c.id)
	v.start(c.insNum, c.ins, c.smp, written, offset)
	v.carryFrom(old)
	if c.cutoff >= 0 && c.ins.FilterCutoff < 0 {
		v.cutoff = c.cutoff
	}
	if c.resonance >= 0 && c.ins.FilterResonance < 0 {
		v.resonance = c.resonance
	}
	if ins := c.ins; ins.RandomVolume > 0 {
		v.randVol = max(0, 1+(2*m.rng.Float64()-1)*float64(ins.RandomVolume)/100)
	}
	if ins := c.ins; ins.RandomPanning > 0 {
		v.randPan = int((2*m.rng.Float64() - 1) * float64(ins.RandomPanning) * 4)
	}
	if ins := c.ins; ins.PitchPanSeparation != 0 {
		v.randPan += (c.note - ins.PitchPanCenter) * ins.PitchPanSeparation / 2
	}
	c.voice = v
	c.nna = c.ins.NNA
	c.vibrato.Trigger()
	c.tremolo.Trigger()
	c.panbrello.Trigger()
	c.retrigCount = 0
}

// duplicateCheck applies the instrument's duplicate action to background
// voices of this channel that play the same thing as the new note.
func (c *channel) duplicateCheck(m *Mixer) {
	ins := c.ins
	if ins == nil || ins.DuplicateCheck == score.DCTOff {
		return
	}
	for _, v := range m.voices {
		if !v.active || v.channel != c.id || v.ins != ins {
			continue
		}
		dup := false
		switch ins.DuplicateCheck {
		case score.DCTNote:
			dup = v.note == c.cell.Note
		case score.DCTSample:
			dup = v.smp == c.smp
		case score.DCTInstrument:
			dup = true
		}
		if !dup {
			continue
		}
		switch ins.DuplicateAction {
		case score.DCANoteOff:
			v.release()
		case score.DCANoteFade:
			v.noteFade()
		default:
			v.stop()
		}
	}
}

func (c *channel) keyOff() {
	if c.voice != nil {
		c.voice.release()
	}
}

func (c *channel) cut() {
	if c.voice != nil {
		c.voice.stop()
	}
	c.volume = 0
}

// rowEffect runs the first-tick part of the main effect and updates the
// effect memories.
func (c *channel) rowEffect(m *Mixer) {
	p := c.param
	switch c.cmd {
	case cmdPortaUp:
		if p > 0 {
			c.portaUpParam = p
		}
		c.portamento(m, -1, c.portaUpParam)
	case cmdPortaDown:
		if p > 0 {
			c.portaDownParam = p
		}
		c.portamento(m, 1, c.portaDownParam)
	case cmdFinePortaUp:
		if p > 0 {
			c.finePortaUp = p
		}
		c.slidePeriod(-c.finePortaUp * 4)
	case cmdFinePortaDown:
		if p > 0 {
			c.finePortaDown = p
		}
		c.slidePeriod(c.finePortaDown * 4)
	case cmdExtraFinePortaUp:
		if p > 0 {
			c.extraFinePorta = p
		}
		c.slidePeriod(-c.extraFinePorta)
	case cmdExtraFinePortaDown:
		if p > 0 {
			c.extraFinePorta = p
		}
		c.slidePeriod(c.extraFinePorta)
	case cmdTonePorta:
		if p > 0 {
			c.tonePortaParam = p
		}
	case cmdVibrato, cmdFineVibrato:
		c.vibrato.Set(p>>4, p&0xF)
		c.applyVibrato(c.cmd == cmdFineVibrato)
	case cmdTonePortaVolSlide:
		if p > 0 {
			c.vslideParam = p
		}
		c.volumeSlide(m)
	case cmdVibratoVolSlide:
		if p > 0 {
			c.vslideParam = p
		}
		c.applyVibrato(false)
		c.volumeSlide(m)
	case cmdTremolo:
		c.tremolo.Set(p>>4, p&0xF)
		c.applyTremolo()
	case cmdTremor:
		if p>>4 > 0 {
			c.tremorOn = p >> 4
		}
		if p&0xF > 0 {
			c.tremorOff = p & 0xF
		}
		c.applyTremor()
	case cmdSetPanning:
		c.panning = clamp(p, 0, 256)
	case cmdPanningSlide:
		if p > 0 {
			c.panSlideParam = p
		}
		if m.song.Dialect == dialect.IT {
			c.panningSlide(m)
		}
	case cmdPanbrello:
		c.panbrello.Set(p>>4, p&0xF)
	case cmdHighOffset:
		c.highOffset = p
	case cmdVolumeSlide:
		if p > 0 {
			c.vslideParam = p
		}
		c.volumeSlide(m)
	case cmdFineVolumeUp:
		if p > 0 {
			c.fineVolUp = p
		}
		c.volume = min(c.volume+c.fineVolUp, 64)
	case cmdFineVolumeDown:
		if p > 0 {
			c.fineVolDown = p
		}
		c.volume = max(c.volume-c.fineVolDown, 0)
	case cmdSetVolume:
		c.volume = min(p, 64)
	case cmdChannelVolume:
		c.chanVolume = min(p, 64)
	case cmdChannelVolumeSlide:
		if p > 0 {
			c.chanVslideParam = p
		}
		c.chanVolume = c.slide(c.chanVolume, c.chanVslideParam, 64, true)
	case cmdSetGlobalVolume:
		m.globalVol = p
	case cmdGlobalVolumeSlide:
		if p > 0 {
			c.gvslideParam = p
		}
		if m.song.Dialect == dialect.IT {
			m.globalVol = c.slide(m.globalVol, c.gvslideParam, 128, true)
		}
	case cmdTempoSlide:
		if p > 0 {
			c.tempoSlide = p
		}
	case cmdKeyOff:
		if p == 0 {
			c.keyOff()
		}
	case cmdSetEnvelopePos:
		if c.voice != nil {
			c.voice.volPos, c.voice.panPos = p, p
		}
	case cmdMultiRetrig:
		if p>>4 > 0 {
			c.retrigVolume = p >> 4
		}
		if p&0xF > 0 {
			c.retrigTicks = p & 0xF
		}
		c.retrigVolSlide(m)
	case cmdNoteCut:
		if p == 0 {
			c.cut()
		}
	case cmdVibratoWaveform:
		c.vibrato.SetWaveform(p)
	case cmdTremoloWaveform:
		c.tremolo.SetWaveform(p)
	case cmdPanbrelloWaveform:
		c.panbrello.SetWaveform(p)
	case cmdSetFineTune:
		if c.smp != nil && !score.IsPlayable(c.cell.Note) {
			c.fineTune = p
			c.period = notePeriod(c.linear(m), c.note, p, c.smp)
			c.portaDest = c.period
		}
	case cmdPastNote:
		m.pastNotes(c.id, p)
	case cmdSetNNA:
		c.nna = score.NNA(p)
	case cmdFilterCutoff:
		c.cutoff = p
		if c.voice != nil && (c.ins == nil || c.ins.FilterCutoff < 0) {
			c.voice.cutoff = p
		}
	case cmdArpeggio:
		if p > 0 {
			c.arpeggioParam = p
		}
	}
}

// rowVolumeEffect applies the volume column on the row's trigger tick.
func (c *channel) rowVolumeEffect() {
	op := int(c.cell.VolumeOp)
	switch c.cell.VolumeEffect {
	case score.VolSet:
		c.volume = min(op, 64)
	case score.VolFineUp:
		c.volume = min(c.volume+op, 64)
	case score.VolFineDown:
		c.volume = max(c.volume-op, 0)
	case score.VolSetPanning:
		c.panning = min(op*4, 256)
	case score.VolVibratoSpeed:
		c.vibrato.Set(op, 0)
	case score.VolVibratoDepth:
		c.vibrato.Set(0, op)
		c.applyVibrato(false)
	case score.VolTonePortamento:
		if c.cell.Dialect == dialect.IT {
			if op < len(itVolumePorta) && op > 0 {
				c.tonePortaParam = itVolumePorta[op]
			}
		} else if op > 0 {
			c.tonePortaParam = op << 4
		}
	}
}

func (c *channel) tickVolumeEffect() {
	op := int(c.cell.VolumeOp)
	switch c.cell.VolumeEffect {
	case score.VolSlideUp:
		c.volume = min(c.volume+op, 64)
	case score.VolSlideDown:
		c.volume = max(c.volume-op, 0)
	case score.VolPanSlideLeft:
		c.panning = max(c.panning-op*4, 0)
	case score.VolPanSlideRight:
		c.panning = min(c.panning+op*4, 256)
	case score.VolVibratoDepth:
		c.vibrato.Advance()
		c.applyVibrato(false)
	case score.VolTonePortamento:
		c.tonePortamento()
	case score.VolPortamentoDown:
		c.slidePeriod(op * 16)
	case score.VolPortamentoUp:
		c.slidePeriod(-op * 16)
	}
}

func (c *channel) tickEffect(m *Mixer) {
	switch c.cmd {
	case cmdPortaUp:
		c.portamento(m, -1, c.portaUpParam)
	case cmdPortaDown:
		c.portamento(m, 1, c.portaDownParam)
	case cmdTonePorta:
		c.tonePortamento()
	case cmdVibrato, cmdFineVibrato:
		c.vibrato.Advance()
		c.applyVibrato(c.cmd == cmdFineVibrato)
	case cmdTonePortaVolSlide:
		c.tonePortamento()
		c.volumeSlide(m)
	case cmdVibratoVolSlide:
		c.vibrato.Advance()
		c.applyVibrato(false)
		c.volumeSlide(m)
	case cmdTremolo:
		c.tremolo.Advance()
		c.applyTremolo()
	case cmdTremor:
		c.applyTremor()
	case cmdPanningSlide:
		c.panningSlide(m)
	case cmdPanbrello:
		c.panbrello.Advance()
		c.panbrelloAdd = c.panbrello.Value() >> 5
	case cmdVolumeSlide:
		c.volumeSlide(m)
	case cmdChannelVolumeSlide:
		c.chanVolume = c.slide(c.chanVolume, c.chanVslideParam, 64, false)
	case cmdGlobalVolumeSlide:
		if m.song.Dialect == dialect.IT {
			m.globalVol = c.slide(m.globalVol, c.gvslideParam, 128, false)
		} else {
			m.globalVol = clamp(m.globalVol+2*((c.gvslideParam>>4)-(c.gvslideParam&0xF)), 0, 128)
		}
	case cmdTempoSlide:
		if c.tempoSlide>>4 == 1 {
			m.tempo = min(m.tempo+c.tempoSlide&0xF, 255)
		} else if c.tempoSlide>>4 == 0 {
			m.tempo = max(m.tempo-c.tempoSlide&0xF, 32)
		}
	case cmdKeyOff:
		if c.fxCount == c.param {
			c.keyOff()
		}
	case cmdRetrig:
		if c.param > 0 && c.fxCount%c.param == 0 {
			c.retrigger()
		}
	case cmdMultiRetrig:
		c.retrigVolSlide(m)
	case cmdNoteCut:
		if c.fxCount == c.param {
			c.cut()
		}
	case cmdArpeggio:
		switch c.fxCount % 3 {
		case 0:
			c.arpeggioAdd = 0
		case 1:
			c.arpeggioAdd = c.arpeggioParam >> 4
		case 2:
			c.arpeggioAdd = c.arpeggioParam & 0xF
		}
	}
}

// portamento slides the period by param every tick after the first. IT
// encodes fine (Fx) and extra fine (Ex) slides in the high nibble.
func (c *channel) portamento(m *Mixer, dir, param int) {
	if m.song.Dialect == dialect.IT {
		switch param & 0xF0 {
		case 0xE0:
			if c.fxCount == 0 {
				c.slidePeriod(dir * (param & 0xF))
			}
			return
		case 0xF0:
			if c.fxCount == 0 {
				c.slidePeriod(dir * (param & 0xF) * 4)
			}
			return
		}
	}
	if c.fxCount > 0 {
		c.slidePeriod(dir * param * 4)
	}
}

func (c *channel) slidePeriod(delta int) {
	if c.period <= 0 {
		return
	}
	c.period = clamp(c.period+delta, 1, maxPeriod)
}

func (c *channel) tonePortamento() {
	if c.period <= 0 || c.portaDest <= 0 {
		return
	}
	step := c.tonePortaParam * 4
	if c.period < c.portaDest {
		c.period = min(c.period+step, c.portaDest)
	} else {
		c.period = max(c.period-step, c.portaDest)
	}
}

// volumeSlide runs Axy (XM) or Dxy (IT). IT encodes fine slides as DxF
// and DFx, applied on the first tick only.
func (c *channel) volumeSlide(m *Mixer) {
	if m.song.Dialect == dialect.IT {
		c.volume = c.slide(c.volume, c.vslideParam, 64, c.fxCount == 0)
		return
	}
	if c.fxCount > 0 {
		c.volume = clamp(c.volume+(c.vslideParam>>4)-(c.vslideParam&0xF), 0, 64)
	}
}

// slide applies an IT style xy slide to v, treating xF and Fy as fine
// slides on the first tick and anything else as a per-tick slide.
func (c *channel) slide(v, param, limit int, first bool) int {
	up, down := param>>4, param&0xF
	switch {
	case down == 0xF && up > 0:
		if first {
			v += up
		}
	case up == 0xF && down > 0:
		if first {
			v -= down
		}
	case !first:
		v += up - down
	}
	return clamp(v, 0, limit)
}

func (c *channel) panningSlide(m *Mixer) {
	x, y := c.panSlideParam>>4, c.panSlideParam&0xF
	if m.song.Dialect == dialect.XM {
		if c.fxCount > 0 {
			c.panning = clamp(c.panning+x-y, 0, 256)
		}
		return
	}
	// IT: x slides left, y slides right, with fine variants on tick 0.
	switch {
	case y == 0xF && x > 0:
		if c.fxCount == 0 {
			c.panning -= x * 4
		}
	case x == 0xF && y > 0:
		if c.fxCount == 0 {
			c.panning += y * 4
		}
	case c.fxCount > 0:
		c.panning += (y - x) * 4
	}
	c.panning = clamp(c.panning, 0, 256)
}

func (c *channel) applyVibrato(fine bool) {
	shift := 5
	if fine {
		shift = 7
	}
	c.vibratoAdd = c.vibrato.Value() >> shift
}

func (c *channel) applyTremolo() {
	c.tremoloAdd = c.tremolo.Value() >> 6
}

func (c *channel) applyTremor() {
	if c.retrigCount >= c.tremorOn {
		c.tremoloAdd = -64
	}
	if c.retrigCount >= c.tremorOn+c.tremorOff {
		c.tremoloAdd = 0
		c.retrigCount = 0
	}
}

func (c *channel) retrigger() {
	if v := c.voice; v != nil && v.smp != nil && !v.stopping {
		v.cursor = sample.Cursor{}
		v.active = true
	}
}

func (c *channel) retrigVolSlide(m *Mixer) {
	if c.retrigTicks == 0 || c.retrigCount < c.retrigTicks {
		return
	}
	c.retrigCount = 0
	c.retrigger()
	switch c.retrigVolume {
	case 0x1, 0x2, 0x3, 0x4, 0x5:
		c.volume -= 1 << (c.retrigVolume - 1)
	case 0x6:
		c.volume -= c.volume / 3
	case 0x7:
		c.volume >>= 1
	case 0x9, 0xA, 0xB, 0xC, 0xD:
		c.volume += 1 << (c.retrigVolume - 9)
	case 0xE:
		c.volume += c.volume >> 1
	case 0xF:
		c.volume <<= 1
	}
	c.volume = clamp(c.volume, 0, 64)
}

// refresh pushes the channel's pitch, volume and panning into the
// foreground voice and lets it compute its tick.
func (c *channel) refresh(m *Mixer) {
	v := c.voice
	if v == nil {
		return
	}
	if !v.active {
		c.voice = nil
		m.release(v)
		return
	}
	if v.smp == nil {
		return
	}
	freq := periodFrequency(c.linear(m), c.period+c.vibratoAdd, v.smp.BaseFrequency)
	if c.arpeggioAdd != 0 {
		freq *= semitoneRatio(float64(c.arpeggioAdd))
	}
	v.freq = freq
	vol := clamp(c.volume+c.tremoloAdd, 0, 64)
	amp := float64(vol) / 64 * float64(c.chanVolume) / 64
	amp *= float64(v.smp.GlobalVolume) / 64
	if v.ins != nil {
		amp *= float64(v.ins.GlobalVolume) / 128
	}
	amp *= float64(m.globalVol) / 128 * float64(m.song.MixingVolume) / 128
	v.volume = amp
	v.pan = clamp(c.panning+c.panbrelloAdd, 0, 256)
	v.update(m)
}
