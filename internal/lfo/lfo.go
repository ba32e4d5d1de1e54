// Package lfo implements the tracker modulation oscillator behind vibrato,
// tremolo, panbrello and sample auto-vibrato. Phase runs over 64 steps per
// cycle and advances once per tick.
package lfo

// Waveform numbers as stored by the set-waveform effects. Bit 2 of the
// effect operand disables the retrigger on new notes.
const (
	WaveSine     = 0
	WaveRampDown = 1
	WaveSquare   = 2
	WaveRandom   = 3
	WaveRampUp   = 4

	noRetrigger = 4
)

// Amplitude is the peak value returned by Wave.
const Amplitude = 255

var sineTable = [32]int{
	0, 24, 49, 74, 97, 120, 141, 161, 180, 197, 212, 224, 235, 244, 250, 253,
	255, 253, 250, 244, 235, 224, 212, 197, 180, 161, 141, 120, 97, 74, 49, 24,
}

// LFO is per-channel modulation state. The zero value is a sine with no
// depth.
type LFO struct {
	waveform  int
	retrigger bool
	speed     int
	depth     int
	phase     int
	seed      int
}

// New returns an LFO seeded for channel ch so that random waveforms
// differ between channels but are reproducible.
func New(ch int) *LFO {
	return &LFO{retrigger: true, seed: (ch + 1) * 0xABCDEF}
}

// SetWaveform decodes a set-waveform operand: the low two bits select the
// shape, bit 2 keeps the phase running across notes.
func (l *LFO) SetWaveform(op int) {
	l.waveform = op & 3
	l.retrigger = op&noRetrigger == 0
}

// SetShape selects any waveform directly, including WaveRampUp.
func (l *LFO) SetShape(w int) {
	if w < WaveSine || w > WaveRampUp {
		w = WaveSine
	}
	l.waveform = w
}

// Set updates speed and depth. Zero keeps the previous value, as the
// effect memory of every tracker does.
func (l *LFO) Set(speed, depth int) {
	if speed > 0 {
		l.speed = speed
	}
	if depth > 0 {
		l.depth = depth
	}
}

func (l *LFO) Speed() int { return l.speed }
func (l *LFO) Depth() int { return l.depth }

// Trigger restarts the cycle on a new note unless retrigger is disabled.
func (l *LFO) Trigger() {
	if l.retrigger {
		l.phase = 0
	}
}

// Advance moves the phase by the current speed.
func (l *LFO) Advance() { l.phase = (l.phase + l.speed) & 63 }

// AdvanceBy moves the phase by n steps.
func (l *LFO) AdvanceBy(n int) { l.phase = (l.phase + n) & 63 }

// Value returns the current waveform value scaled by depth, in
// [-Amplitude*depth, Amplitude*depth].
func (l *LFO) Value() int { return l.Wave(l.phase) * l.depth }

// Wave evaluates the waveform at phase in [-Amplitude, Amplitude].
func (l *LFO) Wave(phase int) int {
	phase &= 63
	switch l.waveform {
	case WaveRampDown:
		return Amplitude - (((phase + 32) & 63) << 3)
	case WaveRampUp:
		return (((phase + 32) & 63) << 3) - Amplitude
	case WaveSquare:
		if phase&32 != 0 {
			return -Amplitude
		}
		return Amplitude
	case WaveRandom:
		v := (l.seed >> 20) - Amplitude
		l.seed = (l.seed*65 + 17) & 0x1FFFFFFF
		return min(v, Amplitude)
	default:
		v := sineTable[phase&31]
		if phase&32 != 0 {
			v = -v
		}
		return v
	}
}

// Active reports whether the LFO modulates anything.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.speed != 0
}

// Reset zeros phase, speed and depth.
func (l *LFO) Reset() {
	l.phase = 0
	l.speed = 0
	l.depth = 0
}
