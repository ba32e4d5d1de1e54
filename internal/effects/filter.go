package effects

import "math"

// FilterOff is the cutoff value at which the resonant filter is bypassed
// when resonance is zero.
const FilterOff = 127

// Resonant is the two-pole resonant low-pass used by instruments with a
// filter cutoff and by filter envelopes. Cutoff and resonance use the
// 0..127 range of tracker effect operands.
type Resonant struct {
	fg, fb0, fb1 float32
	y1L, y2L     float32
	y1R, y2R     float32
	cutoff       int
	resonance    int
	active       bool
}

// NewResonant returns a bypassed filter.
func NewResonant() *Resonant {
	return &Resonant{cutoff: -1, resonance: -1}
}

// Set recomputes the coefficients. envelope scales the cutoff in 1/256
// units, 256 leaving it unchanged. Settings that leave the filter fully
// open bypass it.
func (f *Resonant) Set(cutoff, resonance, envelope, sampleRate int) {
	cutoff = clamp(cutoff, 0, FilterOff)
	resonance = clamp(resonance, 0, FilterOff)
	c := cutoff * clamp(envelope, 0, 512) / 256
	if c == f.cutoff && resonance == f.resonance {
		return
	}
	f.cutoff, f.resonance = c, resonance
	if c >= FilterOff && resonance == 0 {
		f.active = false
		return
	}
	c = min(c, 255)
	freq := 110.0 * math.Pow(2, 0.25+float64(c)/24.0)
	freq = math.Min(freq, float64(sampleRate)/2)
	dmp := math.Pow(10, -float64(resonance)*24.0/(128.0*20.0))
	fc := 2 * math.Pi * freq
	d := math.Min((1-2*dmp)*fc, 2)
	d = (2*dmp - d) / fc
	e := math.Pow(float64(sampleRate)/fc, 2)
	den := 1 + d + e
	f.fg = float32(1 / den)
	f.fb0 = float32((d + e + e) / den)
	f.fb1 = float32(-e / den)
	f.active = true
}

func (f *Resonant) Active() bool { return f.active }

func (f *Resonant) Process(l, r float32) (float32, float32) {
	if !f.active {
		return l, r
	}
	outL := f.fg*l + f.fb0*f.y1L + f.fb1*f.y2L
	outR := f.fg*r + f.fb0*f.y1R + f.fb1*f.y2R
	f.y2L, f.y1L = f.y1L, outL
	f.y2R, f.y1R = f.y1R, outR
	return outL, outR
}

// Reset clears the history without touching the coefficients.
func (f *Resonant) Reset() {
	f.y1L, f.y2L, f.y1R, f.y2R = 0, 0, 0, 0
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
