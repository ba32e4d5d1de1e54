package effects

import "math"

// Overdrive is a tanh waveshaper with a one-pole low-pass to tame the
// added harmonics.
type Overdrive struct {
	drive, level float32
	alpha        float32 // 0 = no low-pass
	lpL, lpR     float32
}

// NewOverdrive creates a waveshaper. cutoffHz <= 0 or above Nyquist
// disables the low-pass.
func NewOverdrive(sampleRate int, drive, level, cutoffHz float32) *Overdrive {
	o := &Overdrive{drive: drive, level: level}
	if cutoffHz > 0 && cutoffHz < float32(sampleRate)/2 {
		o.alpha = onePoleAlpha(float64(cutoffHz), sampleRate)
	}
	return o
}

func (o *Overdrive) Process(l, r float32) (float32, float32) {
	l = float32(math.Tanh(float64(l*o.drive))) * o.level
	r = float32(math.Tanh(float64(r*o.drive))) * o.level
	if o.alpha == 0 {
		return l, r
	}
	o.lpL += o.alpha * (l - o.lpL)
	o.lpR += o.alpha * (r - o.lpR)
	return o.lpL, o.lpR
}

func (o *Overdrive) Reset() { o.lpL, o.lpR = 0, 0 }

// onePoleAlpha is the smoothing factor of an RC low-pass at freq.
func onePoleAlpha(freq float64, sampleRate int) float32 {
	rc := 1 / (2 * math.Pi * freq)
	dt := 1 / float64(sampleRate)
	return float32(dt / (rc + dt))
}
