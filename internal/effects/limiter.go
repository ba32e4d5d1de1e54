package effects

import "math"

// Limiter keeps the master bus below a ceiling. The gain follows the
// stereo peak with an instant attack and an exponential release; anything
// that still overshoots is bent by a soft knee instead of hard clipping.
type Limiter struct {
	ceiling float32
	release float32
	env     float32
}

// NewLimiter creates a limiter with ceiling as a linear amplitude (1 is
// full scale) and releaseMs as the time constant of the gain recovery.
func NewLimiter(sampleRate int, ceiling float32, releaseMs float64) *Limiter {
	if ceiling <= 0 {
		ceiling = 1
	}
	if releaseMs <= 0 {
		releaseMs = 50
	}
	return &Limiter{
		ceiling: ceiling,
		release: float32(1.0 - math.Exp(-1.0/(releaseMs*float64(sampleRate)/1000.0))),
	}
}

func (lm *Limiter) Ceiling() float32 { return lm.ceiling }

func (lm *Limiter) Process(l, r float32) (float32, float32) {
	peak := max(abs32(l), abs32(r))
	if peak > lm.env {
		lm.env = peak
	} else {
		lm.env += lm.release * (peak - lm.env)
	}
	if lm.env > lm.ceiling {
		g := lm.ceiling / lm.env
		l *= g
		r *= g
	}
	return lm.knee(l), lm.knee(r)
}

// knee is linear up to 3/4 of the ceiling and approaches the ceiling
// asymptotically above it.
func (lm *Limiter) knee(x float32) float32 {
	t := lm.ceiling * 0.75
	a := abs32(x)
	if a <= t {
		return x
	}
	room := lm.ceiling - t
	y := t + room*float32(math.Tanh(float64((a-t)/room)))
	if x < 0 {
		return -y
	}
	return y
}

func (lm *Limiter) Reset() { lm.env = 0 }

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
