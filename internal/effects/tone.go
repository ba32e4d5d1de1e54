package effects

// Tone is a three-band tone control split by two one-pole crossovers. It
// is an insert effect; the master equalizer is EQ5Band.
type Tone struct {
	low, mid, high float32
	alphaLow       float32
	alphaHigh      float32
	lowL, lowR     float32
	restL, restR   float32
}

// NewTone creates a tone control with linear band gains and crossover
// frequencies lowHz < highHz.
func NewTone(sampleRate int, low, mid, high, lowHz, highHz float32) *Tone {
	return &Tone{
		low:       max(low, 0),
		mid:       max(mid, 0),
		high:      max(high, 0),
		alphaLow:  onePoleAlpha(float64(max(lowHz, 1)), sampleRate),
		alphaHigh: onePoleAlpha(float64(max(highHz, 1)), sampleRate),
	}
}

func (t *Tone) Process(l, r float32) (float32, float32) {
	return t.band(l, &t.lowL, &t.restL), t.band(r, &t.lowR, &t.restR)
}

func (t *Tone) band(x float32, low, rest *float32) float32 {
	*low += t.alphaLow * (x - *low)
	*rest += t.alphaHigh * (x - *rest)
	high := x - *rest
	mid := x - *low - high
	return *low*t.low + mid*t.mid + high*t.high
}

func (t *Tone) Reset() {
	t.lowL, t.lowR = 0, 0
	t.restL, t.restR = 0, 0
}
