package effects

// Reverb is a Schroeder reverberator: four parallel feedback combs on the
// mono sum followed by two allpass diffusers.
type Reverb struct {
	combs    [4]delayLine
	diffuse  [2]delayLine
	feedback float32
	wet      float32
}

// Comb and allpass lengths relative to the room size, in thousandths.
var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

const allpassGain = 0.5

// NewReverb creates a reverb. roomSize in [0, 1] scales the comb lengths
// up to 50ms, feedback in [0, 0.95] sets the decay and wet the mix.
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*clampf(roomSize, 0, 1)*0.05), 10)
	rv := &Reverb{feedback: clampf(feedback, 0, 0.95), wet: clampf(wet, 0, 1)}
	for i, ratio := range combRatios {
		rv.combs[i] = newDelayLine(base * ratio / 1000)
	}
	for i, ratio := range allpassRatios {
		rv.diffuse[i] = newDelayLine(base * ratio / 1000)
	}
	return rv
}

func (rv *Reverb) Process(l, r float32) (float32, float32) {
	in := (l + r) / 2
	var out float32
	for i := range rv.combs {
		c := &rv.combs[i]
		y := c.oldest()
		c.push(in + y*rv.feedback)
		out += y
	}
	out /= float32(len(rv.combs))
	for i := range rv.diffuse {
		a := &rv.diffuse[i]
		y := a.oldest()
		a.push(out + y*allpassGain)
		out = y - out
	}
	return mix(l, out, rv.wet), mix(r, out, rv.wet)
}

func (rv *Reverb) Reset() {
	for i := range rv.combs {
		rv.combs[i].reset()
	}
	for i := range rv.diffuse {
		rv.diffuse[i].reset()
	}
}
