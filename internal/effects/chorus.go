package effects

import "math"

// Chorus reads each channel back through a delay swept by a sine LFO.
// Short delays with feedback turn it into a flanger.
type Chorus struct {
	left, right delayLine
	base        float32 // frames
	depth       float32 // frames
	step        float64 // LFO radians per frame
	phase       float64
	feedback    float32
	wet         float32
}

// NewChorus creates a chorus centred on delayMs, swept by depthMs at
// rateHz.
func NewChorus(sampleRate int, delayMs, feedback, depthMs, rateHz, wet float32) *Chorus {
	msFrames := float32(sampleRate) / 1000
	base := max(delayMs, 0) * msFrames
	depth := min(max(depthMs, 0)*msFrames, base)
	size := int(base+depth) + 2
	return &Chorus{
		left:     newDelayLine(size),
		right:    newDelayLine(size),
		base:     base,
		depth:    depth,
		step:     2 * math.Pi * float64(rateHz) / float64(sampleRate),
		feedback: clampf(feedback, 0, 0.9),
		wet:      clampf(wet, 0, 1),
	}
}

func (c *Chorus) Process(l, r float32) (float32, float32) {
	delay := c.base + c.depth*float32(math.Sin(c.phase))
	c.phase = math.Mod(c.phase+c.step, 2*math.Pi)
	dl, dr := c.left.tap(delay), c.right.tap(delay)
	c.left.push(l + dl*c.feedback)
	c.right.push(r + dr*c.feedback)
	return mix(l, dl, c.wet), mix(r, dr, c.wet)
}

func (c *Chorus) Reset() {
	c.left.reset()
	c.right.reset()
	c.phase = 0
}
