package effects

// Echo is a stereo feedback delay. Cross feeds part of each channel's
// echo into the other channel, which makes the repeats ping-pong.
type Echo struct {
	left, right delayLine
	feedback    float32
	cross       float32
	wet         float32
}

// NewEcho creates a delay of delayMs with feedback and cross in [0, 0.95]
// and [0, 1] and wet mix in [0, 1].
func NewEcho(sampleRate int, delayMs float64, feedback, cross, wet float32) *Echo {
	frames := int(delayMs * float64(sampleRate) / 1000)
	return &Echo{
		left:     newDelayLine(frames),
		right:    newDelayLine(frames),
		feedback: clampf(feedback, 0, 0.95),
		cross:    clampf(cross, 0, 1),
		wet:      clampf(wet, 0, 1),
	}
}

func (e *Echo) Process(l, r float32) (float32, float32) {
	dl, dr := e.left.oldest(), e.right.oldest()
	e.left.push(l + e.feedback*mix(dl, dr, e.cross))
	e.right.push(r + e.feedback*mix(dr, dl, e.cross))
	return mix(l, dl, e.wet), mix(r, dr, e.wet)
}

func (e *Echo) Reset() {
	e.left.reset()
	e.right.reset()
}
