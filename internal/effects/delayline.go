package effects

// delayLine is a fixed-length ring of past samples.
type delayLine struct {
	buf []float32
	pos int
}

func newDelayLine(n int) delayLine {
	return delayLine{buf: make([]float32, max(n, 2))}
}

// oldest returns the sample the next push overwrites, pushed len(buf)
// frames ago.
func (d *delayLine) oldest() float32 { return d.buf[d.pos] }

func (d *delayLine) push(v float32) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos == len(d.buf) {
		d.pos = 0
	}
}

// tap reads the sample pushed delay frames ago, interpolating between
// whole frames. delay is clamped to [1, len(buf)-1].
func (d *delayLine) tap(delay float32) float32 {
	n := len(d.buf)
	delay = max(1, min(delay, float32(n-1)))
	i := int(delay)
	frac := delay - float32(i)
	a := d.buf[(d.pos-i+n)%n]
	b := d.buf[(d.pos-i-1+n)%n]
	return a + (b-a)*frac
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// mix crossfades dry and wet by amount in [0, 1].
func mix(dry, wet, amount float32) float32 {
	return dry + (wet-dry)*amount
}
