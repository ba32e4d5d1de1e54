// Package effects holds the DSP stages applied after voices are mixed: the
// insert effects a song or player asks for, the master bus (equalizer,
// limiter) and the per-voice resonant filter.
package effects

import "github.com/viterin/vek/vek32"

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBlock runs every frame of the planar buffers through the chain.
func (c *Chain) ProcessBlock(left, right []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := range left {
		left[i], right[i] = c.Process(left[i], right[i])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int { return len(c.effects) }

// ApplyGain scales buf in place.
func ApplyGain(buf []float32, gain float32) {
	if gain == 1 || len(buf) == 0 {
		return
	}
	vek32.MulNumber_Inplace(buf, gain)
}

// Meter measures block levels. It keeps a scratch buffer so measuring
// does not allocate once warmed up.
type Meter struct {
	tmp []float32
}

// Peak returns the largest absolute value in buf.
func (m *Meter) Peak(buf []float32) float32 {
	if len(buf) == 0 {
		return 0
	}
	tmp := m.scratch(len(buf))
	copy(tmp, buf)
	vek32.Abs_Inplace(tmp)
	return vek32.Max(tmp)
}

func (m *Meter) scratch(n int) []float32 {
	if cap(m.tmp) < n {
		m.tmp = make([]float32, n)
	}
	return m.tmp[:n]
}
