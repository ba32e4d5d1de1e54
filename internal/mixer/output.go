package mixer

import (
	"math"

	"github.com/cbegin/modsynth-go/internal/effects"
)

// masterBus applies the master volume, the insert effects, the equalizer
// when it is not flat and the limiter, then records the block's peak
// levels.
func (m *Mixer) masterBus(left, right []float32) {
	if len(left) == 0 {
		return
	}
	g := m.MasterVolume()
	effects.ApplyGain(left, g)
	effects.ApplyGain(right, g)
	if m.fx.Len() > 0 {
		m.fx.ProcessBlock(left, right)
	}
	if m.eq.Flat() {
		for i := range left {
			left[i], right[i] = m.limiter.Process(left[i], right[i])
		}
	} else {
		m.bus.ProcessBlock(left, right)
	}
	m.peakL.Store(math.Float32bits(m.meter.Peak(left)))
	m.peakR.Store(math.Float32bits(m.meter.Peak(right)))
}

// encode quantizes the planar float block into interleaved little-endian
// PCM of the mixer's format. 8-bit output is unsigned.
func (m *Mixer) encode(p []byte, left, right []float32) {
	bps := m.format.BytesPerSample()
	mono := m.format.Channels == 1
	off := 0
	for i := range left {
		if mono {
			off = putSample(p, off, bps, (left[i]+right[i])/2)
			continue
		}
		off = putSample(p, off, bps, left[i])
		off = putSample(p, off, bps, right[i])
	}
}

func putSample(p []byte, off, bps int, x float32) int {
	x = max(-1, min(x, 1))
	switch bps {
	case 1:
		p[off] = byte(int(math.Round(float64(x)*127)) + 128)
	case 2:
		v := int16(math.Round(float64(x) * math.MaxInt16))
		p[off] = byte(v)
		p[off+1] = byte(v >> 8)
	case 3:
		v := int32(math.Round(float64(x) * (1<<23 - 1)))
		p[off] = byte(v)
		p[off+1] = byte(v >> 8)
		p[off+2] = byte(v >> 16)
	}
	return off + bps
}
