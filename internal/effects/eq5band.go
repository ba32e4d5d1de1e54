package effects

import (
	"math"
	"sync/atomic"
)

// NumBands is the number of equalizer bands.
const NumBands = 5

// EQ5Band is the master equalizer. Bands are split at 200Hz, 800Hz, 2.5kHz
// and 8kHz by cascaded one-pole low-pass crossovers. Gains are float32 bit
// patterns so the control side can change them while the mixer runs.
type EQ5Band struct {
	gains  [NumBands]atomic.Uint32
	alphas [NumBands - 1]float32
	lpL    [NumBands - 1]float32
	lpR    [NumBands - 1]float32
}

var crossovers = [NumBands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates an equalizer with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range crossovers {
		// Crossovers above Nyquist collapse into the top band.
		freq = math.Min(freq, float64(sampleRate)*0.45)
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets the linear gain of band. 1 is unity, 2 is about +6dB.
// Out of range bands and negative gains are ignored.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < NumBands && gain >= 0 {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// SetGainDB sets the gain of band in decibels.
func (eq *EQ5Band) SetGainDB(band int, db float64) {
	eq.SetGain(band, float32(math.Pow(10, db/20)))
}

func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < NumBands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

// Flat reports whether every band is at unity, in which case the mixer
// skips the equalizer.
func (eq *EQ5Band) Flat() bool {
	for i := range eq.gains {
		if math.Float32frombits(eq.gains[i].Load()) != 1 {
			return false
		}
	}
	return true
}

func (eq *EQ5Band) Process(l, r float32) (float32, float32) {
	var outL, outR float32
	remL, remR := l, r
	for i := range eq.alphas {
		eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
		eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
		g := math.Float32frombits(eq.gains[i].Load())
		outL += eq.lpL[i] * g
		outR += eq.lpR[i] * g
		remL -= eq.lpL[i]
		remR -= eq.lpR[i]
	}
	g := math.Float32frombits(eq.gains[NumBands-1].Load())
	return outL + remL*g, outR + remR*g
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
