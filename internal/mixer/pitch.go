package mixer

import (
	"math"

	"github.com/cbegin/modsynth-go/internal/sample"
)

// Periods are kept in two units. Linear periods count 1/64 semitone
// steps downwards from 7680, so a slide of one unit is the same interval
// at every pitch. Amiga periods are four times the classic Paula period
// at the sample's C-5 rate, so C-5 is 1712 for a sample at 8363Hz.
const (
	linearBase   = 7680
	linearC5     = 3840
	amigaC5      = 1712
	amigaRate    = 8363
	minPeriod    = 28
	maxPeriod    = 65535
	semitoneUnit = 64
)

const c5Note = 61

// notePeriod returns the period of note (1-based, transposed by the
// sample's relative note) for fineTune in 1/128 semitones.
func notePeriod(linear bool, note, fineTune int, smp *sample.Sample) int {
	key := clamp(note+smp.RelativeNote, 1, 120)
	if linear {
		return linearBase - (key-1)*semitoneUnit - fineTune/2
	}
	semis := float64(key-c5Note) + float64(fineTune)/128
	freq := float64(amigaRate) * math.Exp2(semis/12)
	return clamp(int(math.Round(amigaC5*amigaRate/freq)), minPeriod, maxPeriod)
}

// periodFrequency returns the playback rate in Hz for period at a sample
// whose C-5 rate is base.
func periodFrequency(linear bool, period, base int) float64 {
	if period < minPeriod {
		period = minPeriod
	}
	if linear {
		if period > linearBase {
			period = linearBase
		}
		return float64(base) * math.Exp2(float64(linearC5-period)/768)
	}
	return float64(base) * amigaC5 / float64(period)
}

// semitoneRatio is the frequency ratio of an offset in semitones.
func semitoneRatio(semis float64) float64 {
	return math.Exp2(semis / 12)
}

// increment converts a frequency to a FracBits cursor step at rate.
func increment(freq float64, rate int) int {
	if freq <= 0 || rate <= 0 {
		return 0
	}
	inc := freq * sample.FracOne / float64(rate)
	if inc > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(inc)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
