package sample

import (
	"fmt"
	"math"
	"strings"
)

// Interpolation selects the resampling kernel.
type Interpolation int

const (
	InterpolationNone Interpolation = iota
	InterpolationLinear
	InterpolationCubic
	InterpolationSinc
	InterpolationFIR
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationNone:
		return "none"
	case InterpolationLinear:
		return "linear"
	case InterpolationCubic:
		return "cubic"
	case InterpolationSinc:
		return "sinc"
	case InterpolationFIR:
		return "fir"
	default:
		return fmt.Sprintf("interpolation(%d)", int(i))
	}
}

func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "nearest":
		return InterpolationNone, nil
	case "linear":
		return InterpolationLinear, nil
	case "cubic", "spline":
		return InterpolationCubic, nil
	case "sinc", "kaiser":
		return InterpolationSinc, nil
	case "fir", "wfir":
		return InterpolationFIR, nil
	default:
		return InterpolationLinear, fmt.Errorf("invalid interpolation %q (expected none|linear|cubic|sinc|fir)", name)
	}
}

const (
	coefBits   = 15
	coefOne    = 1 << coefBits
	phaseBits  = 10
	phaseCount = 1 << phaseBits
)

// kernel describes one convolution: taps starting at offset first relative
// to the playback position, one row of coefficients per phase step. Every
// row sums to exactly coefOne so constant input is reproduced exactly.
type kernel struct {
	taps       int
	first      int
	phaseShift uint
	coeffs     []int32
}

func (k *kernel) row(phase int) []int32 {
	i := (phase & FracMask) >> k.phaseShift
	return k.coeffs[i*k.taps : (i+1)*k.taps]
}

var (
	nearestKernel kernel
	linearKernel  kernel
	cubicKernel   kernel
	firKernel     kernel
	// sincKernels trade passband for alias suppression as the resampling
	// ratio grows; see sincFor.
	sincKernels [3]kernel
)

func init() {
	nearestKernel = kernel{taps: 1, first: 0, phaseShift: FracBits, coeffs: []int32{coefOne}}
	linearKernel = buildKernel(2, 0, func(d float64) float64 {
		return 1 - math.Abs(d)
	})
	cubicKernel = buildKernel(4, -1, catmullRom)
	firKernel = buildKernel(8, -3, func(d float64) float64 {
		return sinc(d*0.97) * 0.97 * blackmanHarris(d, 4)
	})
	for i, p := range []struct{ cutoff, beta float64 }{
		{0.97, 8.5},
		{0.7, 7.0},
		{0.5, 5.5},
	} {
		cutoff, beta := p.cutoff, p.beta
		sincKernels[i] = buildKernel(8, -3, func(d float64) float64 {
			return sinc(d*cutoff) * cutoff * kaiser(d, 4, beta)
		})
	}
}

// buildKernel samples weight(distance) for every tap and phase, quantizes
// the row and pushes the rounding residue onto the largest tap.
func buildKernel(taps, first int, weight func(float64) float64) kernel {
	k := kernel{
		taps:       taps,
		first:      first,
		phaseShift: FracBits - phaseBits,
		coeffs:     make([]int32, taps*phaseCount),
	}
	raw := make([]float64, taps)
	for p := 0; p < phaseCount; p++ {
		frac := float64(p) / phaseCount
		var total float64
		for t := 0; t < taps; t++ {
			raw[t] = weight(float64(first+t) - frac)
			total += raw[t]
		}
		row := k.coeffs[p*taps : (p+1)*taps]
		var sum int32
		peak := 0
		for t := 0; t < taps; t++ {
			w := raw[t]
			if total != 0 {
				w /= total
			}
			row[t] = int32(math.Round(w * coefOne))
			sum += row[t]
			if abs32(row[t]) > abs32(row[peak]) {
				peak = t
			}
		}
		row[peak] += coefOne - sum
	}
	return k
}

func catmullRom(d float64) float64 {
	x := math.Abs(d)
	switch {
	case x < 1:
		return 1.5*x*x*x - 2.5*x*x + 1
	case x < 2:
		return -0.5*x*x*x + 2.5*x*x - 4*x + 2
	default:
		return 0
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(d, half, beta float64) float64 {
	r := d / half
	if r <= -1 || r >= 1 {
		return 0
	}
	return besselI0(beta*math.Sqrt(1-r*r)) / besselI0(beta)
}

func blackmanHarris(d, half float64) float64 {
	r := d / half
	if r <= -1 || r >= 1 {
		return 0
	}
	x := math.Pi * (r + 1)
	return 0.35875 - 0.48829*math.Cos(x) + 0.14128*math.Cos(2*x) - 0.01168*math.Cos(3*x)
}

func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	half := x / 2
	for k := 1; k < 64; k++ {
		term *= half / float64(k)
		t := term * term
		sum += t
		if t < sum*1e-12 {
			break
		}
	}
	return sum
}

// sincFor picks the coefficient set for a pitch increment in FracBits fixed
// point.
func sincFor(increment int) *kernel {
	if increment < 0 {
		increment = -increment
	}
	switch {
	case increment > FracOne*3/2:
		return &sincKernels[2]
	case increment > FracOne*9/8:
		return &sincKernels[1]
	default:
		return &sincKernels[0]
	}
}

func kernelFor(mode Interpolation, increment int) *kernel {
	switch mode {
	case InterpolationLinear:
		return &linearKernel
	case InterpolationCubic:
		return &cubicKernel
	case InterpolationSinc:
		return sincFor(increment)
	case InterpolationFIR:
		return &firKernel
	default:
		return &nearestKernel
	}
}

// Interpolate returns the stereo value at pos plus phase/FracOne (minus, when
// backward) using the selected kernel. adjust is a LoopAdjustment or
// SustainAdjustment result. Mono samples report the same value on both
// channels. Empty samples are silent.
func (s *Sample) Interpolate(mode Interpolation, increment, pos, phase int, backward bool, adjust int) (l, r int32) {
	if s.IsEmpty() {
		return 0, 0
	}
	base := s.buf.Index(pos).Add(adjust)
	if !s.buf.inBounds(base) {
		return 0, 0
	}
	k := kernelFor(mode, increment)
	l = s.convolve(k, 0, base, phase, backward)
	if !s.stereo {
		return l, l
	}
	return l, s.convolve(k, 1, base, phase, backward)
}

func (s *Sample) convolve(k *kernel, ch int, base Index, phase int, backward bool) int32 {
	row := k.row(phase)
	data := s.buf.data[ch*s.buf.stride : (ch+1)*s.buf.stride]
	var acc int64
	for t, c := range row {
		off := k.first + t
		if backward {
			off = -off
		}
		acc += int64(c) * int64(data[int(base)+off])
	}
	acc >>= coefBits
	if acc > math.MaxInt32 {
		return math.MaxInt32
	}
	if acc < math.MinInt32 {
		return math.MinInt32
	}
	return int32(acc)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
