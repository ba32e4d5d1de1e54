// Package sample owns digitized waveforms and resamples them at playback
// time. Sample data lives in an arena padded so that every interpolation
// kernel can read a fixed window around any playback position, including
// across loop wraps and ping-pong bounces, without per-tap bounds checks.
package sample

const (
	FracBits = 16
	FracOne  = 1 << FracBits
	FracMask = FracOne - 1

	// reach is how far any kernel reads to either side of a position.
	reach = 4
	// Lookahead is the width of the padding on each side of a boundary.
	Lookahead = 2 * reach
	// MinLoopLength is the shortest loop span kept by FixSampleLoops.
	MinLoopLength = 2
)

type LoopKind int

const (
	LoopNone LoopKind = iota
	LoopNormal
	LoopPingPong
)

func (k LoopKind) String() string {
	switch k {
	case LoopNormal:
		return "normal"
	case LoopPingPong:
		return "pingpong"
	default:
		return "none"
	}
}

// Loop is a half-open span [Start, End) of sample frames.
type Loop struct {
	Kind  LoopKind
	Start int
	End   int
}

func (l Loop) Active() bool { return l.Kind != LoopNone && l.End > l.Start }
func (l Loop) Length() int  { return l.End - l.Start }

// resolve maps a position to the frame that sounds there during loop
// playback. Positions inside the span map to themselves.
func (l Loop) resolve(v int) int {
	if v >= l.Start && v < l.End {
		return v
	}
	n := l.Length()
	if l.Kind == LoopPingPong {
		period := 2 * n
		var o int
		if v >= l.End {
			o = (v - l.Start) % period
		} else {
			o = (l.Start - 1 - v) % period
		}
		if o < n {
			return l.Start + o
		}
		return l.Start + period - 1 - o
	}
	o := (v - l.Start) % n
	if o < 0 {
		o += n
	}
	return l.Start + o
}

// AutoVibrato is the sample (IT) or instrument (XM) vibrato applied to every
// note regardless of effects.
type AutoVibrato struct {
	Type  int
	Sweep int
	Depth int
	Rate  int
}

// Sample is allocated and finalized once after loading, then read
// concurrently by the mixing loop without synchronization.
type Sample struct {
	Name string
	// BaseFrequency is the playback rate in Hz of note C-5.
	BaseFrequency int
	RelativeNote  int
	// FineTune is in 1/128 semitone steps.
	FineTune     int
	Volume       int // 0..64
	GlobalVolume int // 0..64
	Panning      int // 0..256
	HasPanning   bool
	Vibrato      AutoVibrato

	Loop    Loop
	Sustain Loop

	length int
	stereo bool
	buf    *Buffer
}

// New allocates a sample of length frames.
func New(length int, stereo bool) *Sample {
	s := &Sample{
		BaseFrequency: 8363,
		Volume:        64,
		GlobalVolume:  64,
		Panning:       128,
	}
	s.AllocSampleData(length, stereo)
	return s
}

// AllocSampleData (re)allocates the arena. Existing data is discarded.
func (s *Sample) AllocSampleData(length int, stereo bool) {
	if length < 0 {
		length = 0
	}
	channels := 1
	if stereo {
		channels = 2
	}
	s.length = length
	s.stereo = stereo
	s.buf = newBuffer(length, channels)
}

func (s *Sample) Len() int       { return s.length }
func (s *Sample) IsStereo() bool { return s.stereo }
func (s *Sample) IsEmpty() bool  { return s.length == 0 || s.buf == nil }
func (s *Sample) Buffer() *Buffer {
	return s.buf
}

// Left returns the writable main data of the first channel.
func (s *Sample) Left() []int32 {
	if s.buf == nil {
		return nil
	}
	return s.buf.Main(0)
}

// Right returns the writable main data of the second channel, or nil for
// mono samples.
func (s *Sample) Right() []int32 {
	if s.buf == nil || !s.stereo {
		return nil
	}
	return s.buf.Main(1)
}

// Region returns channel ch of region r. Intended for inspection only.
func (s *Sample) Region(ch int, r Region) []int32 {
	if s.buf == nil {
		return nil
	}
	return s.buf.region(ch, r)
}

func (s *Sample) SetLoop(kind LoopKind, start, end int) {
	s.Loop = Loop{Kind: kind, Start: start, End: end}
}

func (s *Sample) SetSustainLoop(kind LoopKind, start, end int) {
	s.Sustain = Loop{Kind: kind, Start: start, End: end}
}

// FixSampleLoops clips both loop spans into [0, Len()], disables degenerate
// ones and populates the padding regions. Call it once after the data has
// been written.
func (s *Sample) FixSampleLoops() {
	s.Loop = s.fixLoop(s.Loop)
	s.Sustain = s.fixLoop(s.Sustain)
	if s.buf == nil {
		return
	}
	for ch := 0; ch < s.buf.channels; ch++ {
		src := s.buf.Main(ch)
		clear(s.buf.preRoll(ch))
		post := s.buf.postRoll(ch)
		clear(post)
		if s.Loop.Active() && s.Loop.End == s.length {
			for k := range post {
				post[k] = src[s.Loop.resolve(s.length+k)]
			}
		}
		s.fillRegion(ch, RegionLoopEnd, s.Loop, s.Loop.End, true)
		s.fillRegion(ch, RegionLoopStart, s.Loop, s.Loop.Start, false)
		s.fillRegion(ch, RegionSustainEnd, s.Sustain, s.Sustain.End, true)
		s.fillRegion(ch, RegionSustainStart, s.Sustain, s.Sustain.Start, false)
	}
}

func (s *Sample) fixLoop(l Loop) Loop {
	l.Start = clampInt(l.Start, 0, s.length)
	l.End = clampInt(l.End, 0, s.length)
	if l.Kind == LoopNone || l.End-l.Start <= 0 || l.Start+MinLoopLength > l.End {
		return Loop{Kind: LoopNone}
	}
	return l
}

// fillRegion writes the frames around boundary as they sound during loop
// playback. End regions are read before the loop has wrapped, so with
// firstPass set the frames before the loop start keep their original data.
func (s *Sample) fillRegion(ch int, r Region, l Loop, boundary int, firstPass bool) {
	dst := s.buf.region(ch, r)
	if !l.Active() {
		clear(dst)
		return
	}
	src := s.buf.Main(ch)
	for k := range dst {
		v := boundary - Lookahead + k
		switch {
		case firstPass && v < 0:
			dst[k] = 0
		case firstPass && v < l.Start:
			dst[k] = src[v]
		default:
			dst[k] = src[l.resolve(v)]
		}
	}
}

// ActiveLoop is the span governing playback: the sustain loop while the
// note is held, the main loop otherwise.
func (s *Sample) ActiveLoop(sustained bool) Loop {
	if sustained && s.Sustain.Active() {
		return s.Sustain
	}
	return s.Loop
}

// LoopAdjustment returns the arena offset that redirects reads at pos into
// the main loop's boundary regions, or 0 when pos is not within one kernel
// reach of a boundary. Reads near the loop start are only redirected once
// the loop has wrapped; they take precedence over the loop end region, which
// keeps the unwrapped data before the loop start for the first pass.
func (s *Sample) LoopAdjustment(pos int, inLoop bool) int {
	return s.adjustment(s.Loop, RegionLoopEnd, RegionLoopStart, pos, inLoop)
}

// SustainAdjustment is LoopAdjustment for the sustain loop.
func (s *Sample) SustainAdjustment(pos int, inLoop bool) int {
	return s.adjustment(s.Sustain, RegionSustainEnd, RegionSustainStart, pos, inLoop)
}

func (s *Sample) adjustment(l Loop, end, start Region, pos int, inLoop bool) int {
	if s.buf == nil || !l.Active() {
		return 0
	}
	if inLoop && pos >= l.Start && pos < l.Start+reach {
		return int(s.buf.regionIndex(start, pos-l.Start) - s.buf.Index(pos))
	}
	if pos >= l.End-reach && pos < l.End {
		return int(s.buf.regionIndex(end, pos-l.End) - s.buf.Index(pos))
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
