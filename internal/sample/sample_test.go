package sample

import "testing"

// rampSample builds a mono sample whose frame i holds (i+1)*100 in 16-bit
// units, normalized the same way DecodePCM does.
func rampSample(length int) *Sample {
	s := New(length, false)
	for i, d := 0, s.Left(); i < length; i++ {
		d[i] = int32((i+1)*100) << 16
	}
	return s
}

func TestFixSampleLoopsClipsAndDisables(t *testing.T) {
	for _, tc := range []struct {
		name       string
		kind       LoopKind
		start, end int
		want       Loop
	}{
		{"inside", LoopNormal, 10, 40, Loop{LoopNormal, 10, 40}},
		{"end past data", LoopNormal, 10, 400, Loop{LoopNormal, 10, 100}},
		{"negative start", LoopPingPong, -5, 20, Loop{LoopPingPong, 0, 20}},
		{"inverted", LoopNormal, 50, 20, Loop{Kind: LoopNone}},
		{"too short", LoopNormal, 30, 31, Loop{Kind: LoopNone}},
		{"start past data", LoopNormal, 150, 160, Loop{Kind: LoopNone}},
		{"disabled kind", LoopNone, 0, 50, Loop{Kind: LoopNone}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := rampSample(100)
			s.SetLoop(tc.kind, tc.start, tc.end)
			s.SetSustainLoop(tc.kind, tc.start, tc.end)
			s.FixSampleLoops()
			if s.Loop != tc.want {
				t.Fatalf("loop = %+v, want %+v", s.Loop, tc.want)
			}
			if s.Sustain != tc.want {
				t.Fatalf("sustain = %+v, want %+v", s.Sustain, tc.want)
			}
		})
	}
}

func TestNormalLoopLookaheadWrapsExactly(t *testing.T) {
	const start, end = 20, 80
	s := rampSample(100)
	s.SetLoop(LoopNormal, start, end)
	s.FixSampleLoops()
	data := s.Left()

	endRegion := s.Region(0, RegionLoopEnd)
	for k := range endRegion {
		v := end - Lookahead + k
		want := data[v%len(data)]
		if v >= end {
			want = data[start+(v-end)]
		}
		if endRegion[k] != want {
			t.Fatalf("loop end region[%d] = %d, want %d", k, endRegion[k], want)
		}
	}
	startRegion := s.Region(0, RegionLoopStart)
	for k := range startRegion {
		v := start - Lookahead + k
		want := data[v]
		if v < start {
			want = data[end-(start-v)]
		}
		if startRegion[k] != want {
			t.Fatalf("loop start region[%d] = %d, want %d", k, startRegion[k], want)
		}
	}
}

func TestPingPongRegionsMirror(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopPingPong, 20, 80)
	s.SetSustainLoop(LoopPingPong, 30, 60)
	s.FixSampleLoops()
	for _, r := range []Region{RegionLoopEnd, RegionLoopStart, RegionSustainEnd, RegionSustainStart} {
		region := s.Region(0, r)
		for j := 0; j < Lookahead; j++ {
			if region[Lookahead+j] != region[Lookahead-1-j] {
				t.Fatalf("region %d not mirrored at %d: %d vs %d", r, j, region[Lookahead+j], region[Lookahead-1-j])
			}
		}
	}
}

func TestLinearReadAcrossLoopEnd(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.FixSampleLoops()
	data := s.Left()

	adj := s.LoopAdjustment(79, false)
	if adj == 0 {
		t.Fatalf("expected a boundary adjustment at position 79")
	}
	l, r := s.Interpolate(InterpolationLinear, FracOne, 79, FracOne/2, false, adj)
	want := int32((int64(data[79]) + int64(data[20])) / 2)
	if l != want || r != want {
		t.Fatalf("got (%d, %d), want %d", l, r, want)
	}
	if got := s.LoopAdjustment(50, true); got != 0 {
		t.Fatalf("adjustment away from boundaries = %d, want 0", got)
	}
}

func TestLoopStartAdjustmentOnlyAfterWrap(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.FixSampleLoops()
	if s.LoopAdjustment(21, false) != 0 {
		t.Fatalf("no adjustment expected before the first wrap")
	}
	adj := s.LoopAdjustment(20, true)
	if adj == 0 {
		t.Fatalf("expected adjustment at loop start after wrap")
	}
	data := s.Left()
	l, _ := s.Interpolate(InterpolationLinear, FracOne, 20, FracOne/2, true, adj)
	want := int32((int64(data[20]) + int64(data[79])) / 2)
	if l != want {
		t.Fatalf("backward read across loop start = %d, want %d", l, want)
	}
}

func TestSustainAdjustmentIndependentOfLoop(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.SetSustainLoop(LoopNormal, 40, 50)
	s.FixSampleLoops()
	if s.SustainAdjustment(49, false) == 0 {
		t.Fatalf("expected sustain adjustment near sustain end")
	}
	if s.LoopAdjustment(49, false) != 0 {
		t.Fatalf("main loop must not react to the sustain boundary")
	}
	data := s.Left()
	adj := s.SustainAdjustment(49, false)
	l, _ := s.Interpolate(InterpolationLinear, FracOne, 49, FracOne/2, false, adj)
	want := int32((int64(data[49]) + int64(data[40])) / 2)
	if l != want {
		t.Fatalf("sustain wrap read = %d, want %d", l, want)
	}
}

func TestFirstPassBeforeShortLoop(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 50, 52)
	s.FixSampleLoops()
	data := s.Left()
	for pos := 44; pos < 52; pos++ {
		c := Cursor{Pos: pos}
		if l, _ := s.Read(InterpolationNone, FracOne, &c, false); l != data[pos] {
			t.Fatalf("first pass at %d reads %d, want sample %d", pos, l, pos)
		}
	}
	c := Cursor{Pos: 51, InLoop: true}
	if l, _ := s.Read(InterpolationLinear, FracOne, &c, false); l != data[51] {
		t.Fatalf("in-loop read at 51 = %d, want %d", l, data[51])
	}
}

// heard returns the frame at v along the playback path: the unwrapped data
// before the loop on the first pass, the repeating loop once it has wrapped.
func heard(data []int32, l Loop, inLoop bool) func(int) int32 {
	n := l.End - l.Start
	return func(v int) int32 {
		if v < 0 {
			return 0
		}
		if !inLoop && v < l.End {
			return data[v]
		}
		if l.Kind == LoopPingPong {
			o := ((v-l.Start)%(2*n) + 2*n) % (2 * n)
			if o >= n {
				o = 2*n - 1 - o
			}
			return data[l.Start+o]
		}
		return data[l.Start+((v-l.Start)%n+n)%n]
	}
}

func TestReadsFollowPlaybackPath(t *testing.T) {
	spans := []struct{ start, end int }{{50, 52}, {50, 53}, {50, 55}, {50, 58}, {20, 80}, {96, 100}}
	for _, kind := range []LoopKind{LoopNormal, LoopPingPong} {
		for _, sp := range spans {
			s := rampSample(100)
			s.SetLoop(kind, sp.start, sp.end)
			s.FixSampleLoops()
			data := s.Left()
			for mode := InterpolationNone; mode <= InterpolationFIR; mode++ {
				k := kernelFor(mode, FracOne)
				for _, phase := range []int{0, FracOne / 3, FracOne * 3 / 4} {
					check := func(pos int, inLoop, backward bool) {
						got, _ := s.Interpolate(mode, FracOne, pos, phase, backward, s.LoopAdjustment(pos, inLoop))
						want := referenceRead(k, heard(data, s.Loop, inLoop), pos, phase, backward)
						if got != want {
							t.Fatalf("%v loop [%d,%d) %v pos=%d phase=%d inLoop=%v backward=%v: got %d, want %d",
								kind, sp.start, sp.end, mode, pos, phase, inLoop, backward, got, want)
						}
					}
					for pos := sp.start - 12; pos < sp.end; pos++ {
						check(pos, false, false)
					}
					for pos := sp.start; pos < sp.end; pos++ {
						check(pos, true, false)
						if kind == LoopPingPong {
							check(pos, true, true)
						}
					}
				}
			}
		}
	}
}

func TestEmptySampleIsSilent(t *testing.T) {
	s := New(0, false)
	s.SetLoop(LoopNormal, 0, 10)
	s.FixSampleLoops()
	for mode := InterpolationNone; mode <= InterpolationFIR; mode++ {
		l, r := s.Interpolate(mode, FracOne, 0, 1234, false, 0)
		if l != 0 || r != 0 {
			t.Fatalf("%v: empty sample returned (%d, %d)", mode, l, r)
		}
	}
	var zero Sample
	if l, r := zero.Interpolate(InterpolationCubic, FracOne, 3, 0, false, 0); l != 0 || r != 0 {
		t.Fatalf("unallocated sample returned (%d, %d)", l, r)
	}
}

func TestMonoMirrorsRightChannel(t *testing.T) {
	s := rampSample(64)
	s.FixSampleLoops()
	for mode := InterpolationNone; mode <= InterpolationFIR; mode++ {
		l, r := s.Interpolate(mode, FracOne, 30, 20000, false, 0)
		if l != r {
			t.Fatalf("%v: mono sample gave l=%d r=%d", mode, l, r)
		}
	}
}

func TestStereoChannelsIndependent(t *testing.T) {
	s := New(32, true)
	for i := range s.Left() {
		s.Left()[i] = 1 << 20
		s.Right()[i] = -3 << 20
	}
	s.FixSampleLoops()
	l, r := s.Interpolate(InterpolationCubic, FracOne, 10, 4000, false, 0)
	if l != 1<<20 || r != -3<<20 {
		t.Fatalf("stereo read = (%d, %d)", l, r)
	}
}
