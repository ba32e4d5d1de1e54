package sample

import "testing"

func TestCursorNormalLoopWraps(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.FixSampleLoops()
	c := &Cursor{Pos: 78}
	s.Step(c, 3*FracOne, false)
	if c.Pos != 21 || !c.InLoop || c.Backward || c.Ended {
		t.Fatalf("cursor after wrap = %+v", *c)
	}
}

func TestCursorPingPongBounces(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopPingPong, 20, 80)
	s.FixSampleLoops()
	c := &Cursor{Pos: 78}
	s.Step(c, 3*FracOne, false)
	if c.Pos != 78 || !c.Backward {
		t.Fatalf("cursor after end bounce = %+v", *c)
	}
	s.Step(c, 60*FracOne, false)
	if c.Pos != 21 || c.Backward {
		t.Fatalf("cursor after start bounce = %+v", *c)
	}
}

func TestCursorEndsWithoutLoop(t *testing.T) {
	s := rampSample(100)
	s.FixSampleLoops()
	c := &Cursor{Pos: 98, Frac: FracOne - 1}
	s.Step(c, 1, false)
	if c.Pos != 99 || c.Frac != 0 || c.Ended {
		t.Fatalf("cursor = %+v", *c)
	}
	s.Step(c, FracOne, false)
	if !c.Ended {
		t.Fatalf("cursor should end past the last frame")
	}
	if l, r := s.Read(InterpolationLinear, FracOne, c, false); l != 0 || r != 0 {
		t.Fatalf("ended cursor must read silence")
	}
}

func TestCursorSustainThenRelease(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.SetSustainLoop(LoopNormal, 40, 50)
	s.FixSampleLoops()
	c := &Cursor{Pos: 45}
	for i := 0; i < 25; i++ {
		s.Step(c, FracOne, true)
		if c.Pos < 40 || c.Pos >= 50 {
			t.Fatalf("sustained cursor escaped to %d", c.Pos)
		}
	}
	c.InLoop = false
	s.Skip(c, FracOne, false, 30)
	if c.Pos < 50 {
		t.Fatalf("released cursor should run past the sustain span, at %d", c.Pos)
	}
}

func TestCursorDropsBackwardOutsidePingPong(t *testing.T) {
	s := rampSample(100)
	s.SetLoop(LoopNormal, 20, 80)
	s.FixSampleLoops()
	c := &Cursor{Pos: 50, Backward: true}
	s.Step(c, FracOne, false)
	if c.Backward || c.Pos != 51 {
		t.Fatalf("cursor = %+v", *c)
	}
}
