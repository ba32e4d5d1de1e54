package sample

// Cursor is a voice's read position inside a sample: an integer frame plus a
// FracBits phase, the ping-pong direction and whether the governing loop has
// wrapped at least once.
type Cursor struct {
	Pos      int
	Frac     int
	Backward bool
	InLoop   bool
	Ended    bool
}

// Step advances c by increment (FracBits fixed point) following the loop
// that governs playback while sustained is true or false.
func (s *Sample) Step(c *Cursor, increment int, sustained bool) {
	if c.Ended {
		return
	}
	if s.IsEmpty() {
		c.Ended = true
		return
	}
	if increment < 0 {
		increment = -increment
	}
	loop := s.ActiveLoop(sustained)
	if c.Backward && loop.Kind != LoopPingPong {
		c.Backward = false
	}
	c.Frac += increment
	steps := c.Frac >> FracBits
	c.Frac &= FracMask
	if c.Backward {
		c.Pos -= steps
	} else {
		c.Pos += steps
	}
	s.wrap(c, loop)
}

// Skip advances c by frames output frames without reading any data.
func (s *Sample) Skip(c *Cursor, increment int, sustained bool, frames int) {
	for i := 0; i < frames && !c.Ended; i++ {
		s.Step(c, increment, sustained)
	}
}

func (s *Sample) wrap(c *Cursor, loop Loop) {
	if !loop.Active() {
		if c.Pos >= s.length || c.Pos < 0 {
			c.Ended = true
		}
		return
	}
	n := loop.Length()
	switch {
	case !c.Backward && c.Pos >= loop.End:
		c.InLoop = true
		if loop.Kind == LoopPingPong {
			o := (c.Pos - loop.Start) % (2 * n)
			if o < n {
				c.Pos = loop.Start + o
			} else {
				c.Pos = loop.Start + 2*n - 1 - o
				c.Backward = true
			}
			return
		}
		c.Pos = loop.Start + (c.Pos-loop.Start)%n
	case c.Backward && c.Pos < loop.Start:
		o := (loop.Start - 1 - c.Pos) % (2 * n)
		if o < n {
			c.Pos = loop.Start + o
			c.Backward = false
		} else {
			c.Pos = loop.Start + 2*n - 1 - o
		}
	}
}

// Adjustment is the boundary adjustment for c under the governing loop.
func (s *Sample) Adjustment(c *Cursor, sustained bool) int {
	if sustained && s.Sustain.Active() {
		return s.SustainAdjustment(c.Pos, c.InLoop)
	}
	return s.LoopAdjustment(c.Pos, c.InLoop)
}

// Read interpolates the frame under c.
func (s *Sample) Read(mode Interpolation, increment int, c *Cursor, sustained bool) (l, r int32) {
	if c.Ended {
		return 0, 0
	}
	return s.Interpolate(mode, increment, c.Pos, c.Frac, c.Backward, s.Adjustment(c, sustained))
}
