package mixer

// advanceTick moves the song clock by one tick, starting a new row every
// speed ticks. It reports true when the song has ended.
func (m *Mixer) advanceTick() bool {
	m.tick--
	if m.tick <= 0 {
		m.tick = m.speed
		if m.doRow() {
			return true
		}
	} else {
		for _, c := range m.channels {
			c.tick(m)
		}
	}
	m.updateBackground()
	return false
}

// doRow plays the next row. Rows are marked as played; coming back to a
// played row outside a pattern loop means the song has looped.
func (m *Mixer) doRow() bool {
	s := m.song
	if m.breakPos >= 0 {
		if m.breakPos >= len(s.Orders) {
			if !m.opts.LoopSong {
				return true
			}
			m.breakPos = s.Restart()
			m.nextRow = 0
			m.loopCompleted()
		}
		m.seqPos = m.breakPos
		m.breakPos = -1
		for _, c := range m.channels {
			c.plRow = 0
		}
	}
	pat := s.PatternAt(m.seqPos)
	if pat == nil || pat.Len() == 0 {
		m.breakPos = m.seqPos + 1
		m.nextRow = 0
		return false
	}
	m.row = m.nextRow
	if m.row >= pat.Len() {
		m.row = 0
	}
	r := pat.Row(m.row)
	patIdx := s.Orders[m.seqPos]
	if m.plCount < 0 && m.played.Played(patIdx, m.row) {
		if !m.opts.LoopSong {
			return true
		}
		m.loopCompleted()
	}
	m.played.Mark(patIdx, m.row)
	m.nextRow = m.row + 1
	if m.nextRow >= pat.Len() {
		m.breakPos = m.seqPos + 1
		m.nextRow = 0
	}

	jumped, broke := false, false
	for i, c := range m.channels {
		c.row(m, r.Element(i))
		switch p := c.param; c.cmd {
		case cmdSetSpeed:
			if p > 0 {
				m.speed = p
				m.tick = p
			}
		case cmdSetTempo:
			if p >= 32 {
				m.tempo = p
			}
		case cmdPositionJump:
			if m.plCount < 0 {
				m.breakPos = p
				if !broke {
					m.nextRow = 0
				}
				jumped = true
			}
		case cmdPatternBreak:
			if m.plCount < 0 {
				if !jumped {
					m.breakPos = m.seqPos + 1
				}
				m.nextRow = p
				broke = true
			}
		case cmdPatternLoop:
			m.patternLoop(i, c, p)
		case cmdPatternDelay:
			m.tick = m.speed + m.speed*p
		case cmdFinePatternDelay:
			m.tick += p
		}
	}
	return false
}

// patternLoop handles E6x/SBx on channel i: x = 0 marks the loop start,
// otherwise the rows from the mark are repeated x times.
func (m *Mixer) patternLoop(i int, c *channel, count int) {
	if count == 0 {
		c.plRow = m.row
		return
	}
	if c.plRow >= m.row {
		return
	}
	if m.plCount < 0 {
		m.plCount = count
		m.plChannel = i
	}
	if m.plChannel != i {
		return
	}
	if m.plCount == 0 {
		c.plRow = m.row + 1
		m.plChannel = -1
	} else {
		m.nextRow = c.plRow
		m.breakPos = -1
	}
	m.plCount--
}

func (m *Mixer) loopCompleted() {
	m.played.Reset()
	m.emit(EventLoopCompleted)
}
