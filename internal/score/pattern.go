package score

import (
	"strings"

	"github.com/cbegin/modsynth-go/internal/dialect"
)

// Row is the set of elements played together, one per channel.
type Row struct {
	elements []Element
}

func NewRow(d dialect.Dialect, channels int) *Row {
	r := &Row{}
	r.SetChannels(d, channels)
	return r
}

func (r *Row) Channels() int { return len(r.elements) }

// Element returns the element of channel ch, or nil when ch is out of range.
func (r *Row) Element(ch int) *Element {
	if ch < 0 || ch >= len(r.elements) {
		return nil
	}
	return &r.elements[ch]
}

// SetElement replaces the element of channel ch. Out-of-range channels are
// ignored.
func (r *Row) SetElement(ch int, e Element) {
	if ch >= 0 && ch < len(r.elements) {
		r.elements[ch] = e
	}
}

// SetChannels reshapes the row. Existing elements keep their channel, new
// channels get the empty element of dialect d.
func (r *Row) SetChannels(d dialect.Dialect, channels int) {
	if channels < 0 {
		channels = 0
	}
	if channels == len(r.elements) {
		return
	}
	next := make([]Element, channels)
	n := copy(next, r.elements)
	for i := n; i < channels; i++ {
		next[i] = NewElement(d)
	}
	r.elements = next
}

func (r *Row) String() string {
	parts := make([]string, len(r.elements))
	for i, e := range r.elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " | ")
}

type Pattern struct {
	dialect  dialect.Dialect
	channels int
	rows     []*Row
}

func NewPattern(d dialect.Dialect, rows, channels int) *Pattern {
	if rows < 0 {
		rows = 0
	}
	p := &Pattern{dialect: d, channels: channels, rows: make([]*Row, rows)}
	for i := range p.rows {
		p.rows[i] = NewRow(d, channels)
	}
	return p
}

func (p *Pattern) Dialect() dialect.Dialect { return p.dialect }
func (p *Pattern) Len() int                 { return len(p.rows) }
func (p *Pattern) Channels() int            { return p.channels }

// Row returns row i, or nil when i is out of range.
func (p *Pattern) Row(i int) *Row {
	if i < 0 || i >= len(p.rows) {
		return nil
	}
	return p.rows[i]
}

// Element returns the element at (row, ch), or nil when either index is out
// of range.
func (p *Pattern) Element(row, ch int) *Element {
	r := p.Row(row)
	if r == nil {
		return nil
	}
	return r.Element(ch)
}

// SetChannels reshapes every row of the pattern to the same width.
func (p *Pattern) SetChannels(channels int) {
	if channels < 0 {
		channels = 0
	}
	p.channels = channels
	for _, r := range p.rows {
		r.SetChannels(p.dialect, channels)
	}
}

// PatternContainer is the pattern pool of a song, indexed by the order list.
type PatternContainer struct {
	patterns []*Pattern
}

func NewPatternContainer(patterns ...*Pattern) *PatternContainer {
	return &PatternContainer{patterns: patterns}
}

func (c *PatternContainer) Len() int { return len(c.patterns) }

// Pattern returns pattern i, or nil when i is out of range.
func (c *PatternContainer) Pattern(i int) *Pattern {
	if i < 0 || i >= len(c.patterns) {
		return nil
	}
	return c.patterns[i]
}

func (c *PatternContainer) Add(p *Pattern) int {
	c.patterns = append(c.patterns, p)
	return len(c.patterns) - 1
}

func (c *PatternContainer) SetChannels(channels int) {
	for _, p := range c.patterns {
		if p != nil {
			p.SetChannels(channels)
		}
	}
}

// PlayedRows marks the rows reached during one pass over a song. Each
// playback keeps its own set so the song stays read-only while it plays.
type PlayedRows struct {
	rows [][]bool
}

// NewPlayedRows sizes a set for the patterns of c as they are now.
func (c *PatternContainer) NewPlayedRows() *PlayedRows {
	pr := &PlayedRows{rows: make([][]bool, len(c.patterns))}
	for i, p := range c.patterns {
		if p != nil {
			pr.rows[i] = make([]bool, p.Len())
		}
	}
	return pr
}

// Played reports whether row of pattern pat was reached. Unknown rows
// report false.
func (pr *PlayedRows) Played(pat, row int) bool {
	if pat < 0 || pat >= len(pr.rows) || row < 0 || row >= len(pr.rows[pat]) {
		return false
	}
	return pr.rows[pat][row]
}

func (pr *PlayedRows) Mark(pat, row int) {
	if pat >= 0 && pat < len(pr.rows) && row >= 0 && row < len(pr.rows[pat]) {
		pr.rows[pat][row] = true
	}
}

// Reset clears every marker. Called whenever playback starts a new pass.
func (pr *PlayedRows) Reset() {
	for _, r := range pr.rows {
		clear(r)
	}
}
