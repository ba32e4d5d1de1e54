// Package envelope implements the per-instrument automation curves of a
// tracker score: volume, panning and pitch envelopes with loop and sustain
// handling in either the XM or the IT boundary dialect.
package envelope

import (
	"sort"

	"github.com/cbegin/modsynth-go/internal/dialect"
)

// MaxValue is the upper bound of every envelope value. Loaders scale the
// format's native range (0..64, -32..32) into [0, MaxValue].
const MaxValue = 512

const fracShift = 16

type Kind int

const (
	Volume Kind = iota
	Panning
	Pitch
)

// Neutral is the value an inert envelope of this kind reports.
func (k Kind) Neutral() int {
	if k == Volume {
		return MaxValue
	}
	return MaxValue / 2
}

func (k Kind) String() string {
	switch k {
	case Volume:
		return "volume"
	case Panning:
		return "panning"
	case Pitch:
		return "pitch"
	default:
		return "unknown"
	}
}

type Point struct {
	Position int
	Value    int
}

// Envelope is built once by a loader, sanitized, and then only read.
type Envelope struct {
	kind    Kind
	dialect dialect.Dialect
	points  []Point

	enabled bool
	sustain bool
	loop    bool
	carry   bool
	filter  bool

	loopStart    int
	loopEnd      int
	sustainStart int
	sustainEnd   int
	endPoint     int
}

// New returns an inert envelope: no points, disabled, end point -1.
func New(kind Kind) *Envelope {
	return &Envelope{kind: kind, endPoint: -1}
}

func (e *Envelope) SetPoints(points []Point) {
	e.points = append(e.points[:0], points...)
	e.endPoint = len(e.points) - 1
}

// SetLoop sets the loop start and end point indices.
func (e *Envelope) SetLoop(start, end int) {
	e.loopStart = start
	e.loopEnd = end
}

// SetSustain sets the sustain start and end point indices. XM envelopes have
// a single sustain point, so start and end are equal there.
func (e *Envelope) SetSustain(start, end int) {
	e.sustainStart = start
	e.sustainEnd = end
}

// SetXMType decodes the XM type byte: bit0 on, bit1 sustain, bit2 loop.
func (e *Envelope) SetXMType(flags byte) {
	e.dialect = dialect.XM
	e.enabled = flags&0x01 != 0
	e.sustain = flags&0x02 != 0
	e.loop = flags&0x04 != 0
	e.carry = false
	e.filter = false
}

// SetITType decodes the IT flag byte: bit0 on, bit1 loop, bit2 sustain loop,
// bit3 carry, bit7 filter (pitch envelope drives the filter cutoff).
func (e *Envelope) SetITType(flags byte) {
	e.dialect = dialect.IT
	e.enabled = flags&0x01 != 0
	e.loop = flags&0x02 != 0
	e.sustain = flags&0x04 != 0
	e.carry = flags&0x08 != 0
	e.filter = flags&0x80 != 0
}

// Sanitize clamps out-of-range data instead of rejecting it. Positions become
// non-decreasing, values are clipped into [0, MaxValue], loop and sustain
// indices are clipped to the end point and disabled when inverted.
func (e *Envelope) Sanitize() {
	if len(e.points) == 0 {
		e.enabled = false
		e.sustain = false
		e.loop = false
		e.endPoint = -1
		return
	}
	e.endPoint = len(e.points) - 1
	for i := range e.points {
		p := &e.points[i]
		if i == 0 && p.Position < 0 {
			p.Position = 0
		}
		if i > 0 && p.Position < e.points[i-1].Position {
			p.Position = e.points[i-1].Position
		}
		p.Value = clamp(p.Value, 0, MaxValue)
	}
	e.loopStart = clamp(e.loopStart, 0, e.endPoint)
	e.loopEnd = clamp(e.loopEnd, 0, e.endPoint)
	if e.loopStart > e.loopEnd {
		e.loop = false
	}
	e.sustainStart = clamp(e.sustainStart, 0, e.endPoint)
	e.sustainEnd = clamp(e.sustainEnd, 0, e.endPoint)
	if e.sustainStart > e.sustainEnd {
		e.sustain = false
	}
}

// Advance moves an envelope cursor one tick forward. XM compares boundaries
// with >=, IT with >; the two differ by one tick at every loop end.
func (e *Envelope) Advance(position int, keyReleased bool) int {
	position++
	if e.endPoint < 0 {
		return position
	}
	if e.sustain && !keyReleased && e.past(position, e.points[e.sustainEnd].Position) {
		return e.points[e.sustainStart].Position
	}
	if e.loop && e.past(position, e.points[e.loopEnd].Position) {
		return e.points[e.loopStart].Position
	}
	if end := e.points[e.endPoint].Position; position > end {
		return end + 1
	}
	return position
}

func (e *Envelope) past(position, boundary int) bool {
	if e.dialect == dialect.IT {
		return position > boundary
	}
	return position >= boundary
}

// ValueAt interpolates linearly between the two points around position.
func (e *Envelope) ValueAt(position int) int {
	if e.endPoint < 0 {
		return e.kind.Neutral()
	}
	pts := e.points[:e.endPoint+1]
	if position <= pts[0].Position {
		return clamp(pts[0].Value, 0, MaxValue)
	}
	last := pts[len(pts)-1]
	if position >= last.Position {
		return clamp(last.Value, 0, MaxValue)
	}
	i := sort.Search(len(pts), func(i int) bool { return pts[i].Position > position })
	p0, p1 := pts[i-1], pts[i]
	dx := int64(p1.Position - p0.Position)
	if dx == 0 {
		return p1.Value
	}
	v := int64(p0.Value)<<fracShift + (int64(p1.Value-p0.Value)*int64(position-p0.Position)<<fracShift)/dx
	return clamp(int(v>>fracShift), 0, MaxValue)
}

// IsFinished reports whether position has run past the last point.
func (e *Envelope) IsFinished(position int) bool {
	if e.endPoint < 0 {
		return true
	}
	return position > e.points[e.endPoint].Position
}

// EndPosition is the tick position of the last point, or -1 when inert.
func (e *Envelope) EndPosition() int {
	if e.endPoint < 0 {
		return -1
	}
	return e.points[e.endPoint].Position
}

func (e *Envelope) Kind() Kind                { return e.kind }
func (e *Envelope) Dialect() dialect.Dialect  { return e.dialect }
func (e *Envelope) Enabled() bool             { return e != nil && e.enabled && e.endPoint >= 0 }
func (e *Envelope) SustainEnabled() bool      { return e.sustain }
func (e *Envelope) LoopEnabled() bool         { return e.loop }
func (e *Envelope) Carry() bool               { return e != nil && e.carry }
func (e *Envelope) IsFilter() bool            { return e.filter }
func (e *Envelope) Loop() (start, end int)    { return e.loopStart, e.loopEnd }
func (e *Envelope) Sustain() (start, end int) { return e.sustainStart, e.sustainEnd }
func (e *Envelope) EndPoint() int             { return e.endPoint }

// Points returns a copy of the control points.
func (e *Envelope) Points() []Point {
	out := make([]Point, len(e.points))
	copy(out, e.points)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
