package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cbegin/modsynth-go/internal/dialect"
)

// VolumeKind is the decoded command of a volume column. Both dialects map
// their raw volume byte onto this set; the operand meaning is noted per
// value.
type VolumeKind uint8

const (
	VolNone          VolumeKind = iota
	VolSet                      // op 0..64
	VolSlideUp                  // op per tick
	VolSlideDown                // op per tick
	VolFineUp                   // op once per row
	VolFineDown                 // op once per row
	VolSetPanning               // op 0..64
	VolPanSlideLeft             // op per tick
	VolPanSlideRight            // op per tick
	VolVibratoSpeed             // op 0..15
	VolVibratoDepth             // op 0..15
	VolTonePortamento           // op 0..15 (dialect specific scaling)
	VolPortamentoDown           // op 0..9, IT only
	VolPortamentoUp             // op 0..9, IT only
)

var volumeLetters = map[VolumeKind]byte{
	VolSet:            'v',
	VolSlideUp:        'c',
	VolSlideDown:      'd',
	VolFineUp:         'a',
	VolFineDown:       'b',
	VolSetPanning:     'p',
	VolPanSlideLeft:   'l',
	VolPanSlideRight:  'r',
	VolVibratoSpeed:   'u',
	VolVibratoDepth:   'h',
	VolTonePortamento: 'g',
	VolPortamentoDown: 'e',
	VolPortamentoUp:   'f',
}

// DecodeXMVolume splits an XM volume column byte.
func DecodeXMVolume(b byte) (VolumeKind, uint8) {
	switch {
	case b >= 0x10 && b <= 0x50:
		return VolSet, b - 0x10
	case b < 0x60:
		return VolNone, 0
	}
	op := b & 0x0F
	switch b & 0xF0 {
	case 0x60:
		return VolSlideDown, op
	case 0x70:
		return VolSlideUp, op
	case 0x80:
		return VolFineDown, op
	case 0x90:
		return VolFineUp, op
	case 0xA0:
		return VolVibratoSpeed, op
	case 0xB0:
		return VolVibratoDepth, op
	case 0xC0:
		return VolSetPanning, op * 4
	case 0xD0:
		return VolPanSlideLeft, op
	case 0xE0:
		return VolPanSlideRight, op
	default:
		return VolTonePortamento, op
	}
}

// DecodeITVolume splits an IT volume column byte. Bytes outside the
// documented ranges decode as VolNone.
func DecodeITVolume(b byte) (VolumeKind, uint8) {
	switch {
	case b <= 64:
		return VolSet, b
	case b <= 74:
		return VolFineUp, b - 65
	case b <= 84:
		return VolFineDown, b - 75
	case b <= 94:
		return VolSlideUp, b - 85
	case b <= 104:
		return VolSlideDown, b - 95
	case b <= 114:
		return VolPortamentoDown, b - 105
	case b <= 124:
		return VolPortamentoUp, b - 115
	case b >= 128 && b <= 192:
		return VolSetPanning, b - 128
	case b >= 193 && b <= 202:
		return VolTonePortamento, b - 193
	case b >= 203 && b <= 212:
		return VolVibratoDepth, b - 203
	default:
		return VolNone, 0
	}
}

// Element is one cell of a pattern: what a single channel does on a row.
type Element struct {
	Note         int
	Instrument   int // 1-based, 0 = none
	VolumeEffect VolumeKind
	VolumeOp     uint8
	Effect       uint8
	EffectOp     uint8
	Dialect      dialect.Dialect
}

// NewElement returns the empty element of dialect d.
func NewElement(d dialect.Dialect) Element {
	return Element{Dialect: d}
}

// IsEmpty reports whether the element carries no data at all.
func (e Element) IsEmpty() bool {
	return e.Note == NoteNone && e.Instrument == 0 && e.VolumeEffect == VolNone && !e.HasEffect()
}

// HasEffect reports whether the main effect column is in use. XM effect 0
// with a zero operand is the empty cell, while IT uses code 0 for "none".
func (e Element) HasEffect() bool {
	if e.Dialect == dialect.IT {
		return e.Effect != 0
	}
	return e.Effect != 0 || e.EffectOp != 0
}

// EffectName and EffectCategory classify the main effect column.
func (e Element) EffectName() string { return EffectName(e.Dialect, e.Effect, e.EffectOp) }

func (e Element) EffectCategory() Category { return EffectCategory(e.Dialect, e.Effect, e.EffectOp) }

func (e Element) VolumeCategory() Category { return VolumeCategory(e.VolumeEffect) }

// String renders the element in the fixed-width text form used by the score
// files: "C-5 01 v40 A0F", with dots for empty columns.
func (e Element) String() string {
	var b strings.Builder
	b.WriteString(NoteName(e.Note))
	b.WriteByte(' ')
	if e.Instrument > 0 {
		fmt.Fprintf(&b, "%02X", e.Instrument)
	} else {
		b.WriteString("..")
	}
	b.WriteByte(' ')
	if letter, ok := volumeLetters[e.VolumeEffect]; ok {
		fmt.Fprintf(&b, "%c%02d", letter, e.VolumeOp)
	} else {
		b.WriteString("...")
	}
	b.WriteByte(' ')
	if e.HasEffect() {
		fmt.Fprintf(&b, "%c%02X", EffectLetter(e.Dialect, e.Effect), e.EffectOp)
	} else {
		b.WriteString("...")
	}
	return b.String()
}

// ParseElement reads the text form produced by String. Columns may be
// omitted from the right.
func ParseElement(d dialect.Dialect, s string) (Element, error) {
	e := NewElement(d)
	fields := strings.Fields(s)
	if len(fields) > 4 {
		return e, fmt.Errorf("element %q: too many columns", s)
	}
	var err error
	if len(fields) > 0 {
		if e.Note, err = ParseNote(fields[0]); err != nil {
			return e, err
		}
	}
	if len(fields) > 1 && fields[1] != ".." {
		v, err := strconv.ParseUint(fields[1], 16, 8)
		if err != nil {
			return e, fmt.Errorf("element %q: instrument: %w", s, err)
		}
		e.Instrument = int(v)
	}
	if len(fields) > 2 && fields[2] != "..." {
		f := fields[2]
		kind, ok := volumeKindFor(f[0])
		if !ok || len(f) != 3 {
			return e, fmt.Errorf("element %q: invalid volume column %q", s, f)
		}
		v, err := strconv.ParseUint(f[1:], 10, 8)
		if err != nil {
			return e, fmt.Errorf("element %q: volume operand: %w", s, err)
		}
		e.VolumeEffect, e.VolumeOp = kind, uint8(v)
	}
	if len(fields) > 3 && fields[3] != "..." {
		f := fields[3]
		if len(f) != 3 {
			return e, fmt.Errorf("element %q: invalid effect %q", s, f)
		}
		code, ok := EffectCode(d, f[0])
		if !ok {
			return e, fmt.Errorf("element %q: unknown effect letter %q", s, f[0])
		}
		v, err := strconv.ParseUint(f[1:], 16, 8)
		if err != nil {
			return e, fmt.Errorf("element %q: effect operand: %w", s, err)
		}
		e.Effect, e.EffectOp = code, uint8(v)
	}
	return e, nil
}

func volumeKindFor(letter byte) (VolumeKind, bool) {
	for k, l := range volumeLetters {
		if l == letter {
			return k, true
		}
	}
	return VolNone, false
}
