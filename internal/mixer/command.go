package mixer

import (
	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/score"
)

// command is the dialect-independent form of a main-column effect. Both
// XM and IT cells are decoded into it once per row so the channel logic
// only deals with one effect set.
type command int

const (
	cmdNone command = iota
	cmdArpeggio
	cmdPortaUp
	cmdPortaDown
	cmdFinePortaUp
	cmdFinePortaDown
	cmdExtraFinePortaUp
	cmdExtraFinePortaDown
	cmdTonePorta
	cmdVibrato
	cmdFineVibrato
	cmdTonePortaVolSlide
	cmdVibratoVolSlide
	cmdTremolo
	cmdTremor
	cmdSetPanning
	cmdPanningSlide
	cmdPanbrello
	cmdSampleOffset
	cmdHighOffset
	cmdVolumeSlide
	cmdFineVolumeUp
	cmdFineVolumeDown
	cmdSetVolume
	cmdChannelVolume
	cmdChannelVolumeSlide
	cmdPositionJump
	cmdPatternBreak
	cmdSetSpeed
	cmdSetTempo
	cmdTempoSlide
	cmdSetGlobalVolume
	cmdGlobalVolumeSlide
	cmdKeyOff
	cmdSetEnvelopePos
	cmdRetrig
	cmdMultiRetrig
	cmdNoteCut
	cmdNoteDelay
	cmdPatternLoop
	cmdPatternDelay
	cmdFinePatternDelay
	cmdVibratoWaveform
	cmdTremoloWaveform
	cmdPanbrelloWaveform
	cmdSetFineTune
	cmdPastNote
	cmdSetNNA
	cmdFilterCutoff
)

// decode maps e's main effect to a command and its operand.
func decode(e *score.Element) (command, int) {
	if !e.HasEffect() {
		return cmdNone, 0
	}
	op := int(e.EffectOp)
	if e.Dialect == dialect.IT {
		return decodeIT(e.Effect, op)
	}
	return decodeXM(e.Effect, op)
}

func decodeXM(code uint8, op int) (command, int) {
	switch code {
	case score.XMArpeggio:
		return cmdArpeggio, op
	case score.XMPortaUp:
		return cmdPortaUp, op
	case score.XMPortaDown:
		return cmdPortaDown, op
	case score.XMTonePorta:
		return cmdTonePorta, op
	case score.XMVibrato:
		return cmdVibrato, op
	case score.XMTonePortaVolSlide:
		return cmdTonePortaVolSlide, op
	case score.XMVibratoVolSlide:
		return cmdVibratoVolSlide, op
	case score.XMTremolo:
		return cmdTremolo, op
	case score.XMSetPanning:
		return cmdSetPanning, op + op>>7
	case score.XMSampleOffset:
		return cmdSampleOffset, op
	case score.XMVolumeSlide:
		return cmdVolumeSlide, op
	case score.XMPositionJump:
		return cmdPositionJump, op
	case score.XMSetVolume:
		return cmdSetVolume, op
	case score.XMPatternBreak:
		return cmdPatternBreak, (op>>4)*10 + op&0xF
	case score.XMExtended:
		return decodeXMExtended(op>>4, op&0xF)
	case score.XMSetSpeed:
		if op < 0x20 {
			return cmdSetSpeed, op
		}
		return cmdSetTempo, op
	case score.XMSetGlobalVolume:
		return cmdSetGlobalVolume, min(op, 64) * 2
	case score.XMGlobalVolumeSlide:
		return cmdGlobalVolumeSlide, op
	case score.XMKeyOff:
		return cmdKeyOff, op
	case score.XMSetEnvelopePos:
		return cmdSetEnvelopePos, op
	case score.XMPanningSlide:
		return cmdPanningSlide, op
	case score.XMMultiRetrig:
		return cmdMultiRetrig, op
	case score.XMTremor:
		return cmdTremor, op
	case score.XMExtraFinePorta:
		switch op >> 4 {
		case 1:
			return cmdExtraFinePortaUp, op & 0xF
		case 2:
			return cmdExtraFinePortaDown, op & 0xF
		}
	}
	return cmdNone, 0
}

func decodeXMExtended(x, y int) (command, int) {
	switch x {
	case 0x1:
		return cmdFinePortaUp, y
	case 0x2:
		return cmdFinePortaDown, y
	case 0x4:
		return cmdVibratoWaveform, y
	case 0x5:
		// E58 is the untuned value.
		return cmdSetFineTune, y*16 - 128
	case 0x6:
		return cmdPatternLoop, y
	case 0x7:
		return cmdTremoloWaveform, y
	case 0x8:
		return cmdSetPanning, y * 17 * 256 / 255
	case 0x9:
		return cmdRetrig, y
	case 0xA:
		return cmdFineVolumeUp, y
	case 0xB:
		return cmdFineVolumeDown, y
	case 0xC:
		return cmdNoteCut, y
	case 0xD:
		return cmdNoteDelay, y
	case 0xE:
		return cmdPatternDelay, y
	}
	return cmdNone, 0
}

func decodeIT(code uint8, op int) (command, int) {
	switch code {
	case score.ITSetSpeed:
		return cmdSetSpeed, op
	case score.ITPositionJump:
		return cmdPositionJump, op
	case score.ITPatternBreak:
		return cmdPatternBreak, op
	case score.ITVolumeSlide:
		return cmdVolumeSlide, op
	case score.ITPortaDown:
		return cmdPortaDown, op
	case score.ITPortaUp:
		return cmdPortaUp, op
	case score.ITTonePorta:
		return cmdTonePorta, op
	case score.ITVibrato:
		return cmdVibrato, op
	case score.ITTremor:
		return cmdTremor, op
	case score.ITArpeggio:
		return cmdArpeggio, op
	case score.ITVibratoVolSlide:
		return cmdVibratoVolSlide, op
	case score.ITTonePortaVolSlide:
		return cmdTonePortaVolSlide, op
	case score.ITSetChannelVolume:
		return cmdChannelVolume, op
	case score.ITChannelVolumeSlide:
		return cmdChannelVolumeSlide, op
	case score.ITSampleOffset:
		return cmdSampleOffset, op
	case score.ITPanningSlide:
		return cmdPanningSlide, op
	case score.ITRetrig:
		return cmdMultiRetrig, op
	case score.ITTremolo:
		return cmdTremolo, op
	case score.ITSpecial:
		return decodeITSpecial(op>>4, op&0xF)
	case score.ITSetTempo:
		if op < 0x20 {
			return cmdTempoSlide, op
		}
		return cmdSetTempo, op
	case score.ITFineVibrato:
		return cmdFineVibrato, op
	case score.ITSetGlobalVolume:
		return cmdSetGlobalVolume, min(op, 128)
	case score.ITGlobalVolumeSlide:
		return cmdGlobalVolumeSlide, op
	case score.ITSetPanning:
		return cmdSetPanning, op + op>>7
	case score.ITPanbrello:
		return cmdPanbrello, op
	case score.ITMidiMacro:
		if op < 0x80 {
			return cmdFilterCutoff, op
		}
	}
	return cmdNone, 0
}

func decodeITSpecial(x, y int) (command, int) {
	switch x {
	case 0x2:
		return cmdSetFineTune, int(int8(y << 4))
	case 0x3:
		return cmdVibratoWaveform, y
	case 0x4:
		return cmdTremoloWaveform, y
	case 0x5:
		return cmdPanbrelloWaveform, y
	case 0x6:
		return cmdFinePatternDelay, y
	case 0x7:
		if y <= 2 {
			return cmdPastNote, y
		}
		if y <= 6 {
			return cmdSetNNA, y - 3
		}
	case 0x8:
		return cmdSetPanning, y * 17 * 256 / 255
	case 0xA:
		return cmdHighOffset, y
	case 0xB:
		return cmdPatternLoop, y
	case 0xC:
		return cmdNoteCut, y
	case 0xD:
		return cmdNoteDelay, y
	case 0xE:
		return cmdPatternDelay, y
	}
	return cmdNone, 0
}

// isTonePorta reports whether the cell slides into its note instead of
// retriggering it.
func isTonePorta(e *score.Element, cmd command) bool {
	return cmd == cmdTonePorta || cmd == cmdTonePortaVolSlide || e.VolumeEffect == score.VolTonePortamento
}

// itVolumePorta converts an IT volume-column tone portamento operand to
// the speed of the main-column effect.
var itVolumePorta = [10]int{0, 1, 4, 8, 16, 32, 64, 96, 128, 255}
