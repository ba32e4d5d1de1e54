package score

import "github.com/cbegin/modsynth-go/internal/dialect"

// Category groups effects by the parameter they touch. Two effects of the
// same category on one row compete; effects of different categories can be
// combined.
type Category int

const (
	CategoryNormal Category = iota
	CategoryVolume
	CategoryPanning
	CategoryPitch
	CategoryGlobal
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryNormal:
		return "normal"
	case CategoryVolume:
		return "volume"
	case CategoryPanning:
		return "panning"
	case CategoryPitch:
		return "pitch"
	case CategoryGlobal:
		return "global"
	default:
		return "unknown"
	}
}

type effectInfo struct {
	name     string
	category Category
}

// XM effect codes. 0x00-0x0F are the MOD effects, the letters G..X follow
// as 0x10 + (letter - 'G').
const (
	XMArpeggio          = 0x00
	XMPortaUp           = 0x01
	XMPortaDown         = 0x02
	XMTonePorta         = 0x03
	XMVibrato           = 0x04
	XMTonePortaVolSlide = 0x05
	XMVibratoVolSlide   = 0x06
	XMTremolo           = 0x07
	XMSetPanning        = 0x08
	XMSampleOffset      = 0x09
	XMVolumeSlide       = 0x0A
	XMPositionJump      = 0x0B
	XMSetVolume         = 0x0C
	XMPatternBreak      = 0x0D
	XMExtended          = 0x0E
	XMSetSpeed          = 0x0F
	XMSetGlobalVolume   = 0x10
	XMGlobalVolumeSlide = 0x11
	XMKeyOff            = 0x14
	XMSetEnvelopePos    = 0x15
	XMPanningSlide      = 0x19
	XMMultiRetrig       = 0x1B
	XMTremor            = 0x1D
	XMExtraFinePorta    = 0x21
)

// IT effect codes, 'A' = 1 through 'Z' = 26.
const (
	ITSetSpeed = iota + 1
	ITPositionJump
	ITPatternBreak
	ITVolumeSlide
	ITPortaDown
	ITPortaUp
	ITTonePorta
	ITVibrato
	ITTremor
	ITArpeggio
	ITVibratoVolSlide
	ITTonePortaVolSlide
	ITSetChannelVolume
	ITChannelVolumeSlide
	ITSampleOffset
	ITPanningSlide
	ITRetrig
	ITTremolo
	ITSpecial
	ITSetTempo
	ITFineVibrato
	ITSetGlobalVolume
	ITGlobalVolumeSlide
	ITSetPanning
	ITPanbrello
	ITMidiMacro
)

var xmEffects = map[uint8]effectInfo{
	XMArpeggio:          {"Arpeggio", CategoryPitch},
	XMPortaUp:           {"Portamento Up", CategoryPitch},
	XMPortaDown:         {"Portamento Down", CategoryPitch},
	XMTonePorta:         {"Tone Portamento", CategoryPitch},
	XMVibrato:           {"Vibrato", CategoryPitch},
	XMTonePortaVolSlide: {"Tone Portamento + Volume Slide", CategoryVolume},
	XMVibratoVolSlide:   {"Vibrato + Volume Slide", CategoryVolume},
	XMTremolo:           {"Tremolo", CategoryVolume},
	XMSetPanning:        {"Set Panning", CategoryPanning},
	XMSampleOffset:      {"Sample Offset", CategoryNormal},
	XMVolumeSlide:       {"Volume Slide", CategoryVolume},
	XMPositionJump:      {"Position Jump", CategoryGlobal},
	XMSetVolume:         {"Set Volume", CategoryVolume},
	XMPatternBreak:      {"Pattern Break", CategoryGlobal},
	XMSetSpeed:          {"Set Speed/Tempo", CategoryGlobal},
	XMSetGlobalVolume:   {"Set Global Volume", CategoryGlobal},
	XMGlobalVolumeSlide: {"Global Volume Slide", CategoryGlobal},
	XMKeyOff:            {"Key Off", CategoryNormal},
	XMSetEnvelopePos:    {"Set Envelope Position", CategoryNormal},
	XMPanningSlide:      {"Panning Slide", CategoryPanning},
	XMMultiRetrig:       {"Multi Retrig", CategoryNormal},
	XMTremor:            {"Tremor", CategoryVolume},
	XMExtraFinePorta:    {"Extra Fine Portamento", CategoryPitch},
}

// Indexed by the high nibble of the Exy operand.
var xmExtended = [16]effectInfo{
	{"Set Filter", CategoryNormal},
	{"Fine Portamento Up", CategoryPitch},
	{"Fine Portamento Down", CategoryPitch},
	{"Glissando Control", CategoryPitch},
	{"Vibrato Waveform", CategoryPitch},
	{"Set Finetune", CategoryPitch},
	{"Pattern Loop", CategoryGlobal},
	{"Tremolo Waveform", CategoryVolume},
	{"Set Coarse Panning", CategoryPanning},
	{"Retrigger", CategoryNormal},
	{"Fine Volume Slide Up", CategoryVolume},
	{"Fine Volume Slide Down", CategoryVolume},
	{"Note Cut", CategoryVolume},
	{"Note Delay", CategoryNormal},
	{"Pattern Delay", CategoryGlobal},
	{"Invert Loop", CategoryNormal},
}

var itEffects = map[uint8]effectInfo{
	ITSetSpeed:           {"Set Speed", CategoryGlobal},
	ITPositionJump:       {"Position Jump", CategoryGlobal},
	ITPatternBreak:       {"Pattern Break", CategoryGlobal},
	ITVolumeSlide:        {"Volume Slide", CategoryVolume},
	ITPortaDown:          {"Portamento Down", CategoryPitch},
	ITPortaUp:            {"Portamento Up", CategoryPitch},
	ITTonePorta:          {"Tone Portamento", CategoryPitch},
	ITVibrato:            {"Vibrato", CategoryPitch},
	ITTremor:             {"Tremor", CategoryVolume},
	ITArpeggio:           {"Arpeggio", CategoryPitch},
	ITVibratoVolSlide:    {"Vibrato + Volume Slide", CategoryVolume},
	ITTonePortaVolSlide:  {"Tone Portamento + Volume Slide", CategoryVolume},
	ITSetChannelVolume:   {"Set Channel Volume", CategoryVolume},
	ITChannelVolumeSlide: {"Channel Volume Slide", CategoryVolume},
	ITSampleOffset:       {"Sample Offset", CategoryNormal},
	ITPanningSlide:       {"Panning Slide", CategoryPanning},
	ITRetrig:             {"Retrigger", CategoryNormal},
	ITTremolo:            {"Tremolo", CategoryVolume},
	ITSetTempo:           {"Set Tempo", CategoryGlobal},
	ITFineVibrato:        {"Fine Vibrato", CategoryPitch},
	ITSetGlobalVolume:    {"Set Global Volume", CategoryGlobal},
	ITGlobalVolumeSlide:  {"Global Volume Slide", CategoryGlobal},
	ITSetPanning:         {"Set Panning", CategoryPanning},
	ITPanbrello:          {"Panbrello", CategoryPanning},
	ITMidiMacro:          {"MIDI Macro", CategoryNormal},
}

// Indexed by the high nibble of the Sxy operand.
var itSpecial = [16]effectInfo{
	{"Set Filter", CategoryNormal},
	{"Glissando Control", CategoryPitch},
	{"Set Finetune", CategoryPitch},
	{"Vibrato Waveform", CategoryPitch},
	{"Tremolo Waveform", CategoryVolume},
	{"Panbrello Waveform", CategoryPanning},
	{"Fine Pattern Delay", CategoryGlobal},
	{"Instrument Control", CategoryNormal},
	{"Set Coarse Panning", CategoryPanning},
	{"Sound Control", CategoryNormal},
	{"High Offset", CategoryNormal},
	{"Pattern Loop", CategoryGlobal},
	{"Note Cut", CategoryVolume},
	{"Note Delay", CategoryNormal},
	{"Pattern Delay", CategoryGlobal},
	{"Set Active Macro", CategoryNormal},
}

func lookupEffect(d dialect.Dialect, code, op uint8) (effectInfo, bool) {
	if d == dialect.IT {
		if code == ITSpecial {
			return itSpecial[op>>4], true
		}
		info, ok := itEffects[code]
		return info, ok
	}
	if code == XMExtended {
		return xmExtended[op>>4], true
	}
	info, ok := xmEffects[code]
	return info, ok
}

// EffectName returns the display name of an effect, or "Unknown".
func EffectName(d dialect.Dialect, code, op uint8) string {
	if info, ok := lookupEffect(d, code, op); ok {
		return info.name
	}
	return "Unknown"
}

// EffectCategory classifies an effect. Codes outside the dialect's table
// are CategoryUnknown.
func EffectCategory(d dialect.Dialect, code, op uint8) Category {
	if info, ok := lookupEffect(d, code, op); ok {
		return info.category
	}
	return CategoryUnknown
}

// VolumeCategory classifies a decoded volume column command.
func VolumeCategory(k VolumeKind) Category {
	switch k {
	case VolNone:
		return CategoryNormal
	case VolSet, VolSlideUp, VolSlideDown, VolFineUp, VolFineDown:
		return CategoryVolume
	case VolSetPanning, VolPanSlideLeft, VolPanSlideRight:
		return CategoryPanning
	case VolVibratoSpeed, VolVibratoDepth, VolTonePortamento, VolPortamentoDown, VolPortamentoUp:
		return CategoryPitch
	default:
		return CategoryUnknown
	}
}

// EffectLetter is the character trackers display for an effect code.
func EffectLetter(d dialect.Dialect, code uint8) byte {
	if d == dialect.IT {
		if code >= 1 && code <= 26 {
			return 'A' + code - 1
		}
		return '?'
	}
	switch {
	case code <= 9:
		return '0' + code
	case code <= 35:
		return 'A' + code - 10
	default:
		return '?'
	}
}

// EffectCode is the inverse of EffectLetter.
func EffectCode(d dialect.Dialect, letter byte) (uint8, bool) {
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if d == dialect.IT {
		if letter >= 'A' && letter <= 'Z' {
			return letter - 'A' + 1, true
		}
		return 0, false
	}
	switch {
	case letter >= '0' && letter <= '9':
		return letter - '0', true
	case letter >= 'A' && letter <= 'Z':
		return letter - 'A' + 10, true
	default:
		return 0, false
	}
}
