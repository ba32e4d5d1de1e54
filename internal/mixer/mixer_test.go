package mixer

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cbegin/modsynth-go/internal/dialect"
	"github.com/cbegin/modsynth-go/internal/effects"
	"github.com/cbegin/modsynth-go/internal/envelope"
	"github.com/cbegin/modsynth-go/internal/sample"
	"github.com/cbegin/modsynth-go/internal/score"
)

const testRate = 8000

// tickFrames is the tick length at the default tempo of 125.
const tickFrames = testRate * 5 / 250

// buildSong creates a one-channel song with a looped sample and the given
// rows, one pattern per entry of patterns.
func buildSong(t testing.TB, d dialect.Dialect, data func(i int) int32, patterns ...[]string) *score.Song {
	t.Helper()
	s := score.NewSong(d, 1)
	smp := sample.New(1000, false)
	for i := range smp.Left() {
		smp.Left()[i] = data(i)
	}
	smp.SetLoop(sample.LoopNormal, 0, 1000)
	smp.FixSampleLoops()
	idx := s.Instruments.AddSample(smp)
	ins := score.NewInstrument(d)
	ins.SetAllSamples(idx)
	s.Instruments.AddInstrument(ins)
	for _, rows := range patterns {
		p, n := s.NewPattern(len(rows))
		for r, text := range rows {
			e, err := score.ParseElement(d, text)
			if err != nil {
				t.Fatalf("row %q: %v", text, err)
			}
			p.Row(r).SetElement(0, e)
		}
		s.Orders = append(s.Orders, n)
	}
	return s
}

func dc(int) int32 { return 1 << 30 }

func ramp(i int) int32 { return int32(i%100-50) << 24 }

func newTestMixer(t *testing.T, s *score.Song, opts Options) *Mixer {
	t.Helper()
	if opts.SampleRate == 0 {
		opts.SampleRate = testRate
	}
	m, err := NewWithOptions(s, opts)
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return m
}

// renderAll mixes until the song ends or limit frames were produced.
func renderAll(m *Mixer, limit int) []byte {
	var out []byte
	buf := make([]byte, 40*m.Format().FrameBytes())
	for len(out) < limit*m.Format().FrameBytes() {
		n, ended := m.Mix(buf)
		out = append(out, buf[:n]...)
		if ended {
			break
		}
	}
	return out
}

func frameAt(b []byte, i int) (int16, int16) {
	return int16(uint16(b[i*4]) | uint16(b[i*4+1])<<8), int16(uint16(b[i*4+2]) | uint16(b[i*4+3])<<8)
}

func TestNewRejectsInvalidSongs(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("nil song accepted")
	}
	s := score.NewSong(dialect.XM, 1)
	if _, err := New(s); err == nil {
		t.Fatalf("song without orders accepted")
	}
	s = buildSong(t, dialect.XM, dc, []string{"C-5 01"})
	if _, err := NewWithOptions(s, Options{BitsPerSample: 12}); err == nil {
		t.Fatalf("12-bit output accepted")
	}
}

func TestPlaysToEnd(t *testing.T) {
	var events []EventKind
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", "", "", ""})
	m := newTestMixer(t, s, Options{OnEvent: func(k EventKind) { events = append(events, k) }})
	out := renderAll(m, 1<<20)
	want := 4 * 6 * tickFrames
	if got := len(out) / 4; got != want {
		t.Fatalf("rendered %d frames, want %d", got, want)
	}
	if len(events) != 1 || events[0] != EventPlaybackEnded {
		t.Fatalf("events = %v", events)
	}
	if n, ended := m.Mix(make([]byte, 64)); n != 0 || !ended {
		t.Fatalf("Mix after end = (%d, %v)", n, ended)
	}
	if got := m.Position(); got != int64(want)*1000/testRate {
		t.Fatalf("position = %d", got)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		d    dialect.Dialect
		rows []string
		want int64 // frames
	}{
		{"plain", dialect.XM, []string{"C-5 01", "", "", ""}, 4 * 6 * tickFrames},
		{"speed", dialect.XM, []string{"... .. ... F03", ""}, 2 * 3 * tickFrames},
		{"tempo", dialect.IT, []string{"... .. ... TFA", ""}, 2 * 6 * (testRate * 5 / 500)},
		{"jump back", dialect.XM, []string{"", "... .. ... B00", ""}, 2 * 6 * tickFrames},
		{"pattern loop", dialect.XM, []string{"... .. ... E60", "... .. ... E62", ""}, 7 * 6 * tickFrames},
		{"pattern delay", dialect.IT, []string{"... .. ... SE1", ""}, (12 + 6) * tickFrames},
		{"break", dialect.IT, []string{"", "... .. ... C00", "", ""}, 2 * 6 * tickFrames},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMixer(t, buildSong(t, tc.d, dc, tc.rows), Options{})
			if got := m.Duration(); got != tc.want*1000/testRate {
				t.Fatalf("duration = %dms, want %dms", got, tc.want*1000/testRate)
			}
			if m.Position() != 0 {
				t.Fatalf("duration moved the position to %d", m.Position())
			}
		})
	}
}

func TestDurationAcrossOrders(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", ""}, []string{"", "", ""})
	m := newTestMixer(t, s, Options{})
	if got, want := m.Duration(), int64(5*6*tickFrames*1000/testRate); got != want {
		t.Fatalf("duration = %d, want %d", got, want)
	}
}

func TestNoteProducesCenteredOutput(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", "", "", ""})
	m := newTestMixer(t, s, Options{})
	out := renderAll(m, 1000)
	l, r := frameAt(out, 500)
	// Full volume, center pan: 0.5 * headroom * 0.5.
	want := int16(math.Round(0.125 * math.MaxInt16))
	if abs(int(l-want)) > 2 || abs(int(r-want)) > 2 {
		t.Fatalf("frame 500 = (%d, %d), want about %d", l, r, want)
	}
	ll, rr := m.Levels()
	if ll < 0.12 || rr < 0.12 {
		t.Fatalf("levels = (%v, %v)", ll, rr)
	}
}

func TestEmptyPatternIsSilent(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"", ""})
	out := renderAll(newTestMixer(t, s, Options{}), 1<<20)
	if len(out) == 0 || !bytes.Equal(out, make([]byte, len(out))) {
		t.Fatalf("empty pattern produced sound")
	}
}

func TestEightBitSilenceIsUnsigned(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{""})
	m := newTestMixer(t, s, Options{BitsPerSample: 8, Channels: 1})
	out := renderAll(m, 1<<20)
	if len(out) != 6*tickFrames {
		t.Fatalf("rendered %d bytes", len(out))
	}
	for i, b := range out {
		if b != 0x80 {
			t.Fatalf("byte %d = %#x, want 0x80", i, b)
		}
	}
}

func TestMasterVolume(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", ""})
	m := newTestMixer(t, s, Options{})
	m.SetMasterVolume(0)
	out := renderAll(m, 1<<20)
	if !bytes.Equal(out, make([]byte, len(out))) {
		t.Fatalf("muted mixer produced sound")
	}
	if l, r := m.Levels(); l != 0 || r != 0 {
		t.Fatalf("levels = (%v, %v)", l, r)
	}
	m.SetMasterVolume(-1)
	if m.MasterVolume() != 0 {
		t.Fatalf("negative master volume stored")
	}
}

func TestPanningAndSeparation(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01 ... 800", "", "", ""})
	out := renderAll(newTestMixer(t, s, Options{}), 1000)
	l, r := frameAt(out, 500)
	if r != 0 || l < 8000 {
		t.Fatalf("hard left = (%d, %d)", l, r)
	}
	out = renderAll(newTestMixer(t, s, Options{StereoSeparation: 50}), 1000)
	l, r = frameAt(out, 500)
	if r == 0 || l <= r {
		t.Fatalf("half separation = (%d, %d)", l, r)
	}
}

func TestLoopSongKeepsPlaying(t *testing.T) {
	loops := 0
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", ""})
	m := newTestMixer(t, s, Options{LoopSong: true, OnEvent: func(k EventKind) {
		if k == EventLoopCompleted {
			loops++
		}
	}})
	songFrames := 2 * 6 * tickFrames
	out := renderAll(m, 3*songFrames+10)
	if len(out)/4 < 3*songFrames {
		t.Fatalf("looping song ended after %d frames", len(out)/4)
	}
	if loops != 3 {
		t.Fatalf("loops = %d, want 3", loops)
	}
}

func TestSeekMatchesContinuousRender(t *testing.T) {
	rows := []string{"C-5 01", "", "D-5 01 v32", "", "E-5 01 ... 408", "", "", ""}
	s := buildSong(t, dialect.XM, ramp, rows)
	full := renderAll(newTestMixer(t, s, Options{Interpolation: sample.InterpolationLinear}), 1<<20)

	for _, ms := range []int64{0, 130, 250, 333} {
		m := newTestMixer(t, s, Options{Interpolation: sample.InterpolationLinear})
		renderAll(m, 200)
		m.Seek(ms)
		if m.Position() != ms {
			t.Fatalf("position after seek = %d, want %d", m.Position(), ms)
		}
		got := renderAll(m, 300)
		off := int(ms) * testRate / 1000 * 4
		if !bytes.Equal(got, full[off:off+len(got)]) {
			t.Fatalf("seek to %dms differs from continuous rendering", ms)
		}
	}
}

func TestSeekPastEndEnds(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", ""})
	m := newTestMixer(t, s, Options{})
	m.Seek(60_000)
	if n, ended := m.Mix(make([]byte, 64)); n != 0 || !ended {
		t.Fatalf("Mix after seeking past the end = (%d, %v)", n, ended)
	}
	m.Seek(0)
	if n, _ := m.Mix(make([]byte, 64)); n != 64 {
		t.Fatalf("seek back did not restart the song")
	}
}

func TestMixersShareSongIndependently(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", "", "... .. ... B00"})
	want := renderAll(newTestMixer(t, s, Options{}), 1<<20)
	if len(want) != 3*6*tickFrames*4 {
		t.Fatalf("solo render = %d frames", len(want)/4)
	}

	a := newTestMixer(t, s, Options{})
	b := newTestMixer(t, s, Options{})
	var gotA, gotB []byte
	bufA := make([]byte, 40*4)
	bufB := make([]byte, 40*4)
	for doneA, doneB := false, false; !doneA || !doneB; {
		if !doneA {
			n, ended := a.Mix(bufA)
			gotA = append(gotA, bufA[:n]...)
			doneA = ended
		}
		if !doneB {
			n, ended := b.Mix(bufB)
			gotB = append(gotB, bufB[:n]...)
			doneB = ended
			if len(gotB) == len(bufB) {
				if d := b.Duration(); d != int64(3*6*tickFrames*1000/testRate) {
					t.Fatalf("duration during playback = %d", d)
				}
			}
		}
	}
	if !bytes.Equal(gotA, want) || !bytes.Equal(gotB, want) {
		t.Fatalf("interleaved renders = %d and %d frames, want %d identical frames", len(gotA)/4, len(gotB)/4, len(want)/4)
	}
}

func TestInstrumentWithoutEnvelopes(t *testing.T) {
	s := buildSong(t, dialect.IT, dc, []string{"C-5 01", "===", "C-5 01", ""})
	ins := s.Instruments.Instrument(1)
	ins.VolumeEnvelope, ins.PanningEnvelope, ins.PitchEnvelope = nil, nil, nil
	ins.NNA = score.NNAContinue
	m := newTestMixer(t, s, Options{})
	out := renderAll(m, 1<<20)
	if l, _ := frameAt(out, tickFrames); l == 0 {
		t.Fatalf("note without envelopes is silent")
	}

	ins.Sanitize()
	if ins.VolumeEnvelope == nil || ins.PanningEnvelope == nil || ins.PitchEnvelope == nil {
		t.Fatalf("Sanitize left a nil envelope")
	}
	if ins.PitchEnvelope.Kind() != envelope.Pitch || ins.PanningEnvelope.Kind() != envelope.Panning {
		t.Fatalf("replacement envelopes have the wrong kind")
	}
	again := renderAll(newTestMixer(t, s, Options{}), 1<<20)
	if !bytes.Equal(out, again) {
		t.Fatalf("inert replacement envelopes change the output")
	}
}

func activeBackground(m *Mixer) int {
	n := 0
	for _, v := range m.voices {
		if v.active {
			n++
		}
	}
	return n
}

func TestNewNoteActions(t *testing.T) {
	tests := []struct {
		nna  score.NNA
		want int
	}{
		{score.NNACut, 0},
		{score.NNAContinue, 1},
		{score.NNANoteOff, 1},
	}
	for _, tc := range tests {
		t.Run(tc.nna.String(), func(t *testing.T) {
			s := buildSong(t, dialect.IT, dc, []string{"C-5 01", "E-5 01", "", ""})
			ins := s.Instruments.Instrument(1)
			ins.NNA = tc.nna
			ins.VolumeEnvelope.SetPoints([]envelope.Point{{Position: 0, Value: 512}, {Position: 10, Value: 512}})
			ins.VolumeEnvelope.SetITType(1)
			m := newTestMixer(t, s, Options{})
			renderAll(m, 6*tickFrames+3*tickFrames)
			if got := activeBackground(m); got != tc.want {
				t.Fatalf("background voices = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDuplicateCheckCutsSameNote(t *testing.T) {
	s := buildSong(t, dialect.IT, dc, []string{"C-5 01", "E-5 01", "C-5 01", ""})
	ins := s.Instruments.Instrument(1)
	ins.NNA = score.NNAContinue
	ins.DuplicateCheck = score.DCTNote
	ins.DuplicateAction = score.DCACut
	m := newTestMixer(t, s, Options{})
	renderAll(m, 3*6*tickFrames+tickFrames)
	if got := activeBackground(m); got != 1 {
		t.Fatalf("background voices = %d, want 1", got)
	}
}

func TestKeyOffWithoutEnvelopeStopsXMNote(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", "===", "", ""})
	m := newTestMixer(t, s, Options{})
	out := renderAll(m, 1<<20)
	if l, _ := frameAt(out, 6*tickFrames-10); l == 0 {
		t.Fatalf("note silent before the key off")
	}
	if l, _ := frameAt(out, 6*tickFrames+200); l != 0 {
		t.Fatalf("note still sounding after the key off: %d", l)
	}
}

func TestFadeOutAfterNoteOff(t *testing.T) {
	s := buildSong(t, dialect.IT, dc, []string{"C-5 01", "===", "", "", "", ""})
	s.Instruments.Instrument(1).FadeOut = score.FadeOutMax / 8
	m := newTestMixer(t, s, Options{})
	out := renderAll(m, 1<<20)
	before, _ := frameAt(out, 6*tickFrames-10)
	mid, _ := frameAt(out, 6*tickFrames+4*tickFrames)
	after, _ := frameAt(out, 3*6*tickFrames)
	if !(before > mid && mid > 0 && after == 0) {
		t.Fatalf("fade = %d, %d, %d", before, mid, after)
	}
}

func TestVolumeEffects(t *testing.T) {
	tests := []struct {
		name string
		d    dialect.Dialect
		rows []string
		want int // channel volume after the first row
	}{
		{"volume column", dialect.XM, []string{"C-5 01 v32"}, 32},
		{"set volume", dialect.XM, []string{"C-5 01 ... C10"}, 16},
		{"xm slide", dialect.XM, []string{"C-5 01 v32 A04"}, 32 - 5*4},
		{"it slide", dialect.IT, []string{"C-5 01 v32 D40"}, 32 + 5*4},
		{"it fine slide", dialect.IT, []string{"C-5 01 v32 DF4"}, 28},
		{"fine up", dialect.XM, []string{"C-5 01 v60 EA8"}, 64},
		{"note cut", dialect.XM, []string{"C-5 01 ... EC2"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMixer(t, buildSong(t, tc.d, dc, append(tc.rows, "")), Options{})
			renderAll(m, 6*tickFrames)
			if got := m.channels[0].volume; got != tc.want {
				t.Fatalf("volume = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPortamento(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01 ... 104", "", "C-5 01", "D-5 01 ... 3FF", ""})
	m := newTestMixer(t, s, Options{})
	renderAll(m, 6*tickFrames)
	c := m.channels[0]
	start := notePeriod(true, 61, 0, c.smp)
	if got := c.period; got != start-5*16 {
		t.Fatalf("period after porta up = %d, want %d", got, start-5*16)
	}
	renderAll(m, 3*6*tickFrames)
	if got, want := c.period, notePeriod(true, 63, 0, c.smp); got != want {
		t.Fatalf("tone portamento stopped at %d, want %d", got, want)
	}
}

func TestPitchConversions(t *testing.T) {
	smp := sample.New(10, false)
	for _, linear := range []bool{true, false} {
		c5 := periodFrequency(linear, notePeriod(linear, 61, 0, smp), smp.BaseFrequency)
		c6 := periodFrequency(linear, notePeriod(linear, 73, 0, smp), smp.BaseFrequency)
		if math.Abs(c5-8363) > 1 || math.Abs(c6-2*8363) > 4 {
			t.Fatalf("linear=%v: C-5 %v Hz, C-6 %v Hz", linear, c5, c6)
		}
	}
	smp.RelativeNote = 12
	if notePeriod(true, 61, 0, smp) != notePeriod(true, 73, 0, sample.New(10, false)) {
		t.Fatalf("relative note ignored")
	}
	if got := increment(8363, 8363); got != sample.FracOne {
		t.Fatalf("increment = %d", got)
	}
	if increment(0, 44100) != 0 {
		t.Fatalf("zero frequency must not advance")
	}
}

func TestDecodeDialects(t *testing.T) {
	tests := []struct {
		d     dialect.Dialect
		text  string
		cmd   command
		param int
	}{
		{dialect.XM, "... .. ... E62", cmdPatternLoop, 2},
		{dialect.IT, "... .. ... SB2", cmdPatternLoop, 2},
		{dialect.XM, "... .. ... F20", cmdSetTempo, 0x20},
		{dialect.XM, "... .. ... F1F", cmdSetSpeed, 0x1F},
		{dialect.IT, "... .. ... T05", cmdTempoSlide, 5},
		{dialect.XM, "... .. ... D12", cmdPatternBreak, 12},
		{dialect.IT, "... .. ... C12", cmdPatternBreak, 0x12},
		{dialect.XM, "... .. ... G40", cmdSetGlobalVolume, 128},
		{dialect.IT, "... .. ... Z40", cmdFilterCutoff, 0x40},
		{dialect.IT, "... .. ... S74", cmdSetNNA, int(score.NNAContinue)},
		{dialect.XM, "... .. ... E58", cmdSetFineTune, 0},
		{dialect.XM, "... .. ... 047", cmdArpeggio, 0x47},
		{dialect.XM, "C-5", cmdNone, 0},
	}
	for _, tc := range tests {
		e, err := score.ParseElement(tc.d, tc.text)
		if err != nil {
			t.Fatalf("%q: %v", tc.text, err)
		}
		cmd, param := decode(&e)
		if cmd != tc.cmd || param != tc.param {
			t.Errorf("%v %q = (%d, %d), want (%d, %d)", tc.d, tc.text, cmd, param, tc.cmd, tc.param)
		}
	}
}

func TestPutSample(t *testing.T) {
	tests := []struct {
		bps  int
		x    float32
		want []byte
	}{
		{1, 0, []byte{0x80}},
		{1, -1, []byte{0x01}},
		{1, 2, []byte{0xFF}},
		{2, 1, []byte{0xFF, 0x7F}},
		{2, -1, []byte{0x01, 0x80}},
		{3, 0.5, []byte{0x00, 0x00, 0x40}},
	}
	for _, tc := range tests {
		p := make([]byte, tc.bps)
		if n := putSample(p, 0, tc.bps, tc.x); n != tc.bps || !bytes.Equal(p, tc.want) {
			t.Errorf("putSample(%d, %v) = %x, want %x", tc.bps, tc.x, p, tc.want)
		}
	}
}

func TestMaxVoicesDropsOldest(t *testing.T) {
	rows := strings.Split(strings.Repeat("C-5 01,", 8), ",")
	s := buildSong(t, dialect.IT, dc, rows[:8])
	s.Instruments.Instrument(1).NNA = score.NNAContinue
	m := newTestMixer(t, s, Options{MaxVoices: 3})
	renderAll(m, 7*6*tickFrames+tickFrames)
	if got := len(m.voices); got != 3 {
		t.Fatalf("background voices = %d, want 3", got)
	}
}

func BenchmarkMix(b *testing.B) {
	s := buildSong(b, dialect.XM, ramp, []string{"C-5 01", "E-5 01", "G-5 01", "C-6 01"})
	m, _ := NewWithOptions(s, Options{SampleRate: 44100, LoopSong: true, Interpolation: sample.InterpolationSinc})
	buf := make([]byte, 220*4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Mix(buf)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestInsertEffects(t *testing.T) {
	s := buildSong(t, dialect.XM, dc, []string{"C-5 01", "", ""})
	dry := renderAll(newTestMixer(t, s, Options{}), 1<<20)
	m := newTestMixer(t, s, Options{Effects: []string{"echo 10,0,0,1"}})
	wet := renderAll(m, 1<<20)
	if len(wet) != len(dry) {
		t.Fatalf("effects changed the length: %d frames, want %d", len(wet)/4, len(dry)/4)
	}
	if l, _ := frameAt(dry, 10); l == 0 {
		t.Fatalf("dry render silent at frame 10")
	}
	if l, r := frameAt(wet, 10); l != 0 || r != 0 {
		t.Fatalf("fully wet echo passed the dry signal: (%d, %d)", l, r)
	}
	m.Seek(0)
	if again := renderAll(m, 1<<20); !bytes.Equal(again, wet) {
		t.Fatalf("seeking to the start did not clear the effect tails")
	}

	s.Effects = []string{"echo 10,0,0,1"}
	if fromSong := renderAll(newTestMixer(t, s, Options{}), 1<<20); !bytes.Equal(fromSong, wet) {
		t.Fatalf("song effects render differently from option effects")
	}
	s.Effects = []string{"flanger"}
	if _, err := NewWithOptions(s, Options{SampleRate: testRate}); !errors.Is(err, effects.ErrUnknownEffect) {
		t.Fatalf("err = %v, want ErrUnknownEffect", err)
	}
}
