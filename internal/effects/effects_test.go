package effects

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

type scale float32

func (s scale) Process(l, r float32) (float32, float32) { return l * float32(s), r * float32(s) }
func (s scale) Reset()                                  {}

type offset float32

func (o offset) Process(l, r float32) (float32, float32) { return l + float32(o), r + float32(o) }
func (o offset) Reset()                                  {}

func TestChainAppliesEffectsInOrder(t *testing.T) {
	c := NewChain(scale(2))
	c.Add(offset(1))
	l, r := c.Process(1, -1)
	if l != 3 || r != -1 {
		t.Fatalf("got (%v, %v), want (3, -1)", l, r)
	}
	left := []float32{1, 2}
	right := []float32{0, 0}
	c.ProcessBlock(left, right)
	if left[1] != 5 || right[0] != 1 {
		t.Fatalf("block = %v %v", left, right)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d", c.Len())
	}
}

func TestGainAndMeter(t *testing.T) {
	buf := []float32{0.5, -1, 0.25, 0}
	ApplyGain(buf, 0.5)
	if buf[1] != -0.5 {
		t.Fatalf("gain not applied: %v", buf)
	}
	var m Meter
	if p := m.Peak(buf); p != 0.5 {
		t.Fatalf("peak = %v, want 0.5", p)
	}
	if buf[1] != -0.5 {
		t.Fatalf("meter modified its input")
	}
	if m.Peak(nil) != 0 {
		t.Fatalf("empty buffers must measure zero")
	}
}

func TestEQ5BandUnityPassesSignal(t *testing.T) {
	eq := NewEQ5Band(44100)
	if !eq.Flat() {
		t.Fatalf("new equalizer is not flat")
	}
	for i := 0; i < 1000; i++ {
		x := float32(math.Sin(float64(i) * 0.1))
		l, r := eq.Process(x, -x)
		if math.Abs(float64(l-x)) > 1e-4 || math.Abs(float64(r+x)) > 1e-4 {
			t.Fatalf("frame %d: unity EQ changed %v into (%v, %v)", i, x, l, r)
		}
	}
}

func TestEQ5BandCutsBass(t *testing.T) {
	eq := NewEQ5Band(44100)
	eq.SetGain(0, 0)
	eq.SetGain(7, 3)
	eq.SetGain(1, -1)
	if eq.Flat() || eq.Gain(1) != 1 || eq.Gain(9) != 1 {
		t.Fatalf("unexpected gains")
	}
	var l float32
	for i := 0; i < 44100; i++ {
		l, _ = eq.Process(1, 1)
	}
	if l > 0.01 {
		t.Fatalf("DC passed through a muted low band: %v", l)
	}
	eq.SetGainDB(0, 0)
	if g := eq.Gain(0); math.Abs(float64(g)-1) > 1e-6 {
		t.Fatalf("0 dB = %v", g)
	}
}

func TestLimiterHoldsCeiling(t *testing.T) {
	lm := NewLimiter(44100, 1, 50)
	for i := 0; i < 2000; i++ {
		x := float32(4 * math.Sin(float64(i)*0.05))
		l, r := lm.Process(x, -x)
		if math.Abs(float64(l)) > 1 || math.Abs(float64(r)) > 1 {
			t.Fatalf("frame %d: (%v, %v) exceeds the ceiling", i, l, r)
		}
	}
	lm.Reset()
	if l, _ := lm.Process(0.5, 0.5); l != 0.5 {
		t.Fatalf("quiet signal altered: %v", l)
	}
}

func TestResonantFilter(t *testing.T) {
	f := NewResonant()
	if l, _ := f.Process(0.3, 0); l != 0.3 || f.Active() {
		t.Fatalf("new filter is not bypassed")
	}
	f.Set(FilterOff, 0, 256, 44100)
	if f.Active() {
		t.Fatalf("fully open filter should bypass")
	}
	f.Set(40, 0, 256, 44100)
	if !f.Active() {
		t.Fatalf("closed filter should be active")
	}
	var l float32
	for i := 0; i < 20000; i++ {
		l, _ = f.Process(1, 1)
	}
	if math.Abs(float64(l)-1) > 1e-3 {
		t.Fatalf("DC gain = %v, want 1", l)
	}
	f.Reset()
	var peak float64
	for i := 0; i < 4000; i++ {
		x := float32(1)
		if i%2 == 1 {
			x = -1
		}
		o, _ := f.Process(x, x)
		if i > 2000 {
			peak = math.Max(peak, math.Abs(float64(o)))
		}
	}
	if peak > 0.05 {
		t.Fatalf("Nyquist tone leaked through at %v", peak)
	}
}

func BenchmarkMasterChain(b *testing.B) {
	c := NewChain(NewEQ5Band(48000), NewLimiter(48000, 1, 50))
	left := make([]float32, 240)
	right := make([]float32, 240)
	for i := range left {
		left[i] = float32(math.Sin(float64(i) * 0.1))
		right[i] = left[i]
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.ProcessBlock(left, right)
	}
}

// impulse feeds a unit impulse followed by silence through e and returns
// the left output.
func impulse(e Effector, frames int) []float32 {
	out := make([]float32, frames)
	for i := range out {
		var x float32
		if i == 0 {
			x = 1
		}
		out[i], _ = e.Process(x, x)
	}
	return out
}

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		directive string
		want      string
	}{
		{"reverb", "*effects.Reverb"},
		{"Reverb 0.6, 0.8, 0.3", "*effects.Reverb"},
		{"delay 125", "*effects.Echo"},
		{"echo", "*effects.Echo"},
		{"chorus 10,0.2", "*effects.Chorus"},
		{"distortion 8", "*effects.Overdrive"},
		{"tone 1.5,1,0.5", "*effects.Tone"},
		{"limiter 0.8", "*effects.Limiter"},
	}
	for _, tc := range tests {
		t.Run(tc.directive, func(t *testing.T) {
			e, err := Parse(tc.directive, 44100)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := fmt.Sprintf("%T", e); got != tc.want {
				t.Fatalf("type = %s, want %s", got, tc.want)
			}
		})
	}
	for _, bad := range []string{"flanger", "delay 1,2,3,4,5", "reverb 0.5,x"} {
		if _, err := Parse(bad, 44100); err == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
	if _, err := Parse("flanger", 44100); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("unknown effect not reported as ErrUnknownEffect: %v", err)
	}
	c, err := ParseChain([]string{"eq", "reverb"}, 44100)
	if err != nil || c.Len() != 2 {
		t.Fatalf("ParseChain = %v, %v", c, err)
	}
	if _, err := ParseChain([]string{"eq", "flanger"}, 44100); err == nil {
		t.Fatalf("chain with an unknown effect accepted")
	}
}

func TestEchoRepeatsAfterDelay(t *testing.T) {
	e := NewEcho(8000, 1, 0.5, 0, 1)
	out := impulse(e, 20)
	for i, v := range out {
		want := float32(0)
		switch i {
		case 8:
			want = 1
		case 16:
			want = 0.5
		}
		if v != want {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
	e.Reset()
	if out := impulse(NewEcho(8000, 1, 0.5, 0, 0), 10); out[0] != 1 || out[8] != 0 {
		t.Fatalf("dry echo = %v", out)
	}
}

func TestEchoCrossFeed(t *testing.T) {
	e := NewEcho(8000, 1, 0.5, 1, 1)
	e.Process(1, 0)
	for i := 1; i < 16; i++ {
		e.Process(0, 0)
	}
	if l, r := e.Process(0, 0); l != 0 || r != 0.5 {
		t.Fatalf("second repeat = (%v, %v), want it on the right", l, r)
	}
}

func TestChorusWithoutSweepIsADelay(t *testing.T) {
	c := NewChorus(8000, 1, 0, 0, 0, 1)
	out := impulse(c, 12)
	for i, v := range out {
		want := float32(0)
		if i == 8 {
			want = 1
		}
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("frame %d = %v, want %v", i, v, want)
		}
	}
}

func TestReverbTailDecays(t *testing.T) {
	rv := NewReverb(8000, 0.5, 0.7, 1)
	out := impulse(rv, 8000)
	var early, late float64
	for i, v := range out {
		if i < 2000 {
			early = math.Max(early, math.Abs(float64(v)))
		} else if i >= 6000 {
			late = math.Max(late, math.Abs(float64(v)))
		}
	}
	if early == 0 || late >= early {
		t.Fatalf("tail does not decay: early %v, late %v", early, late)
	}
	rv.Reset()
	if out := impulse(rv, 100); out[0] != 0 {
		t.Fatalf("reset reverb still rings: %v", out[0])
	}
}

func TestOverdriveSaturates(t *testing.T) {
	o := NewOverdrive(8000, 3, 1, 0)
	l, r := o.Process(1, -1)
	if l < 0.99 || l >= 1 || r != -l {
		t.Fatalf("overdrive = (%v, %v)", l, r)
	}
	o = NewOverdrive(8000, 1, 1, 100)
	var y float32
	for i := 0; i < 4000; i++ {
		x := float32(0.5)
		if i%2 == 1 {
			x = -0.5
		}
		y, _ = o.Process(x, x)
	}
	if math.Abs(float64(y)) > 0.05 {
		t.Fatalf("low-pass passed a Nyquist tone: %v", y)
	}
}

func TestToneUnityPassesSignal(t *testing.T) {
	tone := NewTone(44100, 1, 1, 1, 300, 3000)
	for i := 0; i < 1000; i++ {
		x := float32(math.Sin(float64(i) * 0.3))
		l, r := tone.Process(x, -x)
		if math.Abs(float64(l-x)) > 1e-5 || math.Abs(float64(r+x)) > 1e-5 {
			t.Fatalf("frame %d: unity tone changed %v into (%v, %v)", i, x, l, r)
		}
	}
	bass := NewTone(44100, 0, 1, 1, 300, 3000)
	var l float32
	for i := 0; i < 44100; i++ {
		l, _ = bass.Process(1, 1)
	}
	if math.Abs(float64(l)) > 0.01 {
		t.Fatalf("DC passed a muted low band: %v", l)
	}
}
