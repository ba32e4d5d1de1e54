package modsynth

import (
	"path/filepath"
	"testing"
	"time"

	intaudio "github.com/cbegin/modsynth-go/internal/audio"
)

const testRate = 8000

// scaleFrames is the length of testdata/scale.yaml at testRate: four rows
// of six 160-frame ticks.
const scaleFrames = 4 * 6 * 160

func loadScale(t *testing.T) *Song {
	t.Helper()
	song, err := LoadScore(filepath.Join("testdata", "scale.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return song
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitEvent(t *testing.T, ch <-chan PlaybackEvent, kind int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event %d", kind)
		}
	}
}

func TestPlayerMasterVolumeRuntimeAPI(t *testing.T) {
	pl, err := NewPlayer(48000, WithOutput(OutputNone))
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	if got := pl.MasterVolume(); got != 1 {
		t.Fatalf("default master volume = %v, want 1", got)
	}
	pl.SetMasterVolume(0.35)
	if got := pl.MasterVolume(); got != 0.35 {
		t.Fatalf("master volume = %v, want 0.35", got)
	}
	pl.SetMasterVolume(-2)
	if got := pl.MasterVolume(); got != 0 {
		t.Fatalf("master volume should clamp to 0, got %v", got)
	}
}

func TestNewPlayerValidates(t *testing.T) {
	if _, err := NewPlayer(0); err == nil {
		t.Fatalf("zero sample rate accepted")
	}
	if _, err := NewPlayer(44100, WithOutput("alsa")); err == nil {
		t.Fatalf("unknown output accepted")
	}
	if _, err := NewPlayer(44100, WithOutput(OutputNone), WithEffects("reverb", "flanger")); err == nil {
		t.Fatalf("unknown effect accepted")
	}
	if _, err := NewPlayer(44100, WithOutput(OutputNone), WithEffects("reverb", "echo 120")); err != nil {
		t.Fatalf("valid effects rejected: %v", err)
	}
}

func TestPlayerEQBands(t *testing.T) {
	pl, _ := NewPlayer(testRate, WithOutput(OutputNone))
	for band := range 5 {
		if got := pl.EQBand(band); got != 1 {
			t.Fatalf("band %d default = %v", band, got)
		}
	}
	pl.SetEQBand(0, 0.5)
	pl.SetEQBand(7, 2)
	pl.SetEQBand(1, -1)
	if pl.EQBand(0) != 0.5 || pl.EQBand(1) != 1 || pl.EQBand(7) != 0 {
		t.Fatalf("bands = %v %v %v", pl.EQBand(0), pl.EQBand(1), pl.EQBand(7))
	}
}

func TestPlayToEnd(t *testing.T) {
	sink := intaudio.NewBufferSink()
	pl, err := NewPlayer(testRate, WithSink(sink))
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	events := pl.Watch()
	if err := pl.Play(loadScale(t)); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := pl.Duration(); got != scaleFrames*1000/testRate {
		t.Fatalf("duration = %d", got)
	}
	pl.Wait()
	waitEvent(t, events, EventPlaybackEnded)
	if err := pl.Err(); err != nil {
		t.Fatalf("playback error: %v", err)
	}
	if got := sink.Len(); got != scaleFrames*4 {
		t.Fatalf("rendered %d bytes, want %d", got, scaleFrames*4)
	}
	if pl.IsPlaying() {
		t.Fatalf("still playing after the end")
	}
	if got := pl.Position(); got != scaleFrames*1000/testRate {
		t.Fatalf("position = %d", got)
	}
}

func TestStopPosition(t *testing.T) {
	sink := intaudio.NewBufferSink()
	pl, _ := NewPlayer(testRate, WithSink(sink), WithLoopPlayback(true))
	pl.SetStopPosition(100)
	if err := pl.Play(loadScale(t)); err != nil {
		t.Fatalf("play: %v", err)
	}
	pl.Wait()
	if got, want := sink.Len(), testRate/10*4; got != want {
		t.Fatalf("rendered %d bytes, want %d", got, want)
	}
}

func TestLoopingPlaybackUntilStop(t *testing.T) {
	pl, _ := NewPlayer(testRate, WithOutput(OutputNone), WithLoopPlayback(true))
	events := pl.Watch()
	if err := pl.Play(loadScale(t)); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitEvent(t, events, EventLoopCompleted)

	pl.Pause()
	if !pl.IsPaused() {
		t.Fatalf("not paused")
	}
	pos := pl.Position()
	time.Sleep(5 * time.Millisecond)
	if pl.Position() != pos {
		t.Fatalf("position moved while paused")
	}
	pl.Seek(250)
	if got := pl.Position(); got != 250 {
		t.Fatalf("deferred seek position = %d", got)
	}
	pl.Resume()
	waitFor(t, "resume", pl.IsPlaying)

	waited := make(chan struct{})
	go func() {
		pl.Wait()
		close(waited)
	}()
	if err := pl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatalf("Wait did not return after Stop")
	}
	waitEvent(t, events, EventPlaybackEnded)
	if pl.IsPlaying() || pl.Position() != 0 {
		t.Fatalf("player still active after stop")
	}
}

func TestPlayReplacesPlayback(t *testing.T) {
	pl, _ := NewPlayer(testRate, WithOutput(OutputNone), WithLoopPlayback(true))
	song := loadScale(t)
	if err := pl.Play(song); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, "playing", pl.IsPlaying)
	if err := pl.Play(song); err != nil {
		t.Fatalf("second play: %v", err)
	}
	waitFor(t, "playing again", pl.IsPlaying)
	if err := pl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
