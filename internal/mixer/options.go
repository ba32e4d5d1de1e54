package mixer

import "github.com/cbegin/modsynth-go/internal/sample"

// EventKind identifies mixer lifecycle events.
type EventKind int

const (
	EventLoopCompleted EventKind = iota
	EventPlaybackEnded
)

func (k EventKind) String() string {
	if k == EventLoopCompleted {
		return "loop-completed"
	}
	return "playback-ended"
}

type Options struct {
	SampleRate    int                  // 0 = 44100
	Channels      int                  // 1 or 2, 0 = 2
	BitsPerSample int                  // 8, 16 or 24, 0 = 16
	Interpolation sample.Interpolation // zero value is nearest neighbour
	// LoopSong restarts at the song's restart position instead of ending.
	LoopSong bool
	// StereoSeparation scales panning width in percent, 0 = 100.
	StereoSeparation int
	// MaxVoices bounds the background voices kept alive by new-note
	// actions, 0 = 64.
	MaxVoices int
	// Effects are insert effect directives such as "reverb 0.6,0.8,0.3",
	// applied after the song's own effects and before the master equalizer.
	Effects []string
	// OnEvent is called from the goroutine that calls Mix.
	OnEvent func(EventKind)
}

const (
	defaultSampleRate = 44100
	defaultMaxVoices  = 64
)

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = defaultSampleRate
	}
	if o.Channels <= 0 {
		o.Channels = 2
	}
	if o.BitsPerSample <= 0 {
		o.BitsPerSample = 16
	}
	if o.StereoSeparation <= 0 {
		o.StereoSeparation = 100
	}
	if o.StereoSeparation > 200 {
		o.StereoSeparation = 200
	}
	if o.MaxVoices <= 0 {
		o.MaxVoices = defaultMaxVoices
	}
	return o
}
