package scorefile

// File is the document schema. Every field is optional except orders and
// patterns; omitted song parameters take the tracker defaults.
type File struct {
	Name         string `yaml:"name" json:"name"`
	Dialect      string `yaml:"dialect" json:"dialect"`
	Channels     int    `yaml:"channels" json:"channels"`
	Speed        int    `yaml:"speed" json:"speed"`
	Tempo        int    `yaml:"tempo" json:"tempo"`
	GlobalVolume *int   `yaml:"globalVolume" json:"globalVolume"`
	MixingVolume *int   `yaml:"mixingVolume" json:"mixingVolume"`
	AmigaPeriods bool   `yaml:"amigaPeriods" json:"amigaPeriods"`
	Restart      int    `yaml:"restart" json:"restart"`
	Orders       []int  `yaml:"orders" json:"orders"`
	Panning      []int  `yaml:"panning" json:"panning"` // per channel, 0..256
	Volume       []int  `yaml:"volume" json:"volume"`   // per channel, 0..64

	// Effects are insert effect directives for the master bus, for
	// example "reverb 0.6,0.8,0.3".
	Effects []string `yaml:"effects" json:"effects"`

	Samples     []Sample     `yaml:"samples" json:"samples"`
	Instruments []Instrument `yaml:"instruments" json:"instruments"`
	Patterns    []Pattern    `yaml:"patterns" json:"patterns"`
}

// Sample takes its data from exactly one of Waveform, PCM or WAV.
type Sample struct {
	Name string `yaml:"name" json:"name"`

	// Waveform synthesizes one cycle of sine, square, saw, triangle or
	// noise, repeated to Length frames.
	Waveform string `yaml:"waveform" json:"waveform"`
	Length   int    `yaml:"length" json:"length"`
	Period   int    `yaml:"period" json:"period"` // frames per cycle

	// PCM is base64 encoded raw data described by Encoding.
	PCM      string   `yaml:"pcm" json:"pcm"`
	Encoding Encoding `yaml:"encoding" json:"encoding"`

	// WAV names a file relative to the score file.
	WAV string `yaml:"wav" json:"wav"`

	BaseFrequency int          `yaml:"baseFrequency" json:"baseFrequency"`
	RelativeNote  int          `yaml:"relativeNote" json:"relativeNote"`
	FineTune      int          `yaml:"fineTune" json:"fineTune"`
	Volume        *int         `yaml:"volume" json:"volume"`
	GlobalVolume  *int         `yaml:"globalVolume" json:"globalVolume"`
	Panning       *int         `yaml:"panning" json:"panning"`
	Loop          *Loop        `yaml:"loop" json:"loop"`
	Sustain       *Loop        `yaml:"sustain" json:"sustain"`
	Vibrato       *AutoVibrato `yaml:"vibrato" json:"vibrato"`
}

type Encoding struct {
	Bits      int  `yaml:"bits" json:"bits"`
	Unsigned  bool `yaml:"unsigned" json:"unsigned"`
	BigEndian bool `yaml:"bigEndian" json:"bigEndian"`
	Delta     bool `yaml:"delta" json:"delta"`
	Stereo    bool `yaml:"stereo" json:"stereo"`
}

type Loop struct {
	Kind  string `yaml:"kind" json:"kind"` // normal, pingpong or none
	Start int    `yaml:"start" json:"start"`
	End   int    `yaml:"end" json:"end"`
}

type AutoVibrato struct {
	Type  int `yaml:"type" json:"type"`
	Sweep int `yaml:"sweep" json:"sweep"`
	Depth int `yaml:"depth" json:"depth"`
	Rate  int `yaml:"rate" json:"rate"`
}

type Instrument struct {
	Name string `yaml:"name" json:"name"`

	// Sample plays one sample on every note. Keymap overrides ranges of
	// notes afterwards. With neither, every note plays sample 0.
	Sample *int     `yaml:"sample" json:"sample"`
	Keymap []KeyMap `yaml:"keymap" json:"keymap"`

	NNA             string `yaml:"nna" json:"nna"`
	DuplicateCheck  string `yaml:"duplicateCheck" json:"duplicateCheck"`
	DuplicateAction string `yaml:"duplicateAction" json:"duplicateAction"`

	FadeOut            int    `yaml:"fadeOut" json:"fadeOut"`
	GlobalVolume       *int   `yaml:"globalVolume" json:"globalVolume"`
	Panning            *int   `yaml:"panning" json:"panning"`
	FilterCutoff       *int   `yaml:"filterCutoff" json:"filterCutoff"`
	FilterResonance    *int   `yaml:"filterResonance" json:"filterResonance"`
	RandomVolume       int    `yaml:"randomVolume" json:"randomVolume"`
	RandomPanning      int    `yaml:"randomPanning" json:"randomPanning"`
	PitchPanSeparation int    `yaml:"pitchPanSeparation" json:"pitchPanSeparation"`
	PitchPanCenter     string `yaml:"pitchPanCenter" json:"pitchPanCenter"`

	Vibrato *AutoVibrato `yaml:"vibrato" json:"vibrato"`

	VolumeEnvelope  *Envelope `yaml:"volumeEnvelope" json:"volumeEnvelope"`
	PanningEnvelope *Envelope `yaml:"panningEnvelope" json:"panningEnvelope"`
	PitchEnvelope   *Envelope `yaml:"pitchEnvelope" json:"pitchEnvelope"`
}

// KeyMap assigns the notes From..To (inclusive, "C-4" style) to a sample,
// optionally transposed.
type KeyMap struct {
	From      string `yaml:"from" json:"from"`
	To        string `yaml:"to" json:"to"`
	Sample    int    `yaml:"sample" json:"sample"`
	Transpose int    `yaml:"transpose" json:"transpose"`
}

// Envelope carries the raw type byte of the score's dialect. Points are
// [position, value] pairs with values in 0..64, scaled to the engine range
// on load.
type Envelope struct {
	Type    uint8    `yaml:"type" json:"type"`
	Points  [][2]int `yaml:"points" json:"points"`
	Loop    []int    `yaml:"loop" json:"loop"`
	Sustain []int    `yaml:"sustain" json:"sustain"`
}

// Pattern rows hold one cell per channel separated by "|". Length pads
// the pattern with empty rows.
type Pattern struct {
	Length int      `yaml:"length" json:"length"`
	Rows   []string `yaml:"rows" json:"rows"`
}
