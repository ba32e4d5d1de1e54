package sample

// Layout of one channel inside the arena, in order:
//
//	pre-roll | main data | post-roll | loop end | loop start | sustain end | sustain start
//
// Pre- and post-roll are Lookahead samples wide. Each boundary region holds
// 2*Lookahead samples: the Lookahead samples before the boundary followed by
// the Lookahead samples after it, both as they sound during loop playback.
type Region int

const (
	RegionMain Region = iota
	RegionLoopEnd
	RegionLoopStart
	RegionSustainEnd
	RegionSustainStart
)

// Index addresses one sample of a channel inside the arena.
type Index int

// Add offsets the index, typically by a loop boundary adjustment.
func (i Index) Add(n int) Index { return i + Index(n) }

// Buffer is the arena holding all channels of a sample plus the padding the
// interpolation kernels read through.
type Buffer struct {
	length   int
	channels int
	stride   int
	data     []int32
}

const regionWidth = 2 * Lookahead

func newBuffer(length, channels int) *Buffer {
	stride := Lookahead + length + Lookahead + 4*regionWidth
	return &Buffer{
		length:   length,
		channels: channels,
		stride:   stride,
		data:     make([]int32, stride*channels),
	}
}

// Index returns the arena index of main-region position pos.
func (b *Buffer) Index(pos int) Index {
	return Index(Lookahead + pos)
}

// Read returns the sample at index i of channel ch.
func (b *Buffer) Read(ch int, i Index) int32 {
	return b.data[ch*b.stride+int(i)]
}

// Main returns the writable main region of channel ch.
func (b *Buffer) Main(ch int) []int32 {
	start := ch*b.stride + Lookahead
	return b.data[start : start+b.length : start+b.length]
}

// regionStart is the arena index of the first sample of region r.
func (b *Buffer) regionStart(r Region) int {
	if r == RegionMain {
		return 0
	}
	return Lookahead + b.length + Lookahead + int(r-RegionLoopEnd)*regionWidth
}

// regionIndex maps a position relative to the boundary of region r to an
// arena index.
func (b *Buffer) regionIndex(r Region, rel int) Index {
	return Index(b.regionStart(r) + Lookahead + rel)
}

func (b *Buffer) region(ch int, r Region) []int32 {
	if r == RegionMain {
		return b.Main(ch)
	}
	start := ch*b.stride + b.regionStart(r)
	return b.data[start : start+regionWidth]
}

func (b *Buffer) postRoll(ch int) []int32 {
	start := ch*b.stride + Lookahead + b.length
	return b.data[start : start+Lookahead]
}

func (b *Buffer) preRoll(ch int) []int32 {
	start := ch * b.stride
	return b.data[start : start+Lookahead]
}

// inBounds reports whether every tap around i stays inside one channel.
func (b *Buffer) inBounds(i Index) bool {
	return int(i)-reach >= 0 && int(i)+reach < b.stride
}
