package sample

import (
	"errors"
	"fmt"
)

var ErrUnsupportedEncoding = errors.New("unsupported PCM encoding")

// PCMEncoding describes raw sample bytes as delivered by a format loader,
// after any format-specific decompression.
type PCMEncoding struct {
	Bits      int // 8 or 16
	Unsigned  bool
	BigEndian bool
	// Delta means every value is stored as the difference to its predecessor,
	// per channel, wrapping at the native width.
	Delta  bool
	Stereo bool // interleaved L/R frames
}

func (e PCMEncoding) frameBytes() int {
	n := e.Bits / 8
	if e.Stereo {
		n *= 2
	}
	return n
}

// DecodePCM converts raw bytes into normalized 32-bit values: 8-bit input is
// shifted left by 24, 16-bit input by 16. A trailing partial frame is
// ignored. right is nil for mono input.
func DecodePCM(raw []byte, enc PCMEncoding) (left, right []int32, err error) {
	if enc.Bits != 8 && enc.Bits != 16 {
		return nil, nil, fmt.Errorf("%w: %d bits", ErrUnsupportedEncoding, enc.Bits)
	}
	frames := len(raw) / enc.frameBytes()
	left = make([]int32, frames)
	if enc.Stereo {
		right = make([]int32, frames)
	}
	var prev [2]int32
	width := enc.Bits / 8
	for f := 0; f < frames; f++ {
		for ch := 0; ch < 2; ch++ {
			if ch == 1 && !enc.Stereo {
				break
			}
			off := f*enc.frameBytes() + ch*width
			v := enc.value(raw[off : off+width])
			if enc.Delta {
				v = enc.wrap(prev[ch] + v)
				prev[ch] = v
			}
			shifted := v << (32 - enc.Bits)
			if ch == 0 {
				left[f] = shifted
			} else {
				right[f] = shifted
			}
		}
	}
	return left, right, nil
}

func (e PCMEncoding) value(b []byte) int32 {
	if e.Bits == 8 {
		if e.Unsigned {
			return int32(b[0]) - 128
		}
		return int32(int8(b[0]))
	}
	var u uint16
	if e.BigEndian {
		u = uint16(b[0])<<8 | uint16(b[1])
	} else {
		u = uint16(b[1])<<8 | uint16(b[0])
	}
	if e.Unsigned {
		return int32(u) - 32768
	}
	return int32(int16(u))
}

func (e PCMEncoding) wrap(v int32) int32 {
	if e.Bits == 8 {
		return int32(int8(v))
	}
	return int32(int16(v))
}

// LoadPCM allocates the sample to fit raw and decodes it into the main
// region. Loops still need FixSampleLoops afterwards.
func (s *Sample) LoadPCM(raw []byte, enc PCMEncoding) error {
	left, right, err := DecodePCM(raw, enc)
	if err != nil {
		return err
	}
	s.AllocSampleData(len(left), enc.Stereo)
	copy(s.Left(), left)
	if enc.Stereo {
		copy(s.Right(), right)
	}
	return nil
}
