package dsp

import "encoding/binary"

const (
	swarLow  = 0x7f7f7f7f7f7f7f7f
	swarHigh = 0x8080808080808080
)

// addBytes adds the eight bytes packed in a and b lane-wise, modulo 256.
func addBytes(a, b uint64) uint64 {
	return ((a & swarLow) + (b & swarLow)) ^ ((a ^ b) & swarHigh)
}

// VerticalUnfilter_SWAR is VerticalUnfilter_C working on eight bytes at a
// time inside a uint64.
func VerticalUnfilter_SWAR(prev, in, out []byte, width int) {
	if prev == nil {
		HorizontalUnfilter_C(nil, in, out, width)
		return
	}

	i := 0
	for ; i+8 <= width; i += 8 {
		a := binary.LittleEndian.Uint64(prev[i:])
		b := binary.LittleEndian.Uint64(in[i:])
		binary.LittleEndian.PutUint64(out[i:], addBytes(a, b))
	}
	for ; i < width; i++ {
		out[i] = prev[i] + in[i]
	}
}
