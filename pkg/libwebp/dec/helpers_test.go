package dec_test

import (
	"math/rand/v2"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/bits"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
)

// lsbWriter packs values least significant bit first, as VP8L expects.
type lsbWriter struct {
	buf   []byte
	nbits uint
}

func (w *lsbWriter) write(v uint32, n uint) {
	for i := range n {
		if w.nbits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[len(w.buf)-1] |= 1 << (w.nbits % 8)
		}
		w.nbits++
	}
}

// uniformPayload returns a lossless stream, without its 5-byte header, for
// an image whose green channel is v everywhere.
func uniformPayload(v byte) []byte {
	var w lsbWriter
	w.write(0, 3) // no transform, no color cache, no meta prefix codes

	w.write(1, 1) // green: one 8-bit symbol
	w.write(0, 1)
	w.write(1, 1)
	w.write(uint32(v), 8)
	for range 2 { // red, blue: one 1-bit symbol
		w.write(1, 1)
		w.write(0, 3)
	}
	w.write(1, 1) // alpha
	w.write(0, 1)
	w.write(1, 1)
	w.write(0xff, 8)
	w.write(1, 1) // distance
	w.write(0, 3)

	return w.buf
}

func randomLevels(rng *rand.Rand, n int, levels ...byte) []byte {
	p := make([]byte, n)
	for i := range p {
		if len(levels) == 0 {
			p[i] = byte(rng.UintN(256))
		} else {
			p[i] = levels[rng.IntN(len(levels))]
		}
	}

	return p
}

// rawAlpha returns the uncompressed alpha payload of plane, filtered with f.
func rawAlpha(f dsp.FilterType, preProcessing uint8, plane []byte, width, height int) []byte {
	out := make([]byte, 1+width*height)
	out[0] = byte(f)<<2 | preProcessing<<4
	if filter := dsp.Filter(f); filter != nil {
		filter(plane, width, height, width, out[1:])
	} else {
		copy(out[1:], plane)
	}

	return out
}

// keyFrame returns a minimal VP8 key frame of the given size with a single
// token partition.
func keyFrame(width, height int) []byte {
	bw := bits.NewVP8BitWriter(0)
	bw.PutBitUniform(false) // colorspace
	bw.PutBitUniform(false) // clamp type
	bw.PutBitUniform(false) // no segments
	bw.PutBitUniform(false) // complex filter
	bw.PutBits(10, 6)       // filter level
	bw.PutBits(3, 3)        // sharpness
	bw.PutBitUniform(false) // no lf deltas
	bw.PutBits(0, 2)        // one partition
	bw.PutBits(40, 7)       // base quantizer
	for range 5 {
		bw.PutBitUniform(false)
	}
	bw.PutBitUniform(false) // update_proba
	bw.PutBits(0, 16)
	part0 := bw.Finish()

	tag := uint32(1<<4) | uint32(len(part0))<<5
	frame := []byte{
		byte(tag), byte(tag >> 8), byte(tag >> 16),
		0x9d, 0x01, 0x2a,
		byte(width), byte(width >> 8),
		byte(height), byte(height >> 8),
	}
	frame = append(frame, part0...)

	return append(frame, 0x00) // token partition
}
