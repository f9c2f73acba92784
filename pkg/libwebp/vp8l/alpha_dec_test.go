package vp8l_test

import (
	"testing"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/vp8l"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	w.write(0, 1) // no transform
	w.write(0, 1) // no color cache
	w.write(0, 1) // no meta prefix codes

	// green: simple code, one 8-bit symbol
	w.write(1, 1)
	w.write(0, 1)
	w.write(1, 1)
	w.write(uint32(v), 8)
	// red, blue: simple code, one 1-bit symbol (0)
	for range 2 {
		w.write(1, 1)
		w.write(0, 1)
		w.write(0, 1)
		w.write(0, 1)
	}
	// alpha: 0xff
	w.write(1, 1)
	w.write(0, 1)
	w.write(1, 1)
	w.write(0xff, 8)
	// distance
	w.write(1, 1)
	w.write(0, 1)
	w.write(0, 1)
	w.write(0, 1)

	return w.buf
}

func TestAlphaDecoder_Uniform(t *testing.T) {
	const width, height = 5, 3
	out := make([]byte, width*height)

	d := vp8l.NewAlphaDecoder(width, height, dsp.FilterNone, out)
	require.NoError(t, d.DecodeHeader(uniformPayload(77)))
	require.NoError(t, d.DecodeRows(height))
	d.Close()

	for i, v := range out {
		require.Equal(t, byte(77), v, "pixel %d", i)
	}
}

func TestAlphaDecoder_Incremental(t *testing.T) {
	const width, height = 3, 2
	out := make([]byte, width*height)

	d := vp8l.NewAlphaDecoder(width, height, dsp.FilterHorizontal, out)
	require.NoError(t, d.DecodeHeader(uniformPayload(1)))

	require.NoError(t, d.DecodeRows(1))
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0}, out)

	// Already reached: nothing changes.
	require.NoError(t, d.DecodeRows(1))
	require.NoError(t, d.DecodeRows(2))
	assert.Equal(t, []byte{1, 2, 3, 2, 3, 4}, out)
}

func TestAlphaDecoder_CroppedOutput(t *testing.T) {
	const width, height = 4, 6
	// Only the first two rows are needed by the caller.
	out := make([]byte, width*2)

	d := vp8l.NewAlphaDecoder(width, height, dsp.FilterVertical, out)
	require.NoError(t, d.DecodeHeader(uniformPayload(2)))
	require.NoError(t, d.DecodeRows(height))
	assert.Equal(t, []byte{2, 4, 6, 8, 4, 6, 8, 10}, out)
}

func TestAlphaDecoder_Errors(t *testing.T) {
	out := make([]byte, 16)

	d := vp8l.NewAlphaDecoder(4, 4, dsp.FilterNone, out)
	require.ErrorIs(t, d.DecodeRows(4), vp8l.ErrNoHeader)

	// The stream ends inside the first transform.
	require.Error(t, d.DecodeHeader([]byte{0x01}))

	big := vp8l.NewAlphaDecoder(vp8l.VP8L_MAX_DIMENSION+1, 1, dsp.FilterNone, nil)
	require.ErrorIs(t, big.DecodeHeader(uniformPayload(0)), vp8l.ErrTooLarge)
}
