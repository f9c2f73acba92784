package dec_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFilters = []dsp.FilterType{dsp.FilterNone, dsp.FilterHorizontal, dsp.FilterVertical, dsp.FilterGradient}

func newDecoder(t *testing.T, opts *dec.DecoderOptions) *dec.VP8Decoder {
	t.Helper()
	d, err := dec.NewDecoder(opts)
	require.NoError(t, err)

	return d
}

func TestParseAlphaHeader_AllBytes(t *testing.T) {
	for v := range 256 {
		b := byte(v)
		method := b & 3
		pre := (b >> 4) & 3
		reserved := b >> 6
		valid := method <= 1 && pre <= 2 && reserved == 0

		hdr, err := dec.ParseAlphaHeader(b)
		if !valid {
			require.ErrorIs(t, err, dec.ErrBadAlphaHeader, "byte %#02x", b)
			continue
		}
		require.NoError(t, err, "byte %#02x", b)
		assert.Equal(t, method, hdr.Method)
		assert.Equal(t, dsp.FilterType((b>>2)&3), hdr.Filter)
		assert.Equal(t, pre, hdr.PreProcessing)
		assert.Equal(t, b, hdr.Byte())
	}
}

func TestDecompressAlphaRows_RawNone(t *testing.T) {
	d := newDecoder(t, nil)
	d.SetAlphaData([]byte{0x00, 10, 20, 30, 40})

	rows, err := d.DecompressAlphaRows(dec.NewVP8Io(2, 2), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 40}, rows)
	assert.True(t, d.IsAlphaDecoded())
	assert.Equal(t, dec.VP8_STATUS_OK, d.Status())
}

func TestDecompressAlphaRows_RawHorizontal(t *testing.T) {
	data := make([]byte, 1+16)
	data[0] = 0x04 // raw, horizontal filter
	data[1] = 10

	d := newDecoder(t, nil)
	d.SetAlphaData(data)
	rows, err := d.DecompressAlphaRows(dec.NewVP8Io(4, 4), 0, 4)
	require.NoError(t, err)
	for i, v := range rows {
		require.Equal(t, byte(10), v, "pixel %d", i)
	}
}

func decodeInChunks(t *testing.T, data []byte, io *dec.VP8Io, opts *dec.DecoderOptions, chunk int) []byte {
	t.Helper()

	d := newDecoder(t, opts)
	d.SetAlphaData(data)
	for row := 0; row < io.CropBottom; row += chunk {
		n := min(chunk, io.CropBottom-row)
		rows, err := d.DecompressAlphaRows(io, row, n)
		require.NoError(t, err, "rows %d+%d", row, n)
		require.Len(t, rows, n*io.Width)
	}
	require.True(t, d.IsAlphaDecoded())

	return append([]byte(nil), d.AlphaPlane()...)
}

func TestDecompressAlphaRows_ChunkedMatchesWhole(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 22))
	const width, height = 13, 11

	for _, f := range allFilters {
		t.Run("raw/"+f.String(), func(t *testing.T) {
			src := randomLevels(rng, width*height)
			data := rawAlpha(f, 0, src, width, height)

			whole, err := dec.DecodeAlphaPlane(data, dec.NewVP8Io(width, height), nil)
			require.NoError(t, err)
			require.Equal(t, src, whole)

			for _, chunk := range []int{1, 2, 5, height} {
				got := decodeInChunks(t, data, dec.NewVP8Io(width, height), nil, chunk)
				require.Equal(t, whole, got, "chunk %d", chunk)
			}
		})

		t.Run("lossless/"+f.String(), func(t *testing.T) {
			data := append([]byte{dec.ALPHA_LOSSLESS_COMPRESSION | byte(f)<<2}, uniformPayload(3)...)

			whole, err := dec.DecodeAlphaPlane(data, dec.NewVP8Io(width, height), nil)
			require.NoError(t, err)
			// The green channel holds the deltas: unfiltering yields the plane.
			want := make([]byte, width*height)
			var prev []byte
			deltas := make([]byte, width)
			for i := range deltas {
				deltas[i] = 3
			}
			for y := range height {
				row := want[y*width : (y+1)*width]
				dsp.Unfilter(f)(prev, deltas, row, width)
				prev = row
			}
			require.Equal(t, want, whole)

			for _, chunk := range []int{1, 4, height} {
				got := decodeInChunks(t, data, dec.NewVP8Io(width, height), nil, chunk)
				require.Equal(t, whole, got, "chunk %d", chunk)
			}
		})
	}
}

func TestDecompressAlphaRows_SkippedRows(t *testing.T) {
	rng := rand.New(rand.NewPCG(23, 24))
	const width, height = 7, 9
	src := randomLevels(rng, width*height)
	data := rawAlpha(dsp.FilterGradient, 0, src, width, height)
	io := dec.NewVP8Io(width, height)

	d := newDecoder(t, nil)
	d.SetAlphaData(data)

	_, err := d.DecompressAlphaRows(io, 0, 2)
	require.NoError(t, err)
	rows, err := d.DecompressAlphaRows(io, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, src[5*width:7*width], rows)

	// Asking again for rows already produced is harmless.
	rows, err = d.DecompressAlphaRows(io, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, src[width:2*width], rows)
	assert.False(t, d.IsAlphaDecoded())

	_, err = d.DecompressAlphaRows(io, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, src, d.AlphaPlane())
}

func TestDecompressAlphaRows_Truncated(t *testing.T) {
	d := newDecoder(t, nil)
	d.SetAlphaData([]byte{0x00, 1, 2, 3})
	io := dec.NewVP8Io(2, 2)

	_, err := d.DecompressAlphaRows(io, 0, 1)
	require.ErrorIs(t, err, dec.ErrTruncatedAlpha)
	assert.Equal(t, dec.VP8_STATUS_BITSTREAM_ERROR, d.Status())
	assert.Nil(t, d.AlphaPlane())

	// The failure is sticky.
	_, err = d.DecompressAlphaRows(io, 0, 1)
	require.ErrorIs(t, err, dec.ErrAlphaFailed)

	// A new frame starts over.
	d.SetAlphaData([]byte{0x00, 1, 2, 3, 4})
	rows, err := d.DecompressAlphaRows(io, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, rows)
}

func TestDecompressAlphaRows_BadData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"nil", nil, dec.ErrNoAlphaData},
		{"header only", []byte{0x00}, dec.ErrNoAlphaData},
		{"reserved bits", []byte{0xc0, 1, 2, 3, 4}, dec.ErrBadAlphaHeader},
		{"unknown method", []byte{0x02, 1, 2, 3, 4}, dec.ErrBadAlphaHeader},
		{"unknown pre-processing", []byte{0x30, 1, 2, 3, 4}, dec.ErrBadAlphaHeader},
		{"broken lossless stream", []byte{0x01, 0xff}, dec.ErrAlphaBitstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDecoder(t, nil)
			d.SetAlphaData(tt.data)
			_, err := d.DecompressAlphaRows(dec.NewVP8Io(2, 2), 0, 2)
			require.ErrorIs(t, err, tt.want)
			assert.NotEqual(t, dec.VP8_STATUS_OK, d.Status())
		})
	}
}

func TestDecompressAlphaRows_InvalidRowRange(t *testing.T) {
	d := newDecoder(t, nil)
	d.SetAlphaData([]byte{0x00, 1, 2, 3, 4})
	io := dec.NewVP8Io(2, 2)

	for _, r := range [][2]int{{-1, 1}, {0, 0}, {1, 2}, {2, 1}} {
		_, err := d.DecompressAlphaRows(io, r[0], r[1])
		require.ErrorIs(t, err, dec.ErrInvalidRowRange, "row %d num %d", r[0], r[1])
	}

	// A rejected range leaves the decoder usable.
	rows, err := d.DecompressAlphaRows(io, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, rows)
}

func TestDeallocateAlphaMemory(t *testing.T) {
	d := newDecoder(t, nil)
	d.DeallocateAlphaMemory() // nothing allocated yet

	d.SetAlphaData([]byte{0x00, 1, 2, 3, 4, 5, 6})
	io := dec.NewVP8Io(2, 3)
	_, err := d.DecompressAlphaRows(io, 0, 1)
	require.NoError(t, err)

	d.DeallocateAlphaMemory()
	d.DeallocateAlphaMemory()
	assert.Nil(t, d.AlphaPlane())

	_, err = d.DecompressAlphaRows(io, 1, 1)
	require.ErrorIs(t, err, dec.ErrAlphaReleased)
}

func TestDecompressAlphaRows_MemoryLimit(t *testing.T) {
	opts := dec.DefaultDecoderOptions()
	opts.MaxMemory = 10

	d := newDecoder(t, opts)
	d.SetAlphaData(make([]byte, 1+16))
	_, err := d.DecompressAlphaRows(dec.NewVP8Io(4, 4), 0, 4)
	require.ErrorIs(t, err, dec.ErrOutOfMemory)
	require.ErrorIs(t, err, utils.ErrOutOfMemory)
	assert.Equal(t, dec.VP8_STATUS_OUT_OF_MEMORY, d.Status())
}

func bandedPlane(width, height int) []byte {
	p := make([]byte, width*height)
	for y := range height {
		for x := range width {
			p[y*width+x] = byte(x / 8 * 64)
		}
	}

	return p
}

func TestDecompressAlphaRows_Dithering(t *testing.T) {
	const width, height = 32, 32
	src := bandedPlane(width, height)

	want := append([]byte(nil), src...)
	require.NoError(t, utils.DequantizeLevels(want, width, height, width, 100))
	require.NotEqual(t, src, want)

	opts := dec.DefaultDecoderOptions()
	opts.AlphaDitheringStrength = 100

	t.Run("pre-processed", func(t *testing.T) {
		d := newDecoder(t, opts)
		d.SetAlphaData(rawAlpha(dsp.FilterHorizontal, dec.ALPHA_PREPROCESSED_LEVELS, src, width, height))

		rows, err := d.DecompressAlphaRows(dec.NewVP8Io(width, height), 0, 1)
		require.NoError(t, err)
		assert.Len(t, rows, width)
		// The whole plane is decoded on the first call.
		assert.True(t, d.IsAlphaDecoded())
		assert.Equal(t, want, d.AlphaPlane())
	})

	t.Run("not pre-processed", func(t *testing.T) {
		d := newDecoder(t, opts)
		d.SetAlphaData(rawAlpha(dsp.FilterHorizontal, 0, src, width, height))

		_, err := d.DecompressAlphaRows(dec.NewVP8Io(width, height), 0, 1)
		require.NoError(t, err)
		assert.False(t, d.IsAlphaDecoded())
		_, err = d.DecompressAlphaRows(dec.NewVP8Io(width, height), 1, height-1)
		require.NoError(t, err)
		assert.Equal(t, src, d.AlphaPlane())
	})

	t.Run("disabled", func(t *testing.T) {
		d := newDecoder(t, nil)
		d.SetAlphaData(rawAlpha(dsp.FilterNone, dec.ALPHA_PREPROCESSED_LEVELS, src, width, height))

		_, err := d.DecompressAlphaRows(dec.NewVP8Io(width, height), 0, 1)
		require.NoError(t, err)
		assert.True(t, d.IsAlphaDecoded())
		assert.Equal(t, src, d.AlphaPlane())
	})
}

func TestDecompressAlphaRows_Crop(t *testing.T) {
	rng := rand.New(rand.NewPCG(25, 26))
	const width, height = 6, 6
	src := randomLevels(rng, width*height)

	opts := dec.DefaultDecoderOptions()
	opts.UseCropping = true
	opts.CropLeft, opts.CropTop = 1, 2
	opts.CropWidth, opts.CropHeight = 3, 3

	io := dec.NewVP8Io(width, height)
	require.NoError(t, io.InitFromOptions(opts))
	assert.Equal(t, 5, io.CropBottom)

	plane, err := dec.DecodeAlphaPlane(rawAlpha(dsp.FilterVertical, 0, src, width, height), io, opts)
	require.NoError(t, err)
	require.Len(t, plane, width*5)
	assert.Equal(t, src[:width*5], plane)

	img := dec.AlphaImage(plane, io)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	for y := range 3 {
		for x := range 3 {
			require.Equal(t, src[(y+2)*width+x+1], img.AlphaAt(x, y).A)
		}
	}

	// Rows below the crop window are out of range.
	_, err = newDecoder(t, nil).DecompressAlphaRows(io, 5, 1)
	require.ErrorIs(t, err, dec.ErrInvalidRowRange)
}

// recordingSubDecoder fills every requested row with its row index.
type recordingSubDecoder struct {
	width     int
	output    []byte
	headerErr error
	lastRows  []int
	closed    int
}

func (r *recordingSubDecoder) DecodeHeader([]byte) error { return r.headerErr }

func (r *recordingSubDecoder) DecodeRows(lastRow int) error {
	r.lastRows = append(r.lastRows, lastRow)
	for y := range lastRow {
		for x := range r.width {
			r.output[y*r.width+x] = byte(y)
		}
	}

	return nil
}

func (r *recordingSubDecoder) Close() { r.closed++ }

func TestDecompressAlphaRows_SubDecoder(t *testing.T) {
	var rec *recordingSubDecoder
	opts := dec.DefaultDecoderOptions()
	opts.NewAlphaSubDecoder = func(width, _ int, _ dsp.FilterType, output []byte) dec.AlphaSubDecoder {
		rec = &recordingSubDecoder{width: width, output: output}
		return rec
	}

	d := newDecoder(t, opts)
	d.SetAlphaData([]byte{dec.ALPHA_LOSSLESS_COMPRESSION, 0})
	io := dec.NewVP8Io(3, 4)

	for row := range 4 {
		rows, err := d.DecompressAlphaRows(io, row, 1)
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(row), byte(row), byte(row)}, rows)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, rec.lastRows)
	assert.Equal(t, 1, rec.closed)

	// Done: no more work reaches the sub-decoder.
	_, err := d.DecompressAlphaRows(io, 0, 4)
	require.NoError(t, err)
	assert.Len(t, rec.lastRows, 4)
}

func TestDecompressAlphaRows_SubDecoderHeaderError(t *testing.T) {
	boom := errors.New("boom")
	var rec *recordingSubDecoder
	opts := dec.DefaultDecoderOptions()
	opts.NewAlphaSubDecoder = func(width, _ int, _ dsp.FilterType, output []byte) dec.AlphaSubDecoder {
		rec = &recordingSubDecoder{width: width, output: output, headerErr: boom}
		return rec
	}

	d := newDecoder(t, opts)
	d.SetAlphaData([]byte{dec.ALPHA_LOSSLESS_COMPRESSION, 0})
	_, err := d.DecompressAlphaRows(dec.NewVP8Io(3, 4), 0, 1)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, dec.ErrAlphaBitstream)
	assert.Equal(t, 1, rec.closed)
	assert.Equal(t, dec.VP8_STATUS_BITSTREAM_ERROR, d.Status())
}
