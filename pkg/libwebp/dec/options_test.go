package dec_test

import (
	"testing"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderOptions_Validate(t *testing.T) {
	require.NoError(t, dec.DefaultDecoderOptions().Validate())

	var nilOpts *dec.DecoderOptions
	require.ErrorIs(t, nilOpts.Validate(), dec.ErrInvalidOptions)

	tests := []struct {
		name   string
		modify func(o *dec.DecoderOptions)
	}{
		{"dithering", func(o *dec.DecoderOptions) { o.DitheringStrength = 101 }},
		{"alpha dithering", func(o *dec.DecoderOptions) { o.AlphaDitheringStrength = -1 }},
		{"crop origin", func(o *dec.DecoderOptions) {
			o.UseCropping = true
			o.CropLeft, o.CropWidth, o.CropHeight = -1, 2, 2
		}},
		{"crop size", func(o *dec.DecoderOptions) { o.UseCropping = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := dec.DefaultDecoderOptions()
			tt.modify(o)
			require.ErrorIs(t, o.Validate(), dec.ErrInvalidOptions)

			_, err := dec.NewDecoder(o)
			require.ErrorIs(t, err, dec.ErrInvalidOptions)
		})
	}
}

func TestVP8Io_InitFromOptions(t *testing.T) {
	io := dec.NewVP8Io(10, 8)
	require.NoError(t, io.InitFromOptions(nil))
	assert.Equal(t, 10, io.CropRight)
	assert.Equal(t, 8, io.CropBottom)

	opts := dec.DefaultDecoderOptions()
	opts.UseCropping = true
	opts.CropLeft, opts.CropTop, opts.CropWidth, opts.CropHeight = 2, 3, 5, 5
	require.NoError(t, io.InitFromOptions(opts))
	assert.True(t, io.UseCropping)
	assert.Equal(t, 7, io.CropRight)
	assert.Equal(t, 8, io.CropBottom)

	opts.CropHeight = 6
	require.ErrorIs(t, io.InitFromOptions(opts), dec.ErrInvalidOptions)
}

func TestVP8StatusCode_String(t *testing.T) {
	assert.Equal(t, "OK", dec.VP8_STATUS_OK.String())
	assert.Equal(t, "BITSTREAM_ERROR", dec.VP8_STATUS_BITSTREAM_ERROR.String())
	assert.Equal(t, "NOT_ENOUGH_DATA", dec.VP8_STATUS_NOT_ENOUGH_DATA.String())
	assert.Equal(t, "VP8StatusCode(42)", dec.VP8StatusCode(42).String())

	err := &dec.StatusError{Code: dec.VP8_STATUS_OUT_OF_MEMORY, Msg: "plane"}
	assert.Equal(t, "OUT_OF_MEMORY: plane", err.Error())
}

func TestSetError_KeepsFirst(t *testing.T) {
	d := newDecoder(t, nil)
	d.SetError(dec.VP8_STATUS_BITSTREAM_ERROR, "first")
	err := d.SetError(dec.VP8_STATUS_OUT_OF_MEMORY, "second")

	var se *dec.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, dec.VP8_STATUS_BITSTREAM_ERROR, se.Code)
	assert.Equal(t, "first", d.ErrorMessage())
}
