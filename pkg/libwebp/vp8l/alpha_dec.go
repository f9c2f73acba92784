// Package vp8l decodes alpha planes stored with lossless (VP8L) compression.
package vp8l

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/daanv2/go-webp-alpha/pkg/assert"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	xvp8l "golang.org/x/image/vp8l"
)

const (
	// VP8L_MAGIC_BYTE is the signature of a VP8L bitstream header.
	VP8L_MAGIC_BYTE = 0x2f
	// VP8L_MAX_DIMENSION is the largest width or height a VP8L header encodes.
	VP8L_MAX_DIMENSION = 1 << 14
)

var (
	ErrTooLarge       = errors.New("alpha plane too large for lossless compression")
	ErrNoHeader       = errors.New("alpha header not decoded")
	ErrUnexpectedType = errors.New("unexpected lossless image type")
)

// AlphaDecoder decodes the lossless alpha payload into an output plane.
// The alpha values live in the green channel of the lossless image; once
// extracted, rows are unfiltered with the filter of the alpha header.
type AlphaDecoder struct {
	width, height int
	filter        dsp.FilterType
	output        []byte // width * at least the rows requested

	green   []byte // decoded green channel, released on Close
	lastRow int    // rows [0, lastRow) of output are final
	prevRow int    // offset of the last unfiltered row in output, -1 if none
}

// NewAlphaDecoder returns a decoder for a width x height alpha image that
// writes into output, which must hold width bytes for every row requested.
func NewAlphaDecoder(width, height int, filter dsp.FilterType, output []byte) *AlphaDecoder {
	assert.Assert(width > 0 && height > 0)

	return &AlphaDecoder{
		width:   width,
		height:  height,
		filter:  filter,
		output:  output,
		prevRow: -1,
	}
}

// vp8lHeader synthesizes the 5-byte header the alpha payload is stored
// without: magic, 14-bit width-1, 14-bit height-1, alpha_is_used=0 and
// version=0.
func vp8lHeader(width, height int) []byte {
	wm1, hm1 := uint32(width-1), uint32(height-1)

	return []byte{
		VP8L_MAGIC_BYTE,
		uint8(wm1),
		uint8(wm1>>8) | uint8(hm1<<6),
		uint8(hm1 >> 2),
		uint8(hm1 >> 10),
	}
}

// DecodeHeader validates the lossless stream. The whole image is decoded
// here so that any bitstream error surfaces before the first row is
// requested.
func (d *AlphaDecoder) DecodeHeader(data []byte) error {
	if d.width > VP8L_MAX_DIMENSION || d.height > VP8L_MAX_DIMENSION {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, d.width, d.height)
	}

	img, err := xvp8l.Decode(io.MultiReader(
		bytes.NewReader(vp8lHeader(d.width, d.height)),
		bytes.NewReader(data),
	))
	if err != nil {
		return fmt.Errorf("decoding lossless alpha: %w", err)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedType, img)
	}

	d.green = make([]byte, d.width*d.height)
	for y := range d.height {
		dsp.ExtractGreen(nrgba.Pix[y*nrgba.Stride+1:], d.green[y*d.width:], d.width)
	}

	return nil
}

// DecodeRows makes rows [0, lastRow) of the output plane available. Calls
// with a lastRow that was already reached do nothing.
func (d *AlphaDecoder) DecodeRows(lastRow int) error {
	if d.green == nil {
		return ErrNoHeader
	}

	lastRow = min(lastRow, d.height, len(d.output)/d.width)
	if lastRow <= d.lastRow {
		return nil
	}

	unfilter := dsp.Unfilter(d.filter)
	for y := d.lastRow; y < lastRow; y++ {
		off := y * d.width
		out := d.output[off : off+d.width]

		var prev []byte
		if d.prevRow >= 0 {
			prev = d.output[d.prevRow : d.prevRow+d.width]
		}
		unfilter(prev, d.green[off:off+d.width], out, d.width)
		d.prevRow = off
	}
	d.lastRow = lastRow

	return nil
}

// Close releases the decoded image.
func (d *AlphaDecoder) Close() {
	d.green = nil
}
