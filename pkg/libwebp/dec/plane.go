package dec

import (
	"context"
	"fmt"
	"image"
)

// DecodeAlphaPlane decodes the whole alpha plane of data for the geometry
// of io. The returned plane is io.Width * io.CropBottom bytes.
func DecodeAlphaPlane(data []byte, io *VP8Io, opts *DecoderOptions) ([]byte, error) {
	dec, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}

	dec.SetAlphaData(data)
	if _, err := dec.DecompressAlphaRows(io, 0, io.CropBottom); err != nil {
		return nil, err
	}

	return dec.AlphaPlane(), nil
}

// RowsFunc receives the alpha rows [row, row+numRows) as they become
// available. rows is only valid during the call.
type RowsFunc func(row, numRows int, rows []byte) error

// DecodeFrameAlpha parses the key frame headers in vp8, applies the crop
// window of opts and decodes the alpha plane chunkRows rows at a time,
// handing every chunk to emit. ctx is checked between chunks.
func DecodeFrameAlpha(ctx context.Context, vp8, alpha []byte, opts *DecoderOptions, chunkRows int, emit RowsFunc) (*VP8Io, error) {
	dec, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}

	io := &VP8Io{Data: vp8}
	if err := dec.GetHeaders(io); err != nil {
		return nil, err
	}
	if !dec.Ready() {
		return nil, ErrHeadersNotDecoded
	}
	if err := io.InitFromOptions(opts); err != nil {
		return nil, err
	}

	if chunkRows <= 0 {
		chunkRows = io.CropBottom
	}

	dec.SetAlphaData(alpha)
	defer dec.DeallocateAlphaMemory()

	for row := io.CropTop; row < io.CropBottom; row += chunkRows {
		if err := ctx.Err(); err != nil {
			dec.SetError(VP8_STATUS_USER_ABORT, err.Error())
			return nil, err
		}

		n := min(chunkRows, io.CropBottom-row)
		// Rows above the crop window still feed the predictors.
		if row == io.CropTop && row > 0 {
			if _, err := dec.DecompressAlphaRows(io, 0, row); err != nil {
				return nil, err
			}
		}
		rows, err := dec.DecompressAlphaRows(io, row, n)
		if err != nil {
			return nil, err
		}
		if emit != nil {
			if err := emit(row, n, rows); err != nil {
				return nil, fmt.Errorf("emitting rows %d-%d: %w", row, row+n, err)
			}
		}
	}

	return io, nil
}

// AlphaImage wraps the crop window of plane as an image.Alpha without
// copying.
func AlphaImage(plane []byte, io *VP8Io) *image.Alpha {
	w := io.CropRight - io.CropLeft
	h := io.CropBottom - io.CropTop

	return &image.Alpha{
		Pix:    plane[io.CropTop*io.Width+io.CropLeft:],
		Stride: io.Width,
		Rect:   image.Rect(0, 0, w, h),
	}
}
