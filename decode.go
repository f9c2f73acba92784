package webpalpha

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/daanv2/go-webp-alpha/pkg/container"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
)

var ErrNoAlpha = errors.New("file has no alpha plane")

// Decode reads a still lossy WebP file from r and returns the crop window
// of its alpha plane, decoded rows lines at a time.
func Decode(ctx context.Context, r io.Reader, opts *dec.DecoderOptions, rows int) (*image.Alpha, error) {
	if opts == nil {
		return nil, errors.New("options is nil")
	}
	if r == nil {
		return nil, errors.New("reader is nil")
	}

	frame, err := container.Parse(r)
	if err != nil {
		return nil, err
	}
	if !frame.HasAlpha() {
		return nil, ErrNoAlpha
	}

	return DecodeFrame(ctx, frame, opts, rows)
}

// DecodeFrame is Decode for an already parsed frame.
func DecodeFrame(ctx context.Context, frame *container.Frame, opts *dec.DecoderOptions, rows int) (*image.Alpha, error) {
	if opts == nil {
		return nil, errors.New("options is nil")
	}
	if frame == nil {
		return nil, errors.New("frame is nil")
	}

	width, height, ok := dec.VP8GetInfo(frame.VP8)
	if !ok {
		return nil, fmt.Errorf("%w: invalid VP8 frame header", dec.ErrHeadersNotDecoded)
	}
	window := dec.NewVP8Io(width, height)
	if err := window.InitFromOptions(opts); err != nil {
		return nil, err
	}

	cw := window.CropRight - window.CropLeft
	img := image.NewAlpha(image.Rect(0, 0, cw, window.CropBottom-window.CropTop))

	_, err := dec.DecodeFrameAlpha(ctx, frame.VP8, frame.Alpha, opts, rows,
		func(row, numRows int, plane []byte) error {
			for y := range numRows {
				src := plane[y*width+window.CropLeft:]
				copy(img.Pix[(row-window.CropTop+y)*img.Stride:], src[:cw])
			}
			slog.DebugContext(ctx, "rows delivered", slog.Int("row", row), slog.Int("num_rows", numRows))

			return nil
		})
	if err != nil {
		return nil, err
	}

	return img, nil
}
