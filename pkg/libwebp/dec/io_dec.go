package dec

import "fmt"

// VP8Io describes the geometry of the frame being decoded and the area the
// caller wants out of it.
type VP8Io struct {
	// picture dimensions, in pixels (invariable).
	Width, Height int

	// Input buffer for the frame headers.
	Data []byte

	// cropping parameters: crop window is [CropLeft, CropRight) x [CropTop, CropBottom)
	UseCropping bool
	CropLeft    int
	CropRight   int
	CropTop     int
	CropBottom  int

	// scaling parameters. Alpha is never rescaled on its own.
	UseScaling   bool
	ScaledWidth  int
	ScaledHeight int
}

// NewVP8Io returns an io for a width x height frame with no cropping.
func NewVP8Io(width, height int) *VP8Io {
	io := &VP8Io{Width: width, Height: height}
	io.resetCrop()

	return io
}

func (io *VP8Io) resetCrop() {
	io.UseCropping = false
	io.CropLeft, io.CropTop = 0, 0
	io.CropRight, io.CropBottom = io.Width, io.Height
	io.UseScaling = false
}

// InitFromOptions applies the crop window of opts. A nil opts, or one that
// does not crop, keeps the full frame.
func (io *VP8Io) InitFromOptions(opts *DecoderOptions) error {
	io.resetCrop()
	if opts == nil || !opts.UseCropping {
		return nil
	}

	x, y := opts.CropLeft, opts.CropTop
	w, h := opts.CropWidth, opts.CropHeight
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > io.Width || y+h > io.Height {
		return fmt.Errorf("%w: crop %d,%d %dx%d outside of %dx%d",
			ErrInvalidOptions, x, y, w, h, io.Width, io.Height)
	}

	io.UseCropping = true
	io.CropLeft, io.CropTop = x, y
	io.CropRight, io.CropBottom = x+w, y+h

	return nil
}
