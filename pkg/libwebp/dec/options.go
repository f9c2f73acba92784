package dec

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/vp8l"
)

// AlphaSubDecoder decodes alpha planes stored with entropy (lossless)
// compression. It must be resumable: DecodeRows is called with increasing
// lastRow values and only materializes what is missing.
type AlphaSubDecoder interface {
	// DecodeHeader validates the compressed payload that follows the alpha
	// header byte.
	DecodeHeader(data []byte) error
	// DecodeRows makes rows [0, lastRow) of the output plane final.
	DecodeRows(lastRow int) error
	// Close releases the resources held by the sub-decoder.
	Close()
}

// SubDecoderFactory creates the sub-decoder for a width x height alpha
// image. Decoded, unfiltered rows are written to output.
type SubDecoderFactory func(width, height int, filter dsp.FilterType, output []byte) AlphaSubDecoder

// NewLosslessSubDecoder is the default SubDecoderFactory.
func NewLosslessSubDecoder(width, height int, filter dsp.FilterType, output []byte) AlphaSubDecoder {
	return vp8l.NewAlphaDecoder(width, height, filter, output)
}

// Decoding options.
type DecoderOptions struct {
	// cropping, applied to the frame geometry by VP8Io.InitFromOptions.
	UseCropping bool
	CropLeft    int
	CropTop     int
	CropWidth   int
	CropHeight  int

	DitheringStrength      int // dithering strength (0=Off, 100=full)
	AlphaDitheringStrength int // alpha dithering strength in [0..100]

	// Upper bound, in bytes, for the alpha plane allocation. 0 means the
	// library-wide limit.
	MaxMemory uint64

	// Logger receives debug traces. nil means slog.Default().
	Logger *slog.Logger

	// NewAlphaSubDecoder overrides the lossless alpha sub-decoder.
	NewAlphaSubDecoder SubDecoderFactory
}

// DefaultDecoderOptions returns options that decode the whole frame without
// dithering.
func DefaultDecoderOptions() *DecoderOptions {
	return &DecoderOptions{
		NewAlphaSubDecoder: NewLosslessSubDecoder,
	}
}

// Validate returns an error if any parameter is outside of its valid range.
func (o *DecoderOptions) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: options are nil", ErrInvalidOptions)
	}

	var errs []error
	if o.DitheringStrength < 0 || o.DitheringStrength > 100 {
		errs = append(errs, errors.New("dithering strength must be between 0 and 100"))
	}
	if o.AlphaDitheringStrength < 0 || o.AlphaDitheringStrength > 100 {
		errs = append(errs, errors.New("alpha dithering strength must be between 0 and 100"))
	}
	if o.UseCropping && (o.CropLeft < 0 || o.CropTop < 0 || o.CropWidth <= 0 || o.CropHeight <= 0) {
		errs = append(errs, errors.New("crop window must have a non-negative origin and a positive size"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
	}

	return nil
}

func (o *DecoderOptions) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}

	return o.Logger
}

func (o *DecoderOptions) subDecoderFactory() SubDecoderFactory {
	if o == nil || o.NewAlphaSubDecoder == nil {
		return NewLosslessSubDecoder
	}

	return o.NewAlphaSubDecoder
}
