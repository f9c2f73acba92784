package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	webpalpha "github.com/daanv2/go-webp-alpha"
	"github.com/daanv2/go-webp-alpha/pkg/container"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/gen2brain/webp"
	"github.com/spf13/cobra"
)

var errAlphaMismatch = errors.New("alpha plane differs from the reference decoder")

// NewVerifyCmd compares our alpha plane against a full reference decoder.
func NewVerifyCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file.webp[.zst]>...",
		Short: "compare the decoded alpha plane with a reference decoder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, _ := cmd.Flags().GetInt("rows")

			var errs []error
			for _, path := range args {
				diff, err := VerifyFile(ctx, path, rows)
				if err != nil {
					slog.ErrorContext(ctx, "verify failed", slog.String("path", path), slog.Any("error", err))
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pixels)\n", path, diff.Pixels)
			}

			return errors.Join(errs...)
		},
	}
	cmd.Flags().Int("rows", 16, "rows decoded per call")

	return cmd
}

// Diff summarizes a comparison.
type Diff struct {
	Pixels     int
	Mismatches int
	First      image.Point
}

// VerifyFile decodes path with both decoders and compares the alpha planes.
func VerifyFile(ctx context.Context, path string, rows int) (Diff, error) {
	rc, err := container.Open(path)
	if err != nil {
		return Diff{}, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return Diff{}, err
	}

	return Verify(ctx, data, rows)
}

// Verify compares the alpha plane of the WebP file in data, decoded rows at
// a time, with the one of the reference decoder.
func Verify(ctx context.Context, data []byte, rows int) (Diff, error) {
	frame, err := container.Parse(bytes.NewReader(data))
	if err != nil {
		return Diff{}, err
	}
	if !frame.HasAlpha() {
		return Diff{}, errNoAlpha
	}

	opts := dec.DefaultDecoderOptions()
	opts.Logger = slog.Default()
	got, err := webpalpha.DecodeFrame(ctx, frame, opts, rows)
	if err != nil {
		return Diff{}, err
	}

	ref, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return Diff{}, fmt.Errorf("reference decoder: %w", err)
	}
	if !ref.Bounds().Size().Eq(got.Rect.Size()) {
		return Diff{}, fmt.Errorf("%w: size %v, reference %v", errAlphaMismatch, got.Rect.Size(), ref.Bounds().Size())
	}

	want := referenceAlpha(ref)
	d := Diff{Pixels: got.Rect.Dx() * got.Rect.Dy()}
	for y := range got.Rect.Dy() {
		for x := range got.Rect.Dx() {
			if got.AlphaAt(got.Rect.Min.X+x, got.Rect.Min.Y+y).A != want.AlphaAt(x, y).A {
				if d.Mismatches == 0 {
					d.First = image.Pt(x, y)
				}
				d.Mismatches++
			}
		}
	}
	if d.Mismatches > 0 {
		return d, fmt.Errorf("%w: %d of %d pixels, first at %v", errAlphaMismatch, d.Mismatches, d.Pixels, d.First)
	}

	return d, nil
}

// referenceAlpha pulls the alpha channel out of a decoded image, origin at 0,0.
func referenceAlpha(img image.Image) *image.Alpha {
	b := img.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	if b.Empty() {
		return out
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		dsp.ExtractAlpha(nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y)+3:], nrgba.Stride,
			b.Dx(), b.Dy(), out.Pix, out.Stride)
		return out
	}

	for y := range b.Dy() {
		for x := range b.Dx() {
			a := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA).A
			out.SetAlpha(x, y, color.Alpha{A: a})
		}
	}

	return out
}
