package cmd

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	webpalpha "github.com/daanv2/go-webp-alpha"
	"github.com/daanv2/go-webp-alpha/pkg/container"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
	"github.com/spf13/cobra"
)

var errNoAlpha = webpalpha.ErrNoAlpha

func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file.webp[.zst]>",
		Short: "decode the alpha plane to a PGM or PNG image",
		Long:  "decode the alpha plane row by row and write it as a grayscale image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, rows, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			img, err := DecodeFile(ctx, args[0], opts, rows)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "alpha decoded",
				slog.String("path", args[0]),
				slog.Int("width", img.Rect.Dx()),
				slog.Int("height", img.Rect.Dy()),
				slog.Duration("elapsed", time.Since(start)))

			out, _ := cmd.Flags().GetString("out")
			if out == "-" {
				return writePGM(cmd.OutOrStdout(), img)
			}

			return writeImageFile(out, img)
		},
	}
	f := cmd.Flags()
	f.StringP("out", "o", "-", "output file (.png or .pgm), - for PGM on stdout")
	f.Int("rows", 16, "rows decoded per call, 0 for the whole plane at once")
	f.Int("alpha-dithering", 0, "alpha dithering strength (0..100)")
	f.String("crop", "", "crop window as x,y,width,height")
	f.Uint64("max-memory", 0, "limit in bytes for the alpha plane, 0 for the default")

	return cmd
}

func optionsFromFlags(cmd *cobra.Command) (*dec.DecoderOptions, int, error) {
	opts := dec.DefaultDecoderOptions()
	opts.Logger = slog.Default()

	rows, _ := cmd.Flags().GetInt("rows")
	opts.AlphaDitheringStrength, _ = cmd.Flags().GetInt("alpha-dithering")
	opts.MaxMemory, _ = cmd.Flags().GetUint64("max-memory")

	if crop, _ := cmd.Flags().GetString("crop"); crop != "" {
		x, y, w, h, err := parseCrop(crop)
		if err != nil {
			return nil, 0, err
		}
		opts.UseCropping = true
		opts.CropLeft, opts.CropTop, opts.CropWidth, opts.CropHeight = x, y, w, h
	}
	if rows < 0 {
		return nil, 0, fmt.Errorf("--rows must not be negative, got %d", rows)
	}

	return opts, rows, opts.Validate()
}

func parseCrop(s string) (x, y, w, h int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("crop %q: want x,y,width,height", s)
	}

	var v [4]int
	for i, p := range parts {
		if v[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("crop %q: %w", s, err)
		}
	}

	return v[0], v[1], v[2], v[3], nil
}

// DecodeFile decodes the alpha plane of the WebP file at path, rows lines
// at a time, and returns the crop window of opts as an image.
func DecodeFile(ctx context.Context, path string, opts *dec.DecoderOptions, rows int) (*image.Alpha, error) {
	frame, err := container.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !frame.HasAlpha() {
		return nil, fmt.Errorf("%s: %w", path, errNoAlpha)
	}

	return webpalpha.DecodeFrame(ctx, frame, opts, rows)
}

func writeImageFile(path string, img *image.Alpha) (err error) {
	var encode func(io.Writer, *image.Alpha) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(w io.Writer, img *image.Alpha) error { return png.Encode(w, img) }
	case ".pgm":
		encode = writePGM
	default:
		return fmt.Errorf("%s: unknown output format, use .png or .pgm", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return encode(f, img)
}

// writePGM writes img as a binary (P5) portable graymap.
func writePGM(w io.Writer, img *image.Alpha) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()
	fmt.Fprintf(bw, "P5\n%d %d\n255\n", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if _, err := bw.Write(img.Pix[off : off+b.Dx()]); err != nil {
			return err
		}
	}

	return bw.Flush()
}
