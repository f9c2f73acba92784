package cmd

import (
	"context"
	"fmt"
	"io"

	webpalpha "github.com/daanv2/go-webp-alpha"
	"github.com/daanv2/go-webp-alpha/pkg/container"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dec"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/utils"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze cobra command
func NewAnalyzeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file.webp[.zst]>",
		Short: "Analyze the alpha chunk of a WebP file",
		Long:  "Prints the container layout and the alpha header of a WebP file, then decodes the plane and estimates which filter would have suited it best.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")
			if filePath == "" && len(args) > 0 {
				filePath = args[0]
			}
			if filePath == "" {
				return fmt.Errorf("file path is required. Use --file flag or provide as argument")
			}

			return runAnalyze(ctx, cmd.OutOrStdout(), filePath)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("file", "f", "", "WebP file path to analyze")

	return cmd
}

func runAnalyze(ctx context.Context, w io.Writer, filePath string) error {
	frame, err := container.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	fmt.Fprintln(w, "=== Container ===")
	fmt.Fprintf(w, "File: %s\n", filePath)
	fmt.Fprintf(w, "Canvas: %dx%d\n", frame.CanvasWidth, frame.CanvasHeight)
	fmt.Fprintf(w, "Flags: 0x%02x\n", frame.Flags)
	fmt.Fprintf(w, "VP8 payload: %d bytes\n", len(frame.VP8))
	if width, height, ok := dec.VP8GetInfo(frame.VP8); ok {
		fmt.Fprintf(w, "VP8 frame: %dx%d\n", width, height)
	}

	if !frame.HasAlpha() {
		fmt.Fprintln(w, "Alpha: none")
		return nil
	}

	hdr, err := dec.ParseAlphaHeader(frame.Alpha[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\n=== Alpha ===")
	fmt.Fprintf(w, "Payload: %d bytes\n", len(frame.Alpha))
	fmt.Fprintf(w, "Method: %d\n", hdr.Method)
	fmt.Fprintf(w, "Filter: %s\n", hdr.Filter)
	fmt.Fprintf(w, "PreProcessing: %d\n", hdr.PreProcessing)

	img, err := webpalpha.DecodeFrame(ctx, frame, dec.DefaultDecoderOptions(), 0)
	if err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	best := utils.EstimateBestFilter(img.Pix, img.Stride, img.Rect.Dy())
	fmt.Fprintf(w, "Estimated best filter: %s\n", best)

	return nil
}
