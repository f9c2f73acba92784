// Package container walks the RIFF chunks of a still WebP file and hands
// out the payloads the alpha decoder needs.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/utils"
	"golang.org/x/image/riff"
)

const (
	VP8X_CHUNK_SIZE = 10 // Size of a VP8X chunk.

	// VP8X feature flags.
	ANIMATION_FLAG = 0x02
	XMP_FLAG       = 0x04
	EXIF_FLAG      = 0x08
	ALPHA_FLAG     = 0x10
	ICCP_FLAG      = 0x20
)

var (
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccALPH = riff.FourCC{'A', 'L', 'P', 'H'}
	fccANIM = riff.FourCC{'A', 'N', 'I', 'M'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}
)

var (
	ErrNotWebP     = errors.New("not a WebP file")
	ErrBadVP8X     = errors.New("invalid VP8X chunk")
	ErrAnimated    = errors.New("animated WebP is not supported")
	ErrLossless    = errors.New("lossless WebP carries no separate alpha plane")
	ErrNoImageData = errors.New("no VP8 image data")
)

// Frame is the still image of a WebP file.
type Frame struct {
	// Canvas size from the VP8X chunk, 0 for simple files.
	CanvasWidth, CanvasHeight int
	Flags                     uint8

	VP8   []byte // VP8 key frame
	Alpha []byte // ALPH payload, nil if absent
}

// HasAlpha reports whether the file declares and carries an alpha plane.
func (f *Frame) HasAlpha() bool {
	return f.Flags&ALPHA_FLAG != 0 && len(f.Alpha) > 0
}

// Parse reads a still lossy WebP file.
func Parse(r io.Reader) (*Frame, error) {
	formType, rr, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWebP, err)
	}
	if formType != fccWEBP {
		return nil, fmt.Errorf("%w: form type %q", ErrNotWebP, formType[:])
	}

	frame := &Frame{}
	seenVP8X := false
	for {
		id, size, data, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch id {
		case fccVP8X:
			if seenVP8X || frame.VP8 != nil || size < VP8X_CHUNK_SIZE {
				return nil, ErrBadVP8X
			}
			seenVP8X = true
			var buf [VP8X_CHUNK_SIZE]byte
			if _, err := io.ReadFull(data, buf[:]); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadVP8X, err)
			}
			frame.Flags = buf[0]
			frame.CanvasWidth = utils.GetLE24(buf[4:]) + 1
			frame.CanvasHeight = utils.GetLE24(buf[7:]) + 1
			if frame.Flags&ANIMATION_FLAG != 0 {
				return nil, ErrAnimated
			}

		case fccALPH:
			if frame.Alpha != nil {
				continue // only the first one counts
			}
			if frame.Alpha, err = io.ReadAll(data); err != nil {
				return nil, err
			}

		case fccVP8:
			if frame.VP8, err = io.ReadAll(data); err != nil {
				return nil, err
			}

			return frame, nil

		case fccVP8L:
			return nil, ErrLossless

		case fccANIM, fccANMF:
			return nil, ErrAnimated
		}
		// Unknown chunks (ICCP, EXIF, XMP, ...) are skipped by the reader.
	}

	return nil, ErrNoImageData
}

// Build writes a still lossy WebP file holding vp8 and, when alpha is not
// nil, an ALPH chunk behind a VP8X header.
func Build(w io.Writer, width, height int, vp8, alpha []byte) error {
	var body []byte
	body = append(body, fccWEBP[:]...)

	if alpha != nil {
		vp8x := make([]byte, VP8X_CHUNK_SIZE)
		vp8x[0] = ALPHA_FLAG
		utils.PutLE24(vp8x[4:], width-1)
		utils.PutLE24(vp8x[7:], height-1)
		body = appendChunk(body, fccVP8X, vp8x)
		body = appendChunk(body, fccALPH, alpha)
	}
	body = appendChunk(body, fccVP8, vp8)

	header := make([]byte, 8, 8+len(body))
	copy(header, "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(len(body)))

	_, err := w.Write(append(header, body...))

	return err
}

func appendChunk(dst []byte, id riff.FourCC, payload []byte) []byte {
	dst = append(dst, id[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, payload...)
	if len(payload)&1 != 0 {
		dst = append(dst, 0) // chunks are padded to an even size
	}

	return dst
}
