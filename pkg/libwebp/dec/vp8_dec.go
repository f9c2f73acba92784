package dec

// Copyright 2010 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// main entry for the decoder
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"log/slog"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/bits"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/utils"
)

const (
	NUM_MB_SEGMENTS       = 4
	MAX_NUM_PARTITIONS    = 8
	NUM_REF_LF_DELTAS     = 4
	NUM_MODE_LF_DELTAS    = 4 // I4x4, ZERO, *, SPLIT
	MB_FEATURE_TREE_PROBS = 3

	DITHER_AMP_TAB_SIZE = 12

	VP8_FRAME_HEADER_SIZE = 10 // Size of the frame header within VP8 data.
)

// roughly, it's dqm.UV[1]
var kQuantToDitherAmp = [DITHER_AMP_TAB_SIZE]int{8, 7, 6, 4, 4, 2, 2, 2, 1, 1, 1, 1}

// VP8FrameHeader is the uncompressed data chunk at the start of each frame.
type VP8FrameHeader struct {
	KeyFrame        bool
	Profile         uint8 // [0..3]
	Show            bool
	PartitionLength uint32
}

// VP8PictureHeader holds the key frame geometry.
type VP8PictureHeader struct {
	Width      int
	Height     int
	XScale     uint8
	YScale     uint8
	Colorspace uint8 // 0 = YCbCr
	ClampType  uint8
}

// VP8SegmentHeader is the segment features header.
type VP8SegmentHeader struct {
	UseSegment     bool
	UpdateMap      bool // whether to update the segment map or not
	AbsoluteDelta  bool // absolute or delta values for quantizer and filter
	Quantizer      [NUM_MB_SEGMENTS]int8
	FilterStrength [NUM_MB_SEGMENTS]int8
	Segments       [MB_FEATURE_TREE_PROBS]uint8 // segment map probabilities
}

// VP8FilterHeader is the loop filter header.
type VP8FilterHeader struct {
	Simple      bool // 0=complex, 1=simple
	Level       int  // [0..63]
	Sharpness   int  // [0..7]
	UseLfDelta  bool
	RefLfDelta  [NUM_REF_LF_DELTAS]int
	ModeLfDelta [NUM_MODE_LF_DELTAS]int
}

// VP8Decoder is the per-frame decoder state. It is shared by the frame
// header parser, the macroblock pipeline and the alpha plane decoder.
type VP8Decoder struct {
	status   VP8StatusCode
	errorMsg string

	opts   *DecoderOptions
	logger *slog.Logger

	// Main data source
	br    bits.VP8BitReader
	ready bool // true if ready to decode a picture with VP8Decode()

	// headers
	frmHdr     VP8FrameHeader
	picHdr     VP8PictureHeader
	filterHdr  VP8FilterHeader
	segmentHdr VP8SegmentHeader

	// dimension, in macroblock units.
	mbW, mbH int

	// 0=off, 1=simple, 2=complex
	filterType int

	// Per-partition boolean decoders.
	numPartsMinusOne int
	parts            [MAX_NUM_PARTITIONS]bits.VP8BitReader

	// dequantization (one set of DC/AC dequant factor per segment)
	dqm [NUM_MB_SEGMENTS]VP8QuantMatrix

	// dithering
	ditheringRG utils.VP8Random
	dither      bool // whether to use dithering or not

	alpha alphaState
}

// NewDecoder returns a decoder configured by opts. nil opts selects
// DefaultDecoderOptions.
func NewDecoder(opts *DecoderOptions) (*VP8Decoder, error) {
	if opts == nil {
		opts = DefaultDecoderOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	dec := &VP8Decoder{
		opts:   opts,
		logger: opts.logger(),
	}
	dec.alpha.dithering = clip(opts.AlphaDitheringStrength, 100)
	dec.alpha.newSubDecoder = opts.subDecoderFactory()

	return dec, nil
}

// SetError records status and msg unless an error was already recorded.
// It returns the recorded error.
func (dec *VP8Decoder) SetError(status VP8StatusCode, msg string) error {
	if dec.status == VP8_STATUS_OK {
		dec.status = status
		dec.errorMsg = msg
		dec.ready = false
	}

	return &StatusError{Code: dec.status, Msg: dec.errorMsg}
}

// Status returns the first error status recorded on the decoder.
func (dec *VP8Decoder) Status() VP8StatusCode {
	return dec.status
}

// ErrorMessage returns the message recorded with Status.
func (dec *VP8Decoder) ErrorMessage() string {
	return dec.errorMsg
}

// FrameHeader returns the parsed frame tag.
func (dec *VP8Decoder) FrameHeader() VP8FrameHeader { return dec.frmHdr }

// PictureHeader returns the parsed key frame geometry.
func (dec *VP8Decoder) PictureHeader() VP8PictureHeader { return dec.picHdr }

// FilterHeader returns the parsed loop filter header.
func (dec *VP8Decoder) FilterHeader() VP8FilterHeader { return dec.filterHdr }

// SegmentHeader returns the parsed segment header.
func (dec *VP8Decoder) SegmentHeader() VP8SegmentHeader { return dec.segmentHdr }

// QuantMatrix returns the dequantization factors of segment s.
func (dec *VP8Decoder) QuantMatrix(s int) VP8QuantMatrix { return dec.dqm[s] }

// NumPartitions returns the number of token partitions.
func (dec *VP8Decoder) NumPartitions() int { return dec.numPartsMinusOne + 1 }

// MacroblockSize returns the frame dimension in macroblock units.
func (dec *VP8Decoder) MacroblockSize() (mbW, mbH int) { return dec.mbW, dec.mbH }

// Dithering reports whether macroblock dithering is active.
func (dec *VP8Decoder) Dithering() bool { return dec.dither }

// Ready reports whether the headers were parsed successfully.
func (dec *VP8Decoder) Ready() bool { return dec.ready }

//------------------------------------------------------------------------------
// Header parsing

// VP8CheckSignature reports whether data starts with the key frame start code.
func VP8CheckSignature(data []byte) bool {
	return len(data) >= 3 && data[0] == 0x9d && data[1] == 0x01 && data[2] == 0x2a
}

// VP8GetInfo validates the VP8 data-header and retrieves basic header
// information, viz width and height.
func VP8GetInfo(data []byte) (width, height int, ok bool) {
	if len(data) < VP8_FRAME_HEADER_SIZE {
		return 0, 0, false // not enough data
	}
	// check signature
	if !VP8CheckSignature(data[3:]) {
		return 0, 0, false // Wrong signature.
	}

	bits := uint32(utils.GetLE24(data))
	keyFrame := bits&1 == 0
	w := utils.GetLE16(data[6:]) & 0x3fff
	h := utils.GetLE16(data[8:]) & 0x3fff

	if !keyFrame {
		return 0, 0, false // Not a keyframe.
	}
	if (bits>>1)&7 > 3 || (bits>>4)&1 == 0 || (bits>>5) >= uint32(len(data)) {
		return 0, 0, false // unknown profile, first frame is invisible or inconsistent size information
	}
	if w == 0 || h == 0 {
		return 0, 0, false // We don't support both width and height to be zero.
	}

	return w, h, true
}

func (dec *VP8Decoder) resetSegmentHeader() {
	dec.segmentHdr = VP8SegmentHeader{}
	dec.segmentHdr.Segments = [MB_FEATURE_TREE_PROBS]uint8{255, 255, 255}
}

func (dec *VP8Decoder) parseSegmentHeader() bool {
	br := &dec.br
	hdr := &dec.segmentHdr

	hdr.UseSegment = br.Get() != 0
	if hdr.UseSegment {
		hdr.UpdateMap = br.Get() != 0
		if br.Get() != 0 { // update data
			hdr.AbsoluteDelta = br.Get() != 0
			for s := range NUM_MB_SEGMENTS {
				hdr.Quantizer[s] = 0
				if br.Get() != 0 {
					hdr.Quantizer[s] = int8(br.GetSignedValue(7))
				}
			}
			for s := range NUM_MB_SEGMENTS {
				hdr.FilterStrength[s] = 0
				if br.Get() != 0 {
					hdr.FilterStrength[s] = int8(br.GetSignedValue(6))
				}
			}
		}
		if hdr.UpdateMap {
			for s := range MB_FEATURE_TREE_PROBS {
				hdr.Segments[s] = 255
				if br.Get() != 0 {
					hdr.Segments[s] = uint8(br.GetValue(8))
				}
			}
		}
	} else {
		hdr.UpdateMap = false
	}

	return !br.EOF()
}

func (dec *VP8Decoder) parseFilterHeader() bool {
	br := &dec.br
	hdr := &dec.filterHdr

	hdr.Simple = br.Get() != 0
	hdr.Level = int(br.GetValue(6))
	hdr.Sharpness = int(br.GetValue(3))
	hdr.UseLfDelta = br.Get() != 0
	if hdr.UseLfDelta {
		if br.Get() != 0 { // update lf-delta?
			for i := range NUM_REF_LF_DELTAS {
				if br.Get() != 0 {
					hdr.RefLfDelta[i] = int(br.GetSignedValue(6))
				}
			}
			for i := range NUM_MODE_LF_DELTAS {
				if br.Get() != 0 {
					hdr.ModeLfDelta[i] = int(br.GetSignedValue(6))
				}
			}
		}
	}

	switch {
	case hdr.Level == 0:
		dec.filterType = 0
	case hdr.Simple:
		dec.filterType = 1
	default:
		dec.filterType = 2
	}

	return !dec.br.EOF()
}

// parsePartitions sets up the token partitions. buf holds the partition
// sizes followed by the partitions themselves.
func (dec *VP8Decoder) parsePartitions(buf []byte) VP8StatusCode {
	lastPart := (1 << int(dec.br.GetValue(2))) - 1
	dec.numPartsMinusOne = lastPart

	if len(buf) < 3*lastPart {
		// we can't even read the sizes with sz[]! That's a failure.
		return VP8_STATUS_NOT_ENOUGH_DATA
	}

	sz := buf
	partStart := 3 * lastPart
	sizeLeft := len(buf) - partStart
	for p := range lastPart {
		psize := int(sz[0]) | int(sz[1])<<8 | int(sz[2])<<16
		psize = min(psize, sizeLeft)
		bits.VP8InitBitReader(&dec.parts[p], buf[partStart:partStart+psize])
		partStart += psize
		sizeLeft -= psize
		sz = sz[3:]
	}
	bits.VP8InitBitReader(&dec.parts[lastPart], buf[partStart:])

	if partStart < len(buf) {
		return VP8_STATUS_OK
	}

	return VP8_STATUS_NOT_ENOUGH_DATA
}

// GetHeaders parses the frame headers found in io.Data and resets the io
// geometry to the full frame.
func (dec *VP8Decoder) GetHeaders(io *VP8Io) error {
	dec.status = VP8_STATUS_OK
	dec.errorMsg = ""
	dec.ready = false

	if io == nil {
		return dec.SetError(VP8_STATUS_INVALID_PARAM, "null VP8Io passed to VP8GetHeaders()")
	}
	buf := io.Data
	if len(buf) < 4 {
		return dec.SetError(VP8_STATUS_NOT_ENOUGH_DATA, "Truncated header.")
	}

	// Paragraph 9.1
	{
		bits := uint32(utils.GetLE24(buf))
		frm := &dec.frmHdr
		frm.KeyFrame = bits&1 == 0
		frm.Profile = uint8((bits >> 1) & 7)
		frm.Show = (bits>>4)&1 != 0
		frm.PartitionLength = bits >> 5
		if frm.Profile > 3 {
			return dec.SetError(VP8_STATUS_BITSTREAM_ERROR, "Incorrect keyframe parameters.")
		}
		if !frm.Show {
			return dec.SetError(VP8_STATUS_UNSUPPORTED_FEATURE, "Frame not displayable.")
		}
		buf = buf[3:]
	}

	if dec.frmHdr.KeyFrame {
		// Paragraph 9.2
		if len(buf) < 7 {
			return dec.SetError(VP8_STATUS_NOT_ENOUGH_DATA, "cannot parse picture header")
		}
		if !VP8CheckSignature(buf) {
			return dec.SetError(VP8_STATUS_BITSTREAM_ERROR, "Bad code word")
		}

		pic := &dec.picHdr
		pic.Width = utils.GetLE16(buf[3:]) & 0x3fff
		pic.XScale = buf[4] >> 6 // ratio: 1, 5/4 5/3 or 2
		pic.Height = utils.GetLE16(buf[5:]) & 0x3fff
		pic.YScale = buf[6] >> 6
		buf = buf[7:]

		dec.mbW = (pic.Width + 15) >> 4
		dec.mbH = (pic.Height + 15) >> 4

		// Setup default output area (can be later modified during io.setup())
		io.Width = pic.Width
		io.Height = pic.Height
		io.resetCrop()

		dec.resetSegmentHeader()
	}

	// Check if we have all the partition #0 available, and initialize
	// dec.br to read this partition (and this partition only).
	if int(dec.frmHdr.PartitionLength) > len(buf) {
		return dec.SetError(VP8_STATUS_NOT_ENOUGH_DATA, "bad partition length")
	}

	br := &dec.br
	bits.VP8InitBitReader(br, buf[:dec.frmHdr.PartitionLength])
	buf = buf[dec.frmHdr.PartitionLength:]

	if dec.frmHdr.KeyFrame {
		dec.picHdr.Colorspace = uint8(br.Get())
		dec.picHdr.ClampType = uint8(br.Get())
	}
	if !dec.parseSegmentHeader() {
		return dec.SetError(VP8_STATUS_BITSTREAM_ERROR, "cannot parse segment header")
	}
	// Filter specs
	if !dec.parseFilterHeader() {
		return dec.SetError(VP8_STATUS_BITSTREAM_ERROR, "cannot parse filter header")
	}
	if status := dec.parsePartitions(buf); status != VP8_STATUS_OK {
		return dec.SetError(status, "cannot parse partitions")
	}

	// quantizer change
	dec.parseQuant()

	// Frame buffer marking
	if !dec.frmHdr.KeyFrame {
		return dec.SetError(VP8_STATUS_UNSUPPORTED_FEATURE, "Not a key frame.")
	}

	br.Get() // ignore the value of update_proba_

	dec.initDithering()
	dec.ready = true

	dec.logger.Debug("vp8 headers parsed",
		slog.Int("width", dec.picHdr.Width),
		slog.Int("height", dec.picHdr.Height),
		slog.Int("partitions", dec.NumPartitions()),
		slog.Int("filter_type", dec.filterType),
	)

	return nil
}

// initDithering sets up the macroblock dithering amplitude of each segment
// from the dithering strength.
func (dec *VP8Decoder) initDithering() {
	d := dec.opts.DitheringStrength
	maxAmp := (1 << utils.VP8_RANDOM_DITHER_FIX) - 1
	f := 0
	switch {
	case d > 100:
		f = maxAmp
	case d > 0:
		f = d * maxAmp / 100
	}
	if f <= 0 {
		return
	}

	allAmp := 0
	for s := range NUM_MB_SEGMENTS {
		dqm := &dec.dqm[s]
		if dqm.UVQuant < DITHER_AMP_TAB_SIZE {
			idx := max(dqm.UVQuant, 0)
			dqm.Dither = (f * kQuantToDitherAmp[idx]) >> 3
		}
		allAmp |= dqm.Dither
	}
	if allAmp != 0 {
		utils.VP8InitRandom(&dec.ditheringRG, 1.0)
		dec.dither = true
	}
}

// DitherRandom returns the dithering noise source, valid when Dithering
// reports true.
func (dec *VP8Decoder) DitherRandom() *utils.VP8Random {
	return &dec.ditheringRG
}
