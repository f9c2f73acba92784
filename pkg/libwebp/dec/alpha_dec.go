package dec

// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Alpha-plane decompression.
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/daanv2/go-webp-alpha/pkg/assert"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/daanv2/go-webp-alpha/pkg/libwebp/utils"
	"github.com/google/uuid"
)

const (
	ALPHA_HEADER_LEN           = 1
	ALPHA_NO_COMPRESSION       = 0
	ALPHA_LOSSLESS_COMPRESSION = 1
	ALPHA_PREPROCESSED_LEVELS  = 1
	ALPHA_MAX_PRE_PROCESSING   = 2
)

var ErrAlphaBitstream = errors.New("invalid compressed alpha stream")

// AlphaHeader is the decoded first byte of an alpha payload.
//
//	bits 0-1: compression method
//	bits 2-3: filter
//	bits 4-5: pre-processing
//	bits 6-7: reserved, must be 0
type AlphaHeader struct {
	Method        uint8
	Filter        dsp.FilterType
	PreProcessing uint8
}

// ParseAlphaHeader validates and splits the alpha header byte.
func ParseAlphaHeader(b byte) (AlphaHeader, error) {
	method := b & 0x03
	filterBits := (b >> 2) & 0x03
	preProcessing := (b >> 4) & 0x03
	reserved := (b >> 6) & 0x03

	filter, ok := dsp.ParseFilterType(filterBits)
	switch {
	case method != ALPHA_NO_COMPRESSION && method != ALPHA_LOSSLESS_COMPRESSION:
		return AlphaHeader{}, fmt.Errorf("%w: unknown method %d", ErrBadAlphaHeader, method)
	case !ok:
		return AlphaHeader{}, fmt.Errorf("%w: unknown filter %d", ErrBadAlphaHeader, filterBits)
	case preProcessing > ALPHA_MAX_PRE_PROCESSING:
		return AlphaHeader{}, fmt.Errorf("%w: unknown pre-processing %d", ErrBadAlphaHeader, preProcessing)
	case reserved != 0:
		return AlphaHeader{}, fmt.Errorf("%w: reserved bits set", ErrBadAlphaHeader)
	}

	return AlphaHeader{Method: method, Filter: filter, PreProcessing: preProcessing}, nil
}

// Byte packs the header back into its wire form.
func (h AlphaHeader) Byte() byte {
	return h.Method | byte(h.Filter)<<2 | h.PreProcessing<<4
}

// ALPHDecoder is the state of one alpha plane decode.
type ALPHDecoder struct {
	width, height int
	AlphaHeader
	io VP8Io

	subDec AlphaSubDecoder // lossless path only
	output []byte

	prevLine int // offset of the last output row in output, -1 if none
	nextRow  int // raw path: first row not yet produced
}

// alphInit parses the header of data and prepares dec to decode into
// output. The geometry is copied from srcIO, except for scaling.
func (a *alphaState) alphInit(data []byte, srcIO *VP8Io, output []byte) (*ALPHDecoder, error) {
	dec := &ALPHDecoder{
		width:    srcIO.Width,
		height:   srcIO.Height,
		output:   output,
		prevLine: -1,
	}
	assert.Assertf(dec.width > 0 && dec.height > 0, "alpha geometry %dx%d", dec.width, dec.height)

	if len(data) <= ALPHA_HEADER_LEN {
		return nil, fmt.Errorf("%w: %d bytes", ErrNoAlphaData, len(data))
	}

	hdr, err := ParseAlphaHeader(data[0])
	if err != nil {
		return nil, err
	}
	dec.AlphaHeader = hdr

	// Copy the necessary parameters from src_io to io
	dec.io = VP8Io{
		Width:       srcIO.Width,
		Height:      srcIO.Height,
		UseCropping: srcIO.UseCropping,
		CropLeft:    srcIO.CropLeft,
		CropRight:   srcIO.CropRight,
		CropTop:     srcIO.CropTop,
		CropBottom:  srcIO.CropBottom,
		// No need to copy the scaling parameters.
	}

	payload := data[ALPHA_HEADER_LEN:]
	if dec.Method == ALPHA_NO_COMPRESSION {
		if len(payload) < dec.width*dec.height {
			return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrTruncatedAlpha, len(payload), dec.width, dec.height)
		}

		return dec, nil
	}

	dec.subDec = a.newSubDecoder(dec.width, dec.height, dec.Filter, output)
	if err := dec.subDec.DecodeHeader(payload); err != nil {
		dec.subDec.Close()
		return nil, fmt.Errorf("%w: %w", ErrAlphaBitstream, err)
	}

	return dec, nil
}

// decode produces rows [row, row+numRows). Rows before row must have been
// requested already.
func (dec *ALPHDecoder) decode(data []byte, row, numRows int) error {
	width := dec.width
	lastRow := row + numRows

	if dec.Method == ALPHA_LOSSLESS_COMPRESSION {
		assert.Assert(dec.subDec != nil)
		if err := dec.subDec.DecodeRows(lastRow); err != nil {
			return fmt.Errorf("%w: %w", ErrAlphaBitstream, err)
		}

		return nil
	}

	unfilter := dsp.Unfilter(dec.Filter)
	for y := dec.nextRow; y < lastRow; y++ {
		off := y * width
		deltas := data[ALPHA_HEADER_LEN+off : ALPHA_HEADER_LEN+off+width]
		dst := dec.output[off : off+width]

		var prev []byte
		if dec.prevLine >= 0 {
			prev = dec.output[dec.prevLine : dec.prevLine+width]
		}
		unfilter(prev, deltas, dst, width)
		dec.prevLine = off
	}
	dec.nextRow = max(dec.nextRow, lastRow)

	return nil
}

func (dec *ALPHDecoder) close() {
	if dec.subDec != nil {
		dec.subDec.Close()
		dec.subDec = nil
	}
}

//------------------------------------------------------------------------------

type alphaPhase int

const (
	alphaIdle alphaPhase = iota
	alphaDecoding
	alphaDone
	alphaFailed
	alphaReleased
)

// alphaState is the part of VP8Decoder dedicated to the alpha plane.
type alphaState struct {
	data      []byte // compressed alpha data, header included
	dec       *ALPHDecoder
	plane     []byte
	isDecoded bool
	phase     alphaPhase

	dithering     int // current alpha dithering strength
	newSubDecoder SubDecoderFactory
	logger        *slog.Logger
}

// SetAlphaData attaches the compressed alpha data of the next frame. Any
// state left from a previous frame is released.
func (dec *VP8Decoder) SetAlphaData(data []byte) {
	dec.DeallocateAlphaMemory()

	a := &dec.alpha
	a.data = data
	a.isDecoded = false
	a.phase = alphaIdle
	a.dithering = clip(dec.opts.AlphaDitheringStrength, 100)
}

// IsAlphaDecoded reports whether every row of the alpha plane is available.
func (dec *VP8Decoder) IsAlphaDecoded() bool {
	return dec.alpha.isDecoded
}

// AlphaPlane returns the alpha plane, width * crop-bottom bytes, or nil
// when it is not allocated.
func (dec *VP8Decoder) AlphaPlane() []byte {
	return dec.alpha.plane
}

// DeallocateAlphaMemory releases the alpha plane and any live sub-decoder.
// It is safe to call more than once.
func (dec *VP8Decoder) DeallocateAlphaMemory() {
	a := &dec.alpha
	if a.dec != nil {
		a.dec.close()
		a.dec = nil
	}
	a.plane = nil
	if a.phase == alphaDecoding || a.phase == alphaDone {
		a.phase = alphaReleased
	}
}

func (dec *VP8Decoder) alphaFail(status VP8StatusCode, err error) error {
	dec.DeallocateAlphaMemory()
	dec.alpha.phase = alphaFailed
	dec.SetError(status, err.Error())

	logger := dec.alpha.logger
	if logger == nil {
		logger = dec.logger
	}
	logger.Warn("alpha decoding failed", slog.String("error", err.Error()))

	return err
}

// DecompressAlphaRows decodes, unfilters and dequantizes at least numRows
// rows of alpha starting at row, and returns them as a read-only view of
// numRows*io.Width bytes. Rows up to row-1 must have been requested before.
//
// When the alpha plane asks for dithering, the whole plane is decoded on the
// first call.
func (dec *VP8Decoder) DecompressAlphaRows(io *VP8Io, row, numRows int) ([]byte, error) {
	assert.Assert(io != nil)

	width := io.Width
	height := io.CropBottom
	if row < 0 || numRows <= 0 || row+numRows > height {
		return nil, fmt.Errorf("%w: rows [%d, %d) of %d", ErrInvalidRowRange, row, row+numRows, height)
	}

	a := &dec.alpha
	switch a.phase {
	case alphaFailed:
		return nil, ErrAlphaFailed
	case alphaReleased:
		return nil, ErrAlphaReleased
	}

	view := func() []byte {
		return a.plane[row*width : (row+numRows)*width]
	}
	if a.isDecoded {
		return view(), nil
	}

	if a.dec == nil {
		session := uuid.NewString()
		a.logger = dec.logger.With(slog.String("session", session))

		plane, err := utils.SafeMalloc[byte](width*height, dec.opts.MaxMemory)
		if err != nil {
			return nil, dec.alphaFail(VP8_STATUS_OUT_OF_MEMORY, fmt.Errorf("%w: %w", ErrOutOfMemory, err))
		}
		a.plane = plane

		alphDec, err := a.alphInit(a.data, io, a.plane)
		if err != nil {
			return nil, dec.alphaFail(VP8_STATUS_BITSTREAM_ERROR, err)
		}
		a.dec = alphDec
		a.phase = alphaDecoding

		// if we allowed use of alpha dithering, check whether it's needed at all
		if alphDec.PreProcessing < ALPHA_PREPROCESSED_LEVELS {
			a.dithering = 0 // disable dithering
		}

		a.logger.Debug("alpha decoder initialized",
			slog.Int("method", int(alphDec.Method)),
			slog.String("filter", alphDec.Filter.String()),
			slog.Int("pre_processing", int(alphDec.PreProcessing)),
			slog.Int("dithering", a.dithering),
		)
	}

	numRowsToDecode := numRows
	if a.dec.PreProcessing >= ALPHA_PREPROCESSED_LEVELS {
		numRowsToDecode = height - row // decode everything in one pass
	}

	assert.Assert(row+numRowsToDecode <= height)
	if err := a.dec.decode(a.data, row, numRowsToDecode); err != nil {
		return nil, dec.alphaFail(VP8_STATUS_BITSTREAM_ERROR, err)
	}
	a.logger.Debug("alpha rows decoded", slog.Int("row", row), slog.Int("num_rows", numRowsToDecode))

	if row+numRowsToDecode >= height {
		a.isDecoded = true
	}

	if a.isDecoded { // finished?
		a.dec.close()
		a.dec = nil
		a.phase = alphaDone

		if a.dithering > 0 {
			alpha := a.plane[io.CropTop*width+io.CropLeft:]
			err := utils.DequantizeLevels(alpha,
				io.CropRight-io.CropLeft,
				io.CropBottom-io.CropTop,
				width,
				a.dithering)
			if err != nil {
				return nil, dec.alphaFail(VP8_STATUS_BITSTREAM_ERROR, err)
			}
		}
		a.logger.Debug("alpha plane decoded", slog.Int("rows", height))
	}

	return view(), nil
}
