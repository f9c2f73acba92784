package bits

// Copyright 2010 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Boolean decoder
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	mbits "math/bits"

	"github.com/daanv2/go-webp-alpha/pkg/assert"
)

// The Boolean decoder needs to maintain infinite precision on the 'value'
// field. However, since 'range' is only 8bit, we only need an active window of
// 8 bits for 'value'. Left bits (MSB) gets zeroed and shifted away when
// 'value' falls below 128, 'range' is updated, and fresh bits read from the
// bitstream are brought in as LSB. To avoid reading the fresh bits one by one
// we cache BITS of them ahead.

type range_t = uint32

// VP8BitReader is the boolean (arithmetic) decoder shared by the VP8 frame
// header parser and the macroblock pipeline.
type VP8BitReader struct {
	value  bit_t   // current value
	vrange range_t // current range minus 1. In [127, 254] interval.
	bits   int     // number of valid bits left

	buf []byte // read buffer
	pos int    // next byte to be read
	eof bool   // true if input is exhausted
}

// VP8InitBitReader initializes the bit reader and the boolean decoder on data.
func VP8InitBitReader(br *VP8BitReader, data []byte) {
	assert.Assert(br != nil)
	assert.Assert(len(data) < 1<<31) // limit ensured by format and upstream checks

	br.vrange = 255 - 1
	br.value = 0
	br.bits = -8 // to load the very first 8bits
	br.eof = false
	br.buf = data
	br.pos = 0
	br.loadNewBytes()
}

// EOF reports whether the reader ran past the end of its buffer.
func (br *VP8BitReader) EOF() bool {
	return br.eof
}

// loadNewBytes makes sure br.value has at least BITS bits worth of data.
func (br *VP8BitReader) loadNewBytes() {
	if br.pos+lbitBytes <= len(br.buf) {
		br.value = loadBits(br.buf[br.pos:]) | (br.value << BITS)
		br.pos += BITS >> 3
		br.bits += BITS
		return
	}

	br.loadFinalBytes()
}

// special case for the tail byte-reading
func (br *VP8BitReader) loadFinalBytes() {
	switch {
	case br.pos < len(br.buf):
		br.bits += 8
		br.value = bit_t(br.buf[br.pos]) | (br.value << 8)
		br.pos++
	case !br.eof:
		br.value <<= 8
		br.bits += 8
		br.eof = true
	default:
		// Saturated: every further bit decodes as zero.
		br.value = 0
		br.bits = 0
	}
}

// GetBit reads a bit with probability prob/256 of being zero.
func (br *VP8BitReader) GetBit(prob uint8) uint32 {
	vrange := br.vrange
	if br.bits < 0 {
		br.loadNewBytes()
	}

	pos := br.bits
	split := (vrange * range_t(prob)) >> 8
	value := range_t(br.value >> pos)

	var bit uint32
	if value > split {
		vrange -= split
		br.value -= bit_t(split+1) << pos
		bit = 1
	} else {
		vrange = split + 1
	}

	shift := 7 ^ (mbits.Len32(vrange) - 1)
	vrange <<= shift
	br.bits -= shift
	br.vrange = vrange - 1

	return bit
}

// Get reads one bit with an even probability.
func (br *VP8BitReader) Get() uint32 {
	return br.GetValue(1)
}

// GetValue returns the next value made of n bits, most significant first.
func (br *VP8BitReader) GetValue(n int) uint32 {
	var v uint32
	for n > 0 {
		n--
		v |= br.GetBit(0x80) << n
	}

	return v
}

// GetSignedValue returns an n-bit magnitude followed by a sign bit.
func (br *VP8BitReader) GetSignedValue(n int) int32 {
	value := int32(br.GetValue(n))
	if br.Get() != 0 {
		return -value
	}

	return value
}

// GetSigned is a simplified GetBit for prob=0x80 returning v or -v.
func (br *VP8BitReader) GetSigned(v int32) int32 {
	if br.bits < 0 {
		br.loadNewBytes()
	}

	pos := br.bits
	split := br.vrange >> 1
	value := range_t(br.value >> pos)
	mask := int32(split-value) >> 31 // -1 or 0

	br.bits--
	br.vrange += range_t(mask)
	br.vrange |= 1
	br.value -= bit_t((split+1)&uint32(mask)) << pos

	return (v ^ mask) - mask
}
