package bits

// Copyright 2012 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

import "github.com/daanv2/go-webp-alpha/pkg/assert"

// VP8BitWriter is the boolean encoder matching VP8BitReader. It is used to
// produce partition data for tools and tests.
type VP8BitWriter struct {
	vrange int32 // range-1
	value  int32
	run    int // number of outstanding bits
	nbBits int // number of pending bits
	buf    []byte
}

// NewVP8BitWriter returns a writer with expectedSize bytes preallocated.
func NewVP8BitWriter(expectedSize int) *VP8BitWriter {
	return &VP8BitWriter{
		vrange: 255 - 1,
		nbBits: -8,
		buf:    make([]byte, 0, expectedSize),
	}
}

// PutBit writes bit with probability prob/256 of being zero.
func (bw *VP8BitWriter) PutBit(bit bool, prob uint8) bool {
	split := (bw.vrange * int32(prob)) >> 8
	if bit {
		bw.value += split + 1
		bw.vrange -= split + 1
	} else {
		bw.vrange = split
	}
	if bw.vrange < 127 { // emit 'shift' bits out and renormalize
		shift := kNorm[bw.vrange]
		bw.vrange = int32(kNewRange[bw.vrange])
		bw.value <<= shift
		bw.nbBits += int(shift)
		if bw.nbBits > 0 {
			bw.flush()
		}
	}

	return bit
}

// PutBitUniform writes bit with an even probability.
func (bw *VP8BitWriter) PutBitUniform(bit bool) bool {
	split := bw.vrange >> 1
	if bit {
		bw.value += split + 1
		bw.vrange -= split + 1
	} else {
		bw.vrange = split
	}
	if bw.vrange < 127 {
		bw.vrange = int32(kNewRange[bw.vrange])
		bw.value <<= 1
		bw.nbBits++
		if bw.nbBits > 0 {
			bw.flush()
		}
	}

	return bit
}

// PutBits writes the n low bits of value, most significant first.
func (bw *VP8BitWriter) PutBits(value uint32, n int) {
	assert.Assert(n > 0 && n < 32)
	for mask := uint32(1) << (n - 1); mask != 0; mask >>= 1 {
		bw.PutBitUniform(value&mask != 0)
	}
}

// PutSignedBits writes a presence flag, then |value| on n bits and its sign.
func (bw *VP8BitWriter) PutSignedBits(value int32, n int) {
	if !bw.PutBitUniform(value != 0) {
		return
	}
	if value < 0 {
		bw.PutBits(uint32(-value)<<1|1, n+1)
	} else {
		bw.PutBits(uint32(value)<<1, n+1)
	}
}

func (bw *VP8BitWriter) flush() {
	s := 8 + bw.nbBits
	bits := bw.value >> s
	assert.Assert(bw.nbBits >= 0)
	bw.value -= bits << s
	bw.nbBits -= 8
	if bits&0xff == 0xff {
		bw.run++ // delay writing of bytes 0xff, pending eventual carry.
		return
	}

	if bits&0x100 != 0 && len(bw.buf) > 0 { // overflow: propagate carry over pending 0xff's
		bw.buf[len(bw.buf)-1]++
	}
	pending := byte(0xff)
	if bits&0x100 != 0 {
		pending = 0x00
	}
	for ; bw.run > 0; bw.run-- {
		bw.buf = append(bw.buf, pending)
	}
	bw.buf = append(bw.buf, byte(bits&0xff))
}

// Finish pads and flushes the pending bits, then returns the encoded bytes.
func (bw *VP8BitWriter) Finish() []byte {
	bw.PutBits(0, 9-bw.nbBits)
	bw.nbBits = 0 // pad with zeroes
	bw.flush()

	return bw.buf
}

// Pos returns the approximate write position, in bits.
func (bw *VP8BitWriter) Pos() int {
	return (len(bw.buf)+bw.run)*8 + 8 + bw.nbBits
}
