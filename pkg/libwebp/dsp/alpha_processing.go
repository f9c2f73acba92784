package dsp

// Copyright 2013 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Utilities for processing transparent channel.
//
// Author: Skal (pascal.massimino@gmail.com)

import "github.com/daanv2/go-webp-alpha/pkg/assert"

// The functions below walk interleaved 4-byte pixels. The pixel slice must
// start at the channel of interest: pix[1:] of an RGBA buffer for green,
// pix[3:] for alpha.

// ExtractAlpha copies one channel of a width x height interleaved buffer to
// the alpha plane. It reports whether every value is 0xff.
func ExtractAlpha(pix []byte, pixStride, width, height int, alpha []byte, alphaStride int) bool {
	assert.Assert(width > 0 && height > 0)
	assert.Assert(len(pix) >= (height-1)*pixStride+4*(width-1)+1)
	assert.Assert(len(alpha) >= (height-1)*alphaStride+width)

	alphaMask := byte(0xff)
	for j := range height {
		src := pix[j*pixStride:]
		dst := alpha[j*alphaStride : j*alphaStride+width]
		for i := range dst {
			alphaValue := src[4*i]
			dst[i] = alphaValue
			alphaMask &= alphaValue
		}
	}

	return alphaMask == 0xff
}

// ExtractGreen copies size values of the channel pix starts at into alpha.
// Lossless alpha keeps its values in the green channel.
func ExtractGreen(pix []byte, alpha []byte, size int) {
	if size <= 0 {
		return
	}
	assert.Assert(len(pix) >= 4*(size-1)+1 && len(alpha) >= size)

	for i := range size {
		alpha[i] = pix[4*i]
	}
}
