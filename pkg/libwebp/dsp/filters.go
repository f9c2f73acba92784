// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package dsp

import "github.com/daanv2/go-webp-alpha/pkg/assert"

// WebPUnfilterFunc reverses a filter for one row. prev is the previously
// reconstructed row, or nil for the first row. out may alias in.
type WebPUnfilterFunc func(prev, in, out []byte, width int)

// WebPFilterFunc applies a filter to a whole plane.
type WebPFilterFunc func(in []byte, width, height, stride int, out []byte)

//------------------------------------------------------------------------------
// Helpful macro.

func checkArgs(in []byte, width, height, stride int, out []byte) {
	assert.Assert(width > 0)
	assert.Assert(height > 0)
	assert.Assert(stride >= width)
	assert.Assert(len(in) >= (height-1)*stride+width)
	assert.Assert(len(out) >= (height-1)*stride+width)
}

func predictLine(src, pred, dst []byte, length int) {
	for i := 0; i < length; i++ {
		dst[i] = src[i] - pred[i]
	}
}

//------------------------------------------------------------------------------
// Horizontal filter.

func HorizontalFilter_C(in []byte, width, height, stride int, out []byte) {
	checkArgs(in, width, height, stride, out)

	// Leftmost pixel is the same as input for topmost scanline.
	out[0] = in[0]
	predictLine(in[1:], in, out[1:], width-1)

	// Filter line-by-line.
	for row := 1; row < height; row++ {
		cur, prev := row*stride, (row-1)*stride
		// Leftmost pixel is predicted from above.
		out[cur] = in[cur] - in[prev]
		predictLine(in[cur+1:], in[cur:], out[cur+1:], width-1)
	}
}

//------------------------------------------------------------------------------
// Vertical filter.

func VerticalFilter_C(in []byte, width, height, stride int, out []byte) {
	checkArgs(in, width, height, stride, out)

	// Very first top-left pixel is copied.
	out[0] = in[0]
	// Rest of top scan-line is left-predicted.
	predictLine(in[1:], in, out[1:], width-1)

	for row := 1; row < height; row++ {
		cur, prev := row*stride, (row-1)*stride
		predictLine(in[cur:], in[prev:], out[cur:], width)
	}
}

//------------------------------------------------------------------------------
// Gradient filter.

func gradientPredictor(a, b, c byte) byte {
	g := int(a) + int(b) - int(c)
	if g&^0xff == 0 {
		return byte(g)
	}
	if g < 0 {
		return 0
	}

	return 255 // clip to 8bit
}

func GradientFilter_C(in []byte, width, height, stride int, out []byte) {
	checkArgs(in, width, height, stride, out)

	// left prediction for top scan-line
	out[0] = in[0]
	predictLine(in[1:], in, out[1:], width-1)

	for row := 1; row < height; row++ {
		cur, prev := row*stride, (row-1)*stride
		// leftmost pixel: predict from above.
		out[cur] = in[cur] - in[prev]
		for w := 1; w < width; w++ {
			pred := gradientPredictor(in[cur+w-1], in[prev+w], in[prev+w-1])
			out[cur+w] = in[cur+w] - pred
		}
	}
}

//------------------------------------------------------------------------------
// Inverse transforms

func NoneUnfilter_C(_, in, out []byte, width int) {
	copy(out[:width], in[:width])
}

func HorizontalUnfilter_C(prev, in, out []byte, width int) {
	var pred byte
	if prev != nil {
		pred = prev[0]
	}
	for i := 0; i < width; i++ {
		out[i] = pred + in[i]
		pred = out[i]
	}
}

func VerticalUnfilter_C(prev, in, out []byte, width int) {
	if prev == nil {
		HorizontalUnfilter_C(nil, in, out, width)
		return
	}

	_ = prev[width-1]
	_ = in[width-1]
	_ = out[width-1]
	for i := 0; i < width; i++ {
		out[i] = prev[i] + in[i]
	}
}

func GradientUnfilter_C(prev, in, out []byte, width int) {
	if prev == nil {
		HorizontalUnfilter_C(nil, in, out, width)
		return
	}

	top := prev[0]
	topLeft := top
	left := top
	for i := 0; i < width; i++ {
		top = prev[i] // need to read this first, in case prev==out
		left = in[i] + gradientPredictor(left, top, topLeft)
		topLeft = top
		out[i] = left
	}
}
