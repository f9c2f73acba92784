package utils

// Copyright 2013 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Implement gradient smoothing: we replace a current alpha value by its
// surrounding average if it's close enough (that is: the change will be less
// than the minimum distance between two quantized level).
// We use sliding window for computing the 2d moving average.
//
// Author: Skal (pascal.massimino@gmail.com)

import (
	"errors"
	"fmt"
)

const (
	FIX                 = 16                     // fix-point precision for averaging
	LFIX                = 2                      // extra precision for look-up table
	LUT_SIZE            = (1 << (8 + LFIX)) - 1 // look-up table size
	CORRECTION_LUT_SIZE = 1 + 2*LUT_SIZE
)

var ErrInvalidDequantizeParams = errors.New("invalid dequantization parameters")

type smoothParams struct {
	width, height int // dimension
	stride        int // stride in bytes
	row           int // current input row being processed
	src           int // input offset in data
	dst           int // output offset in data
	data          []byte

	radius int    // filter radius (=delay)
	scale  uint32 // normalization factor, in FIX bits precision

	// Scratch: R rows of ring buffer followed by one output row.
	mem     []uint16
	cur     int
	end     int
	top     int
	average []uint16

	// input levels distribution
	numLevels    int // number of quantized levels
	min, max     int // min and max level values
	minLevelDist int // smallest distance between two consecutive levels

	// size = 1 + 2*LUT_SIZE, indexed from its middle
	correction []int16
}

//------------------------------------------------------------------------------

func clip8b(v int) byte {
	if v&^0xff == 0 {
		return byte(v)
	}
	if v < 0 {
		return 0
	}

	return 255
}

// vertical accumulation
func (p *smoothParams) vFilter() {
	src := p.data[p.src : p.src+p.width]
	cur := p.mem[p.cur : p.cur+p.width]
	top := p.mem[p.top : p.top+p.width]
	out := p.mem[p.end : p.end+p.width]

	var sum uint16 // all arithmetic is modulo 16bit
	for x := range p.width {
		sum += uint16(src[x])
		newValue := top[x] + sum
		out[x] = newValue - cur[x] // vertical sum of 'r' pixels.
		cur[x] = newValue
	}

	// move input pointers one row down
	p.top = p.cur
	p.cur += p.width
	if p.cur == p.end {
		p.cur = 0 // roll-over
	}
	// Edges are replicated: src does not move on top/bottom area.
	if p.row >= 0 && p.row < p.height-1 {
		p.src += p.stride
	}
}

// horizontal accumulation, with mirror replication of missing pixels.
func (p *smoothParams) hFilter() {
	in := p.mem[p.end : p.end+p.width]
	out := p.average
	w := p.width
	r := p.radius

	x := 0
	for ; x <= r; x++ { // left mirroring
		delta := in[x+r-1] + in[r-x]
		out[x] = uint16((uint32(delta) * p.scale) >> FIX)
	}
	for ; x < w-r; x++ { // bulk middle run
		delta := in[x+r] - in[x-r-1]
		out[x] = uint16((uint32(delta) * p.scale) >> FIX)
	}
	for ; x < w; x++ { // right mirroring
		delta := 2*in[w-1] - in[2*w-2-r-x] - in[x-r-1]
		out[x] = uint16((uint32(delta) * p.scale) >> FIX)
	}
}

// emit one filtered output row
func (p *smoothParams) applyFilter() {
	dst := p.data[p.dst : p.dst+p.width]
	for x, v := range dst {
		if int(v) < p.max && int(v) > p.min {
			c := int(v) + int(p.correction[LUT_SIZE+int(p.average[x])-int(v)<<LFIX])
			dst[x] = clip8b(c)
		}
	}
	p.dst += p.stride // advance output pointer
}

//------------------------------------------------------------------------------
// Initialize correction table

func initCorrectionLUT(lut []int16, minDist int) {
	// The correction curve is:
	//   f(x) = x for x <= threshold2
	//   f(x) = 0 for x >= threshold1
	// and a linear interpolation for range x=[threshold2, threshold1]
	// (along with f(-x) = -f(x) symmetry).
	// Note that: threshold2 = 3/4 * threshold1
	threshold1 := minDist << LFIX
	threshold2 := (3 * threshold1) >> 2
	maxThreshold := threshold2
	delta := threshold1 - threshold2

	for i := 1; i <= LUT_SIZE; i++ {
		var c int
		switch {
		case i <= threshold2:
			c = i
		case i < threshold1:
			c = maxThreshold * (threshold1 - i) / delta
		}
		c >>= LFIX
		lut[LUT_SIZE+i] = int16(c)
		lut[LUT_SIZE-i] = int16(-c)
	}
	lut[LUT_SIZE] = 0
}

func (p *smoothParams) countLevels() {
	var usedLevels [256]bool

	p.min = 255
	p.max = 0
	for j := range p.height {
		row := p.data[j*p.stride : j*p.stride+p.width]
		for _, v := range row {
			p.min = min(p.min, int(v))
			p.max = max(p.max, int(v))
			usedLevels[v] = true
		}
	}

	// Compute the minimum distance between two non-zero levels.
	p.minLevelDist = p.max - p.min
	lastLevel := -1
	for i, used := range usedLevels {
		if !used {
			continue
		}
		p.numLevels++
		if lastLevel >= 0 {
			p.minLevelDist = min(p.minLevelDist, i-lastLevel)
		}
		lastLevel = i
	}
}

// Initialize all params.
func initParams(data []byte, width, height, stride, radius int) (*smoothParams, error) {
	R := 2*radius + 1 // total size of the kernel

	mem, err := SafeMalloc[uint16]((R+1)*width+width, 0)
	if err != nil {
		return nil, err
	}
	correction, err := SafeMalloc[int16](CORRECTION_LUT_SIZE, 0)
	if err != nil {
		return nil, err
	}

	p := &smoothParams{
		width:      width,
		height:     height,
		stride:     stride,
		data:       data,
		radius:     radius,
		scale:      (1 << (FIX + LFIX)) / uint32(R*R), // normalization constant
		row:        -radius,
		mem:        mem[:(R+1)*width],
		cur:        0,
		end:        R * width,
		top:        (R - 1) * width,
		average:    mem[(R+1)*width:],
		correction: correction,
	}

	// analyze the input distribution so we can best-fit the threshold
	p.countLevels()
	initCorrectionLUT(p.correction, p.minLevelDist)

	return p, nil
}

// DequantizeLevels applies a smoothing filter over the plane to hide the
// banding left by level quantization. strength is in [0..100]; 0 leaves data
// untouched. Only pixels strictly between the extreme levels are modified.
func DequantizeLevels(data []byte, width, height, stride, strength int) error {
	if strength < 0 || strength > 100 {
		return fmt.Errorf("%w: strength %d", ErrInvalidDequantizeParams, strength)
	}
	if len(data) == 0 || width <= 0 || height <= 0 || stride < width {
		return fmt.Errorf("%w: %dx%d stride %d", ErrInvalidDequantizeParams, width, height, stride)
	}
	if len(data) < (height-1)*stride+width {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidDequantizeParams, len(data), width, height)
	}

	radius := 4 * strength / 100
	// limit the filter size to not exceed the image dimensions
	if 2*radius+1 > width {
		radius = (width - 1) >> 1
	}
	if 2*radius+1 > height {
		radius = (height - 1) >> 1
	}
	if radius <= 0 {
		return nil
	}

	p, err := initParams(data, width, height, stride, radius)
	if err != nil {
		return err
	}
	if p.numLevels <= 2 {
		return nil
	}

	for ; p.row < p.height; p.row++ {
		p.vFilter() // accumulate average of input
		// Need to wait few rows in order to prime the filter,
		// before emitting some output.
		if p.row >= p.radius {
			p.hFilter()
			p.applyFilter()
		}
	}

	return nil
}
