package utils

// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// filter estimation
//
// Author: Urvang (urvang@google.com)

import "github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"

// -----------------------------------------------------------------------------
// Quick estimate of a potentially interesting filter mode to try.

const SMAX = 16

// Scoring diff, in [0..SMAX)
func sdiff(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}

	return d >> 4
}

func gradientPredictor(a, b, c int) int {
	g := a + b - c
	if g&^0xff == 0 {
		return g
	}
	if g < 0 {
		return 0
	}

	return 255 // clip to 8bit
}

// EstimateBestFilter returns a filter that is likely to predict the
// width x height plane well. Only every other pixel is sampled.
func EstimateBestFilter(data []byte, width, height int) dsp.FilterType {
	var bins [dsp.FilterLast][SMAX]bool

	// We only sample every other pixels. That's enough.
	for j := 2; j < height-1; j += 2 {
		p := data[j*width : (j+1)*width]
		top := data[(j-1)*width : j*width]
		mean := int(p[0])
		for i := 2; i < width-1; i += 2 {
			v := int(p[i])
			gradPred := gradientPredictor(int(p[i-1]), int(top[i]), int(top[i-1]))

			bins[dsp.FilterNone][sdiff(v, mean)] = true
			bins[dsp.FilterHorizontal][sdiff(v, int(p[i-1]))] = true
			bins[dsp.FilterVertical][sdiff(v, int(top[i]))] = true
			bins[dsp.FilterGradient][sdiff(v, gradPred)] = true
			mean = (3*mean + v + 2) >> 2
		}
	}

	bestFilter := dsp.FilterNone
	bestScore := 0x7fffffff
	for filter := dsp.FilterNone; filter < dsp.FilterLast; filter++ {
		score := 0
		for i, used := range bins[filter] {
			if used {
				score += i
			}
		}
		if score < bestScore {
			bestScore = score
			bestFilter = filter
		}
	}

	return bestFilter
}
