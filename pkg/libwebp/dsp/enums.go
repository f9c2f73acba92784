// Copyright 2011 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package dsp

// FilterType is the spatial prediction filter applied to an alpha plane
// before compression. It is a closed set: values outside it cannot be
// produced by ParseFilterType.
type FilterType uint8

const ( // Filter types.
	FilterNone FilterType = iota
	FilterHorizontal
	FilterVertical
	FilterGradient

	FilterLast // end marker
)

// ParseFilterType maps the 2-bit filter field of an alpha header to a
// FilterType. ok is false for any value that is not a known filter.
func ParseFilterType(v uint8) (f FilterType, ok bool) {
	switch FilterType(v) {
	case FilterNone, FilterHorizontal, FilterVertical, FilterGradient:
		return FilterType(v), true
	default:
		return FilterNone, false
	}
}

func (f FilterType) String() string {
	switch f {
	case FilterNone:
		return "none"
	case FilterHorizontal:
		return "horizontal"
	case FilterVertical:
		return "vertical"
	case FilterGradient:
		return "gradient"
	default:
		return "unknown"
	}
}
