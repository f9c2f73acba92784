package utils

// Copyright 2014 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

import "strconv"

// WEBP_MAX_ALLOCABLE_MEMORY is the maximum memory amount that will ever be
// requested through SafeMalloc. 32-bit targets keep it below MaxInt32.
var WEBP_MAX_ALLOCABLE_MEMORY = func() uint64 {
	if strconv.IntSize == 32 {
		return (1 << 31) - (1 << 16)
	}

	return 1 << 34
}()
