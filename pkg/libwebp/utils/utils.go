// Copyright 2012 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.

package utils

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/daanv2/go-webp-alpha/pkg/generics"
)

var ErrOutOfMemory = errors.New("allocation exceeds the memory limit")

// CheckSizeArgumentsOverflow reports whether nmemb elements of size bytes fit
// in limit bytes. A zero limit means WEBP_MAX_ALLOCABLE_MEMORY.
func CheckSizeArgumentsOverflow(nmemb, size, limit uint64) bool {
	if limit == 0 || limit > WEBP_MAX_ALLOCABLE_MEMORY {
		limit = WEBP_MAX_ALLOCABLE_MEMORY
	}

	hi, total := bits.Mul64(nmemb, size)

	return hi == 0 && total <= limit
}

// SafeMalloc allocates nmemb zeroed elements of T, refusing requests above
// limit bytes (see CheckSizeArgumentsOverflow).
func SafeMalloc[T any](nmemb int, limit uint64) ([]T, error) {
	if nmemb < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", ErrOutOfMemory, nmemb)
	}

	size := uint64(generics.SizeOf[T]())
	if !CheckSizeArgumentsOverflow(uint64(nmemb), size, limit) {
		return nil, fmt.Errorf("%w: %d x %d bytes", ErrOutOfMemory, nmemb, size)
	}

	return make([]T, nmemb), nil
}
