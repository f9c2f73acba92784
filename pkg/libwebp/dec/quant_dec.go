package dec

// Copyright 2010 Google Inc. All Rights Reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the COPYING file in the root of the source
// tree. An additional intellectual property rights grant can be found
// in the file PATENTS. All contributing project authors may
// be found in the AUTHORS file in the root of the source tree.
// -----------------------------------------------------------------------------
//
// Quantizer initialization
//
// Author: Skal (pascal.massimino@gmail.com)

func clip(v, M int) int {
	return max(0, min(v, M))
}

// Paragraph 14.1
var kDcTable = [128]uint8{
	4, 5, 6, 7, 8, 9, 10, 10, 11, 12, 13, 14, 15, 16, 17, 17,
	18, 19, 20, 20, 21, 21, 22, 22, 23, 23, 24, 25, 25, 26, 27, 28,
	29, 30, 31, 32, 33, 34, 35, 36, 37, 37, 38, 39, 40, 41, 42, 43,
	44, 45, 46, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56, 57, 58,
	59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72, 73, 74,
	75, 76, 76, 77, 78, 79, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89,
	91, 93, 95, 96, 98, 100, 101, 102, 104, 106, 108, 110, 112, 114, 116, 118,
	122, 124, 126, 128, 130, 132, 134, 136, 138, 140, 143, 145, 148, 151, 154, 157,
}

var kAcTable = [128]uint16{
	4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19,
	20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35,
	36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51,
	52, 53, 54, 55, 56, 57, 58, 60, 62, 64, 66, 68, 70, 72, 74, 76,
	78, 80, 82, 84, 86, 88, 90, 92, 94, 96, 98, 100, 102, 104, 106, 108,
	110, 112, 114, 116, 119, 122, 125, 128, 131, 134, 137, 140, 143, 146, 149, 152,
	155, 158, 161, 164, 167, 170, 173, 177, 181, 185, 189, 193, 197, 201, 205, 209,
	213, 217, 221, 225, 229, 234, 239, 245, 249, 254, 259, 264, 269, 274, 279, 284,
}

// VP8QuantMatrix holds the dequantization factors of one segment.
type VP8QuantMatrix struct {
	Y1 [2]int // [DC, AC]
	Y2 [2]int
	UV [2]int

	UVQuant int // U/V quantizer value, for dithering strength evaluation
	Dither  int // dithering amplitude (0 = off), in VP8_RANDOM_DITHER_FIX precision
}

// parseQuant reads the quantizer indices and fills the per-segment
// dequantization matrices.
func (dec *VP8Decoder) parseQuant() {
	br := &dec.br
	optional := func() int {
		if br.Get() == 0 {
			return 0
		}

		return int(br.GetSignedValue(4))
	}

	baseQ0 := int(br.GetValue(7))
	dqy1DC := optional()
	dqy2DC := optional()
	dqy2AC := optional()
	dquvDC := optional()
	dquvAC := optional()

	hdr := &dec.segmentHdr
	for i := range NUM_MB_SEGMENTS {
		var q int
		if hdr.UseSegment {
			q = int(hdr.Quantizer[i])
			if !hdr.AbsoluteDelta {
				q += baseQ0
			}
		} else {
			if i > 0 {
				dec.dqm[i] = dec.dqm[0]
				continue
			}
			q = baseQ0
		}

		m := &dec.dqm[i]
		m.Y1[0] = int(kDcTable[clip(q+dqy1DC, 127)])
		m.Y1[1] = int(kAcTable[clip(q, 127)])

		m.Y2[0] = int(kDcTable[clip(q+dqy2DC, 127)]) * 2
		// For all x in [0..284], x*155/100 is bitwise equal to (x*101581) >> 16.
		// The smallest precision for that is '(x*6349) >> 12' but 16 is a good
		// word size.
		m.Y2[1] = max((int(kAcTable[clip(q+dqy2AC, 127)])*101581)>>16, 8)

		m.UV[0] = int(kDcTable[clip(q+dquvDC, 117)])
		m.UV[1] = int(kAcTable[clip(q+dquvAC, 127)])

		m.UVQuant = q + dquvAC // for dithering strength evaluation
	}
}
