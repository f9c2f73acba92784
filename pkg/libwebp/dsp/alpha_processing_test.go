package dsp_test

import (
	"testing"

	"github.com/daanv2/go-webp-alpha/pkg/libwebp/dsp"
	"github.com/stretchr/testify/assert"
)

func TestExtractAlpha(t *testing.T) {
	// 2x2 RGBA with a padded stride.
	pix := []byte{
		1, 2, 3, 0xff, 4, 5, 6, 0xff, 9, 9,
		7, 8, 9, 0xff, 1, 1, 1, 0xff, 9, 9,
	}
	alpha := make([]byte, 6)
	assert.True(t, dsp.ExtractAlpha(pix[3:], 10, 2, 2, alpha, 3))
	assert.Equal(t, []byte{0xff, 0xff, 0, 0xff, 0xff, 0}, alpha)

	pix[14+3] = 0x80
	assert.False(t, dsp.ExtractAlpha(pix[3:], 10, 2, 2, alpha, 3))
	assert.Equal(t, byte(0x80), alpha[4])
}

func TestExtractGreen(t *testing.T) {
	pix := []byte{0, 10, 0, 0, 0, 20, 0, 0, 0, 30, 0, 0}
	alpha := make([]byte, 3)
	dsp.ExtractGreen(pix[1:], alpha, 3)
	assert.Equal(t, []byte{10, 20, 30}, alpha)

	dsp.ExtractGreen(nil, alpha, 0)
	assert.Equal(t, []byte{10, 20, 30}, alpha)
}
