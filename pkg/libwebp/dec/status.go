package dec

import (
	"errors"
	"fmt"
)

// VP8StatusCode is the outcome of a decoding step.
type VP8StatusCode int

const (
	VP8_STATUS_OK VP8StatusCode = iota
	VP8_STATUS_OUT_OF_MEMORY
	VP8_STATUS_INVALID_PARAM
	VP8_STATUS_BITSTREAM_ERROR
	VP8_STATUS_UNSUPPORTED_FEATURE
	VP8_STATUS_SUSPENDED
	VP8_STATUS_USER_ABORT
	VP8_STATUS_NOT_ENOUGH_DATA
)

func (s VP8StatusCode) String() string {
	switch s {
	case VP8_STATUS_OK:
		return "OK"
	case VP8_STATUS_OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	case VP8_STATUS_INVALID_PARAM:
		return "INVALID_PARAM"
	case VP8_STATUS_BITSTREAM_ERROR:
		return "BITSTREAM_ERROR"
	case VP8_STATUS_UNSUPPORTED_FEATURE:
		return "UNSUPPORTED_FEATURE"
	case VP8_STATUS_SUSPENDED:
		return "SUSPENDED"
	case VP8_STATUS_USER_ABORT:
		return "USER_ABORT"
	case VP8_STATUS_NOT_ENOUGH_DATA:
		return "NOT_ENOUGH_DATA"
	default:
		return fmt.Sprintf("VP8StatusCode(%d)", int(s))
	}
}

// Decoding error conditions.
var (
	ErrInvalidRowRange   = errors.New("row range outside of the frame")
	ErrOutOfMemory       = errors.New("memory error allocating the alpha plane")
	ErrBadAlphaHeader    = errors.New("invalid alpha header")
	ErrTruncatedAlpha    = errors.New("alpha data too short for the frame")
	ErrAlphaFailed       = errors.New("alpha decoding previously failed")
	ErrAlphaReleased     = errors.New("alpha memory was released")
	ErrNoAlphaData       = errors.New("no alpha data")
	ErrInvalidOptions    = errors.New("invalid decoder options")
	ErrHeadersNotDecoded = errors.New("frame headers not decoded")
)

// StatusError carries the status code and message recorded on a decoder.
type StatusError struct {
	Code VP8StatusCode
	Msg  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}
