//go:build 386 || arm || mips || mipsle

package bits

import "encoding/binary"

// BITS is the number of bits cached ahead in VP8BitReader.value. The value
// register must hold BITS+8 bits.
const BITS = 24

// bit_t is the natural register type for storing 'value'.
type bit_t = uint32

// lbitBytes is the number of bytes touched by one packed load.
const lbitBytes = 4

func loadBits(b []byte) bit_t {
	return binary.BigEndian.Uint32(b) >> (32 - BITS)
}
