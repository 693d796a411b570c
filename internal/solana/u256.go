package solana

import "math/bits"

// u256 is an unsigned 256-bit integer as four little-endian 64-bit limbs.
type u256 [4]uint64

// u256FromLE loads up to 32 little-endian bytes.
func u256FromLE(b []byte) u256 {
	var x u256
	for i := 0; i < len(b) && i < 32; i++ {
		x[i/8] |= uint64(b[i]) << (8 * uint(i%8))
	}
	return x
}

func (x u256) isZero() bool {
	return x[0]|x[1]|x[2]|x[3] == 0
}

func (x u256) fits128() bool {
	return x[2] == 0 && x[3] == 0
}

func (x u256) bit(n int) bool {
	return x[n/64]>>(uint(n)%64)&1 == 1
}

// signExtend fills every bit above width with bit width-1.
func (x u256) signExtend(width int) u256 {
	if width >= 256 || !x.bit(width-1) {
		return x
	}
	for i := width; i < 256; i++ {
		x[i/64] |= 1 << (uint(i) % 64)
	}
	return x
}

func (x u256) negative() bool {
	return x[3]>>63 == 1
}

// negate returns the two's complement of x.
func (x u256) negate() u256 {
	var out u256
	var carry uint64 = 1
	for i := range x {
		out[i], carry = bits.Add64(^x[i], 0, carry)
	}
	return out
}

// divmod10 divides x by ten in place and returns the remainder.
func (x *u256) divmod10() uint64 {
	var rem uint64
	for i := 3; i >= 0; i-- {
		x[i], rem = bits.Div64(rem, x[i], 10)
	}
	return rem
}

// decimal renders x in base ten.
func (x u256) decimal() string {
	if x.isZero() {
		return "0"
	}
	var buf [78]byte
	pos := len(buf)
	for !x.isZero() {
		pos--
		buf[pos] = byte('0' + x.divmod10())
	}
	return string(buf[pos:])
}
