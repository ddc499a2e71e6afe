/*
Package bitint provides the power-of-2 helpers used for analysis windows
and ring buffer sizing.

Ring buffers sized to a power of 2 can wrap their write head with a mask
instead of a modulo:

	size := bitint.NextPowerOfTwo(window) // 1000 -> 1024
	pos = (pos + 1) & (size - 1)

NextPowerOfTwo subtracts 1 before taking the bit length so that exact
powers of 2 are preserved: for 8, bits.Len(7) = 3 and 1<<3 = 8. Without the
subtraction bits.Len(8) = 4 and the result would double to 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Zero and negative
// sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one
// bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// WrapMask returns the index mask for a power-of-2 sized ring buffer.
// It panics if size is not a power of 2.
func WrapMask(size int) int {
	if !IsPowerOfTwo(size) {
		panic("bitint: ring size must be a power of 2")
	}
	return size - 1
}
