package utils

import "math/bits"

// PreviousPowerOfTwo largest power of two not above x, or 0 for x == 0
func PreviousPowerOfTwo(x uint64) int {
	if x == 0 {
		return 0
	}
	return 1 << (bits.Len64(x) - 1)
}
