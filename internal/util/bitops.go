package util

import "math"

// Slice16bits returns the 16-bit slice of val starting at offsetBits.
func Slice16bits(val uint64, offsetBits int) uint16 {
	return uint16((val >> offsetBits) & 0xffff)
}

func FitsInt32(val int64) bool {
	return val >= math.MinInt32 && val <= math.MaxInt32
}
