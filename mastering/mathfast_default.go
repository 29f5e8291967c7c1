//go:build !fastmath

package mastering

import "math"

// mathSqrt computes sqrt(x) using the standard library.
func mathSqrt(x float64) float64 {
	return math.Sqrt(x)
}

// mathLog2 computes log2(x) using the standard library.
func mathLog2(x float64) float64 {
	return math.Log2(x)
}

// mathExp2 computes 2^x using the standard library.
func mathExp2(x float64) float64 {
	return math.Exp2(x)
}
