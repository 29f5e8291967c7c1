//go:build fastmath

package mastering

import "github.com/meko-christian/algo-approx"

const ln2 = 0.693147180559945309417232121458

// mathSqrt computes sqrt(x) using a fast approximation, for the
// per-piece RMS hot path that runs over the whole file.
func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}

// mathLog2 computes log2(x) using a fast approximation, for the
// step 2 log-frequency grid construction.
func mathLog2(x float64) float64 {
	return approx.FastLog(x) / ln2
}

// mathExp2 computes 2^x using a fast approximation.
func mathExp2(x float64) float64 {
	return approx.FastExp(x * ln2)
}
