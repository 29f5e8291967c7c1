package mastering

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/reftone/refmaster/dsp/conv"
	"github.com/reftone/refmaster/dsp/spectrum"
)

// epsilon is the numerical floor: denominators below it are
// clamped rather than allowed to blow up a division.
const epsilon = 1e-6

// rms computes sqrt(mean(x^2)), floored at epsilon when the caller uses
// the result as a divisor (callers decide; rms itself returns the raw
// value including zero for a silent buffer).
func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range x {
		sum += v * v
	}

	return mathSqrt(sum / float64(len(x)))
}

// floorEpsilon returns v, or epsilon if v is below the numerical floor.
func floorEpsilon(v float64) float64 {
	if v < epsilon {
		return epsilon
	}

	return v
}

// amplify multiplies x by g elementwise, in place. No saturation.
func amplify(x []float64, g float64) {
	for i := range x {
		x[i] *= g
	}
}

// normalizePeak divides x by its peak absolute value, in place. No-op
// on a silent buffer.
func normalizePeak(x []float64) {
	peak := peakAbs(x)
	if peak == 0 {
		return
	}

	amplify(x, 1.0/peak)
}

func peakAbs(x []float64) float64 {
	peak := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	return peak
}

// lrToMS converts a stereo pair to Mid/Side.
func lrToMS(l, r []float64) (m, s []float64) {
	n := len(l)
	m = make([]float64, n)
	s = make([]float64, n)

	for i := 0; i < n; i++ {
		m[i] = (l[i] + r[i]) / 2
		s[i] = (l[i] - r[i]) / 2
	}

	return m, s
}

// msToLR converts a Mid/Side pair back to stereo.
func msToLR(m, s []float64) (l, r []float64) {
	n := len(m)
	l = make([]float64, n)
	r = make([]float64, n)

	for i := 0; i < n; i++ {
		l[i] = m[i] + s[i]
		r[i] = m[i] - s[i]
	}

	return l, r
}

// batchFFTMagnitude computes the average magnitude spectrum of channel
// across the given loud pieces: for each piece, split into
// non-overlapping nFFT blocks, magnitude each, average within the
// piece, then average across pieces. Blocks are analyzed unwindowed,
// matching the original implementation's boxcar STFT (see DESIGN.md).
func batchFFTMagnitude(channel []float64, pieces []piece, nFFT, workers int) ([]float64, error) {
	type pieceResult struct {
		spectrum []float64
		blocks   int
		err      error
	}

	results := parallelFor(len(pieces), workers, func(idx int) pieceResult {
		plan, err := algofft.NewPlan64(nFFT)
		if err != nil {
			return pieceResult{err: err}
		}

		p := pieces[idx]
		pieceLen := p.end - p.start
		numBlocks := pieceLen / nFFT

		sum := make([]float64, nFFT)
		freq := make([]complex128, nFFT)
		block := make([]complex128, nFFT)

		for b := 0; b < numBlocks; b++ {
			off := p.start + b*nFFT

			for i := 0; i < nFFT; i++ {
				block[i] = complex(channel[off+i], 0)
			}

			if err := plan.Forward(freq, block); err != nil {
				return pieceResult{err: err}
			}

			mag := spectrum.Magnitude(freq)
			for i, v := range mag {
				sum[i] += v
			}
		}

		if numBlocks > 0 {
			for i := range sum {
				sum[i] /= float64(numBlocks)
			}
		}

		return pieceResult{spectrum: sum, blocks: numBlocks}
	})

	pieceSpectra := make([][]float64, 0, len(results))

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}

		if r.blocks == 0 {
			continue
		}

		pieceSpectra = append(pieceSpectra, r.spectrum)
	}

	if len(pieceSpectra) == 0 {
		return make([]float64, nFFT), nil
	}

	out := treeSum(pieceSpectra)

	n := float64(len(pieceSpectra))
	for i := range out {
		out[i] /= n
	}

	return out, nil
}

// fconv computes the linear convolution of x and h via FFT, keeping the
// first len(x)+len(h)-1 samples. No normalization.
func fconv(x, h []float64) ([]float64, error) {
	return conv.OverlapAddConvolve(x, h)
}

// detectLimited implements the clipping/limiting heuristic:
// count samples equal in magnitude to the global peak and classify.
func detectLimited(x []float64, clippingThreshold, limitedThreshold int) (clipping, limited bool) {
	peak := peakAbs(x)
	if peak == 0 {
		return false, false
	}

	count := 0

	for _, v := range x {
		if math.Abs(math.Abs(v)-peak) < 1e-12 {
			count++
		}
	}

	clipping = count > clippingThreshold && peak >= 1.0
	limited = count > limitedThreshold

	return clipping, limited
}
