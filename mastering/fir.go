package mastering

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/reftone/refmaster/dsp/interp"
	"github.com/reftone/refmaster/dsp/window"
)

// synthesizeFIR implements the FIR Synthesizer: from the
// REF/TARGET magnitude ratio, produce a smoothed linear-phase FIR of
// length nFFT via log-frequency resampling, LOESS smoothing, mirroring
// with edge-bin overrides, IFFT, center-shift, and a Hann window.
func synthesizeFIR(refMag, tgtMag []float64, sampleRate float64, nFFT, oversampling int, loessSpan float64, preserveEdgeBins bool) ([]float64, error) {
	if len(refMag) != nFFT || len(tgtMag) != nFFT {
		return nil, fmt.Errorf("mastering: fir synthesis expects spectra of length %d", nFFT)
	}

	half := nFFT / 2

	// Step 1: ratio spectrum, target floored at epsilon.
	ratio := make([]float64, half+1)
	for k := 0; k <= half; k++ {
		ratio[k] = refMag[k] / floorEpsilon(tgtMag[k])
	}

	// Step 2: linear and log frequency grids, cubic-spline onto the log grid.
	nyquist := sampleRate / 2

	fLin := make([]float64, half+1)
	for k := 0; k <= half; k++ {
		fLin[k] = nyquist * float64(k) / float64(half)
	}

	logPoints := half*oversampling + 1
	fLog := logGrid(4.0/float64(nFFT)*nyquist, nyquist, logPoints)

	linSpline, err := interp.NewNaturalCubicSpline(fLin, ratio)
	if err != nil {
		return nil, fmt.Errorf("mastering: fir log-resample spline: %w", err)
	}

	ratioLog := linSpline.EvalAll(fLog)

	// Step 3: LOESS smoothing on the log-scale curve.
	smoother := interp.NewLoess(interp.WithLoessSpan(loessSpan))

	logX := make([]float64, logPoints)
	for i, f := range fLog {
		logX[i] = mathLog2(math.Max(f, 1e-9))
	}

	smoothedLog, err := smoother.Smooth(logX, ratioLog)
	if err != nil {
		return nil, fmt.Errorf("mastering: fir loess smoothing: %w", err)
	}

	// Step 4: cubic-spline back to the linear grid.
	logSpline, err := interp.NewNaturalCubicSpline(logX, smoothedLog)
	if err != nil {
		return nil, fmt.Errorf("mastering: fir linear-resample spline: %w", err)
	}

	hHalf := make([]float64, half+1)
	for k := 0; k <= half; k++ {
		f := fLin[k]
		if f <= 0 {
			hHalf[k] = ratio[0]
			continue
		}

		hHalf[k] = logSpline.Eval(mathLog2(f))
	}

	// Step 5: mirror into the full spectrum with edge-bin overrides.
	h := make([]complex128, nFFT)
	h[0] = 0

	for k := 1; k <= half; k++ {
		h[k] = complex(hHalf[k], 0)
	}

	for k := 2; k < half; k++ {
		h[nFFT-k] = h[k]
	}

	if preserveEdgeBins {
		// Bin N-1 mirrors bin 1 in a real signal's magnitude spectrum, so
		// both overrides carry the same ultra-low-frequency ratio value
		// rather than the smoothed curve's extrapolation at the edges.
		h[1] = complex(ratio[1], 0)
		h[nFFT-1] = complex(ratio[1], 0)
	}

	// Step 6: IFFT, center-shift by N/2, Hann window.
	plan, err := algofft.NewPlan64(nFFT)
	if err != nil {
		return nil, err
	}

	td := make([]complex128, nFFT)
	if err := plan.Inverse(td, h); err != nil {
		return nil, err
	}

	fir := make([]float64, nFFT)
	shift := nFFT / 2

	for i := 0; i < nFFT; i++ {
		src := (i + shift) % nFFT
		fir[i] = real(td[src])
	}

	window.Apply(window.TypeHann, fir)

	return fir, nil
}

// logGrid returns n points logarithmically spaced from lo to hi
// inclusive, spanning [4/N * rate/2, rate/2] on the log scale.
func logGrid(lo, hi float64, n int) []float64 {
	out := make([]float64, n)

	if n == 1 {
		out[0] = lo
		return out
	}

	logLo := math.Log(lo)
	logHi := math.Log(hi)
	step := (logHi - logLo) / float64(n-1)

	for i := 0; i < n; i++ {
		out[i] = mathExp2((logLo + step*float64(i)) / ln2Const)
	}

	return out
}

const ln2Const = 0.693147180559945309417232121458
