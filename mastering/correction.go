package mastering

import "github.com/reftone/refmaster/dsp/effects/dynamics"

// correctionLoop iteratively re-estimates RMS after a
// fast hard-clip simulation of limiting, rescale toward the reference
// matching RMS, then take one final pass through the real Hyrax limiter
// instead of the hard-clip simulator (the source's behavior; see
// DESIGN.md's Open Question decision).
//
// signal is mutated in place and also returned for convenience. pieceSize
// and refMatchingRMS drive the per-step RMS re-estimation; limiter is
// used only for the terminal pass.
func correctionLoop(signal Stereo, pieceSize int, refMatchingRMS float64, steps int, limiter *dynamics.Hyrax) (Stereo, error) {
	for step := 0; step < steps-1; step++ {
		mid, _ := lrToMS(signal.L, signal.R)

		midCandidate := make([]float64, len(mid))
		for i, v := range mid {
			midCandidate[i] = clipHard(v, 1.0)
		}

		coef, err := correctionCoefficient(midCandidate, pieceSize, refMatchingRMS)
		if err != nil {
			return signal, err
		}

		amplify(signal.L, coef)
		amplify(signal.R, coef)
	}

	mid, _ := lrToMS(signal.L, signal.R)

	midLimited := make([]float64, len(mid))
	for i, v := range mid {
		midLimited[i] = limiter.ProcessSample(v)
	}

	limiter.Reset()

	coef, err := correctionCoefficient(midLimited, pieceSize, refMatchingRMS)
	if err != nil {
		return signal, err
	}

	amplify(signal.L, coef)
	amplify(signal.R, coef)

	return signal, nil
}

func correctionCoefficient(mid []float64, pieceSize int, refMatchingRMS float64) (float64, error) {
	pieces := segment(len(mid), pieceSize)
	if len(pieces) == 0 {
		pieces = []piece{{start: 0, end: len(mid)}}
	}

	_, admittedRMS := loudPieces(mid, pieces)

	coef, _, _, _ := levelCoefficient(admittedRMS, []float64{refMatchingRMS})

	return coef, nil
}

// clipHard clamps x to [-limit, limit], the fast limiting simulation of
// the correction loop's fast limiting simulation.
func clipHard(x, limit float64) float64 {
	if x > limit {
		return limit
	}

	if x < -limit {
		return -limit
	}

	return x
}
