package mastering

// levelCoefficient implements the Level Analyzer: given the
// loud-piece RMS sets of TARGET and REFERENCE Mid channels, derive the
// matching RMS of each side and the gain coefficient to apply uniformly
// to TARGET Mid and Side. Returns the coefficient, the target and
// reference matching RMS (the target value as computed; only the divisor
// is floored at epsilon), and whether the target was silent (for the
// 2xxx/3xxx warning event).
func levelCoefficient(tgtPieceRMS, refPieceRMS []float64) (coef, tgtMatchingRMS, refMatchingRMS float64, silentTarget bool) {
	tgtMatchingRMS = matchingRMS(tgtPieceRMS)
	refMatchingRMS = matchingRMS(refPieceRMS)

	denom := tgtMatchingRMS
	if denom < epsilon {
		denom = epsilon
		silentTarget = true
	}

	coef = refMatchingRMS / denom

	return coef, tgtMatchingRMS, refMatchingRMS, silentTarget
}
