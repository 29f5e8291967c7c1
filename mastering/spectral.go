package mastering

// spectralAnalysis computes the average magnitude spectrum of channel
// over its loud pieces.
func spectralAnalysis(channel []float64, loud []piece, nFFT, workers int) ([]float64, error) {
	return batchFFTMagnitude(channel, loud, nFFT, workers)
}
