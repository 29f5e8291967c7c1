package mastering

// convolveTrimmed applies fir to signal via fconv and trims N_FFT/2
// samples from both head and tail, so the filtered channel
// aligns with the Stage-1 input length. For an even-length FIR the
// result is one sample shorter than signal.
func convolveTrimmed(signal, fir []float64) ([]float64, error) {
	full, err := fconv(signal, fir)
	if err != nil {
		return nil, err
	}

	half := len(fir) / 2

	lo := half
	hi := len(full) - half

	if hi < lo {
		hi = lo
	}

	return full[lo:hi], nil
}
