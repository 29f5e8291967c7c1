package mastering

import "testing"

func TestDetectLossySourceFlagsBrickwalledSpectrum(t *testing.T) {
	const nFFT = 4096
	const sampleRate = 44100.0

	spec := make([]float64, nFFT)
	binHz := sampleRate / nFFT

	for i := range spec {
		freq := float64(i) * binHz
		if freq <= 16000 {
			spec[i] = 1.0
		}
	}

	if !detectLossySource(spec, sampleRate, nFFT) {
		t.Fatal("expected a spectrum with nothing above 16kHz to be flagged lossy")
	}
}

func TestDetectLossySourceIgnoresFullBandwidthSpectrum(t *testing.T) {
	const nFFT = 4096
	const sampleRate = 44100.0

	spec := make([]float64, nFFT)
	for i := range spec[:nFFT/2+1] {
		spec[i] = 1.0
	}

	if detectLossySource(spec, sampleRate, nFFT) {
		t.Fatal("expected a flat full-bandwidth spectrum not to be flagged lossy")
	}
}

func TestDetectLossySourceHandlesDegenerateInputs(t *testing.T) {
	if detectLossySource(nil, 44100, 4096) {
		t.Fatal("empty spectrum should not be flagged")
	}

	if detectLossySource([]float64{1, 2, 3}, 0, 4096) {
		t.Fatal("non-positive sample rate should not be flagged")
	}
}
