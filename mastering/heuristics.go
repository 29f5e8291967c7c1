package mastering

import "github.com/reftone/refmaster/stats/frequency"

// lossySourceRolloffHz is the 99.9%-energy rolloff frequency below
// which a spectrum is flagged as probably transcoded: mp3/aac-style
// encoders commonly brickwall everything above 16-19kHz, so a track
// whose energy is almost entirely below this line was very likely
// lossy-compressed at some point. False positives are possible on
// genuinely dark-sounding material; this is advisory, not a hard
// validation failure.
const lossySourceRolloffHz = 17500.0

// detectLossySource flags a magnitude spectrum with a suspiciously low
// high-frequency rolloff point.
func detectLossySource(spec []float64, sampleRate float64, nFFT int) bool {
	if len(spec) == 0 || sampleRate <= 0 || nFFT <= 0 {
		return false
	}

	half := nFFT / 2
	if half+1 > len(spec) {
		half = len(spec) - 1
	}

	oneSided := spec[:half+1]

	return frequency.Rolloff(oneSided, sampleRate, 0.999) < lossySourceRolloffHz
}
