package mastering

// Stereo is a pair of equal-length channel buffers, matching the
// teacher's convention of plain []float64 slices rather than a
// per-sample frame struct.
type Stereo struct {
	L, R []float64
}

// Len returns the shared channel length, or 0 if the channels differ.
func (s Stereo) Len() int {
	if len(s.L) != len(s.R) {
		return 0
	}

	return len(s.L)
}

// BitDepth selects the sample format a Saver writes.
type BitDepth int

const (
	BitDepthPCM16 BitDepth = iota
	BitDepthPCM24
	BitDepthFloat32
)

// ResultSpec configures one requested output variant.
type ResultSpec struct {
	Path       string
	BitDepth   BitDepth
	UseLimiter bool
	Normalize  bool
	Preview    bool
}

// piece is a contiguous analysis segment boundary within a channel.
type piece struct {
	start, end int
}

// bundle is the reference statistics bundle, produced once per
// REFERENCE and cached by fingerprint (see cache.go).
type bundle struct {
	RefMatchingRMSM float64
	RefMatchingRMSS float64
	RefAvgSpectrumM []float64
	RefAvgSpectrumS []float64
	RefPeak         float64
	RefSampleCount  int
	InternalRate    float64
	FFTSize         int
	PieceSize       int
}
