package mastering

// previewFadeSamples is the linear fade-in/fade-out length applied to
// a preview excerpt's edges, short enough to be inaudible as a click
// guard rather than a perceptible fade.
const previewFadeSamples = 512

// previewExcerpt extracts a fixed-length excerpt starting at the
// loudest loud piece of signal, with a short linear fade at both
// edges, for ResultSpec.Preview outputs.
func previewExcerpt(signal Stereo, pieceSize, previewSize int) (Stereo, error) {
	total := signal.Len()
	if total == 0 {
		return signal, nil
	}

	mid, _ := lrToMS(signal.L, signal.R)

	pieces := segment(len(mid), pieceSize)
	if len(pieces) == 0 {
		pieces = []piece{{start: 0, end: len(mid)}}
	}

	loud, loudRMS := loudPieces(mid, pieces)

	best := loud[0]
	bestRMS := loudRMS[0]

	for i, p := range loud {
		if loudRMS[i] > bestRMS {
			best = p
			bestRMS = loudRMS[i]
		}
	}

	length := previewSize
	if length > total {
		length = total
	}

	start := best.start
	if start+length > total {
		start = total - length
	}

	if start < 0 {
		start = 0
	}

	end := start + length

	l := append([]float64(nil), signal.L[start:end]...)
	r := append([]float64(nil), signal.R[start:end]...)

	applyEdgeFade(l)
	applyEdgeFade(r)

	return Stereo{L: l, R: r}, nil
}

func applyEdgeFade(x []float64) {
	n := len(x)
	fade := previewFadeSamples

	if fade > n/2 {
		fade = n / 2
	}

	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		x[i] *= g
		x[n-1-i] *= g
	}
}
