package mastering

import (
	"fmt"

	"github.com/reftone/refmaster/dsp/resample"
)

// resampleToInternalRate converts x from fromRate to toRate via the
// polyphase resampler, or returns x unchanged when the rates already
// match.
func resampleToInternalRate(x []float64, fromRate, toRate float64) ([]float64, error) {
	if fromRate == toRate {
		return x, nil
	}

	r, err := resample.NewForRates(fromRate, toRate)
	if err != nil {
		return nil, fmt.Errorf("mastering: resample %g->%g: %w", fromRate, toRate, err)
	}

	return r.Process(x), nil
}
