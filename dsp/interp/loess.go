package interp

import (
	"fmt"
	"math"
)

// Loess performs locally-weighted linear regression smoothing with
// tricube weights, following the shape of dsp/window.Generate: a
// configuration struct built from functional Options, exposing a pure
// Smooth(x, y) function over slices.
type Loess struct {
	span float64
	iter int
}

// LoessOption configures a Loess smoother.
type LoessOption func(*Loess)

// WithLoessSpan sets the neighborhood fraction (0, 1] used to pick the
// number of points considered around each query point. Default 0.075.
func WithLoessSpan(span float64) LoessOption {
	return func(l *Loess) {
		if span > 0 && span <= 1 {
			l.span = span
		}
	}
}

// WithLoessRobustIterations sets the number of robustness-weight
// refinement passes (bisquare re-weighting). Default 0 (plain LOWESS).
func WithLoessRobustIterations(n int) LoessOption {
	return func(l *Loess) {
		if n >= 0 {
			l.iter = n
		}
	}
}

// NewLoess creates a Loess smoother with the given options.
func NewLoess(opts ...LoessOption) *Loess {
	l := &Loess{span: 0.075, iter: 0}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// Smooth returns the locally-weighted regression estimate of y at each
// point in x. x must be sorted ascending and the same length as y.
func (l *Loess) Smooth(x, y []float64) ([]float64, error) {
	n := len(x)
	if n != len(y) {
		return nil, fmt.Errorf("interp: loess x/y length mismatch: %d vs %d", n, len(y))
	}

	if n == 0 {
		return nil, nil
	}

	k := int(math.Ceil(l.span * float64(n)))
	if k < 2 {
		k = 2
	}

	if k > n {
		k = n
	}

	robustWeights := make([]float64, n)
	for i := range robustWeights {
		robustWeights[i] = 1.0
	}

	out := make([]float64, n)

	passes := l.iter + 1
	for pass := 0; pass < passes; pass++ {
		for i := 0; i < n; i++ {
			out[i] = localLinearFit(x, y, robustWeights, x[i], k)
		}

		if pass < passes-1 {
			updateRobustWeights(y, out, robustWeights)
		}
	}

	return out, nil
}

// localLinearFit fits a weighted degree-1 polynomial around query q
// using the k nearest points by index distance along x, weighted by the
// tricube kernel scaled by each point's robustness weight, and returns
// the fit evaluated at q.
func localLinearFit(x, y, robust []float64, q float64, k int) float64 {
	lo, hi := neighborhood(x, q, k)

	maxDist := 0.0
	for i := lo; i < hi; i++ {
		d := math.Abs(x[i] - q)
		if d > maxDist {
			maxDist = d
		}
	}

	if maxDist == 0 {
		maxDist = 1e-12
	}

	var sw, swx, swy, swxx, swxy float64

	for i := lo; i < hi; i++ {
		u := math.Abs(x[i]-q) / maxDist
		w := tricube(u) * robust[i]

		sw += w
		swx += w * x[i]
		swy += w * y[i]
		swxx += w * x[i] * x[i]
		swxy += w * x[i] * y[i]
	}

	if sw <= 0 {
		// Degenerate neighborhood: fall back to nearest value.
		nearest := lo
		best := math.Abs(x[lo] - q)

		for i := lo + 1; i < hi; i++ {
			if d := math.Abs(x[i] - q); d < best {
				best = d
				nearest = i
			}
		}

		return y[nearest]
	}

	denom := sw*swxx - swx*swx
	if math.Abs(denom) < 1e-18 {
		return swy / sw
	}

	slope := (sw*swxy - swx*swy) / denom
	intercept := (swy - slope*swx) / sw

	return intercept + slope*q
}

// neighborhood returns the [lo, hi) index window of the k points in x
// closest to q, given that x is sorted ascending.
func neighborhood(x []float64, q float64, k int) (lo, hi int) {
	n := len(x)
	i := findSegment(x, q)

	lo, hi = i, i+1
	for hi-lo < k {
		expandLeft := lo > 0
		expandRight := hi < n

		if expandLeft && expandRight {
			if q-x[lo-1] <= x[hi]-q {
				lo--
			} else {
				hi++
			}
		} else if expandLeft {
			lo--
		} else if expandRight {
			hi++
		} else {
			break
		}
	}

	return lo, hi
}

func tricube(u float64) float64 {
	if u >= 1 {
		return 0
	}

	v := 1 - u*u*u
	return v * v * v
}

// updateRobustWeights applies one bisquare re-weighting pass based on
// the current fit residuals, per the IRLS step of robust LOESS/LOWESS.
func updateRobustWeights(y, fit, weights []float64) {
	n := len(y)
	residuals := make([]float64, n)

	for i := range residuals {
		residuals[i] = math.Abs(y[i] - fit[i])
	}

	medAbsDev := median(residuals)
	scale := 6 * medAbsDev

	if scale <= 0 {
		for i := range weights {
			weights[i] = 1
		}

		return
	}

	for i := range weights {
		u := residuals[i] / scale
		if u >= 1 {
			weights[i] = 0
			continue
		}

		v := 1 - u*u
		weights[i] = v * v
	}
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}

	sorted := append([]float64(nil), v...)
	insertionSort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

func insertionSort(v []float64) {
	for i := 1; i < len(v); i++ {
		key := v[i]
		j := i - 1

		for j >= 0 && v[j] > key {
			v[j+1] = v[j]
			j--
		}

		v[j+1] = key
	}
}
