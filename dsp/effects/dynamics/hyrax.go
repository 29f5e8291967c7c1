package dynamics

import (
	"fmt"
	"math"

	"github.com/reftone/refmaster/dsp/delay"
)

const (
	defaultHyraxThreshold   = 0.998138
	defaultHyraxAttackMs    = 1.0
	defaultHyraxHoldMs      = 1.0
	defaultHyraxReleaseMs   = 3000.0
	defaultHyraxLookaheadMs = 1.0
	defaultHyraxStage1Ms    = 2.0
	defaultHyraxStage2Ms    = 12.0

	minHyraxThreshold = 0.1
	maxHyraxThreshold = 1.0
)

// hyraxState names the attack/hold/release follower state.
type hyraxState int

const (
	stateTracking hyraxState = iota
	stateAttacking
	stateHolding
)

// Hyrax is a look-ahead brickwall limiter. It tracks the minimum gain
// reduction needed over a look-ahead window, follows it down fast and
// releases it slowly through an attack/hold/release envelope, then
// smooths the envelope through two cascaded one-pole stages before
// applying it to the delayed program signal.
type Hyrax struct {
	sampleRate  float64
	threshold   float64
	attackMs    float64
	holdMs      float64
	releaseMs   float64
	lookaheadMs float64
	stage1Ms    float64
	stage2Ms    float64

	attackCoeff  float64
	releaseCoeff float64
	holdSamples  int

	la *delay.Line

	// look-ahead peak window: ring buffer of |x| over the look-ahead span
	peakWindow []float64
	peakPos    int

	state     hyraxState
	envelope  float64 // r_ahr, current smoothed-follower gain, 1 == no reduction
	holdCount int
	stage1    onePoleLowPass
	stage2    onePoleLowPass
}

// NewHyrax creates a Hyrax limiter with production defaults: threshold
// near unity (≈ -0.0162 dBFS), 1ms look-ahead/attack, 1ms hold, 3s
// release, and two smoothing stages at 2ms/12ms.
func NewHyrax(sampleRate float64) (*Hyrax, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return nil, fmt.Errorf("hyrax: %w", err)
	}

	h := &Hyrax{
		sampleRate:  sampleRate,
		threshold:   defaultHyraxThreshold,
		attackMs:    defaultHyraxAttackMs,
		holdMs:      defaultHyraxHoldMs,
		releaseMs:   defaultHyraxReleaseMs,
		lookaheadMs: defaultHyraxLookaheadMs,
		stage1Ms:    defaultHyraxStage1Ms,
		stage2Ms:    defaultHyraxStage2Ms,
		envelope:    1.0,
	}

	if err := h.rebuild(); err != nil {
		return nil, err
	}

	h.Reset()

	return h, nil
}

// SetThreshold sets the brickwall ceiling T in linear amplitude, [0.1, 1].
func (h *Hyrax) SetThreshold(t float64) error {
	if t < minHyraxThreshold || t > maxHyraxThreshold || !isFinite(t) {
		return fmt.Errorf("hyrax: threshold must be in [%f, %f]: %f", minHyraxThreshold, maxHyraxThreshold, t)
	}

	h.threshold = t

	return nil
}

// SetAttackMs sets the attack time constant tau_a in milliseconds.
func (h *Hyrax) SetAttackMs(ms float64) error {
	if ms <= 0 || !isFinite(ms) {
		return fmt.Errorf("hyrax: attack must be > 0: %f", ms)
	}

	h.attackMs = ms

	return h.rebuild()
}

// SetReleaseMs sets the release time constant tau_r in milliseconds.
func (h *Hyrax) SetReleaseMs(ms float64) error {
	if ms <= 0 || !isFinite(ms) {
		return fmt.Errorf("hyrax: release must be > 0: %f", ms)
	}

	h.releaseMs = ms

	return h.rebuild()
}

// SetHoldMs sets the hold time H in milliseconds.
func (h *Hyrax) SetHoldMs(ms float64) error {
	if ms < 0 || !isFinite(ms) {
		return fmt.Errorf("hyrax: hold must be >= 0: %f", ms)
	}

	h.holdMs = ms

	return h.rebuild()
}

// SetLookaheadMs sets the look-ahead window L_la in milliseconds and
// rebuilds the internal delay line and peak window, which start empty.
// The gain envelope and follower state are kept.
func (h *Hyrax) SetLookaheadMs(ms float64) error {
	if ms <= 0 || !isFinite(ms) {
		return fmt.Errorf("hyrax: lookahead must be > 0: %f", ms)
	}

	h.lookaheadMs = ms

	return h.rebuild()
}

// SetSmoothingStagesMs sets the two cascaded one-pole smoother time
// constants tau_s1, tau_s2 in milliseconds.
func (h *Hyrax) SetSmoothingStagesMs(s1, s2 float64) error {
	if s1 <= 0 || s2 <= 0 || !isFinite(s1) || !isFinite(s2) {
		return fmt.Errorf("hyrax: smoothing stages must be > 0: %f, %f", s1, s2)
	}

	h.stage1Ms = s1
	h.stage2Ms = s2

	return h.rebuild()
}

// SetSampleRate updates the sample rate and rebuilds time-dependent state.
func (h *Hyrax) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate(sampleRate); err != nil {
		return fmt.Errorf("hyrax: %w", err)
	}

	h.sampleRate = sampleRate

	return h.rebuild()
}

// Threshold returns the configured ceiling.
func (h *Hyrax) Threshold() float64 { return h.threshold }

// LookaheadSamples returns the integer look-ahead delay in samples.
func (h *Hyrax) LookaheadSamples() int {
	if h.la == nil {
		return 0
	}

	return h.la.Len() - 1
}

// Reset clears envelope, delay, and smoothing state.
func (h *Hyrax) Reset() {
	h.state = stateTracking
	h.envelope = 1.0
	h.holdCount = 0

	if h.la != nil {
		h.la.Reset()
	}

	for i := range h.peakWindow {
		h.peakWindow[i] = 0
	}

	h.peakPos = 0
	h.stage1.Reset()
	h.stage1.state = 1.0
	h.stage2.Reset()
	h.stage2.state = 1.0
}

// ProcessSample processes one sample through the look-ahead limiter and
// returns the delayed, gain-reduced, safety-clipped output.
func (h *Hyrax) ProcessSample(x float64) float64 {
	h.peakWindow[h.peakPos] = math.Abs(x)
	h.peakPos++

	if h.peakPos >= len(h.peakWindow) {
		h.peakPos = 0
	}

	windowPeak := 0.0
	for _, v := range h.peakWindow {
		if v > windowPeak {
			windowPeak = v
		}
	}

	rReq := 1.0
	if windowPeak > h.threshold {
		rReq = h.threshold / windowPeak
	}

	h.followGain(rReq)

	smoothed := h.stage2.Process(h.stage1.Process(h.envelope))

	h.la.Write(x)
	delayed := h.la.Read(0)

	out := delayed * smoothed
	if out > h.threshold {
		out = h.threshold
	} else if out < -h.threshold {
		out = -h.threshold
	}

	return out
}

// ProcessInPlace runs ProcessSample over buf.
func (h *Hyrax) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = h.ProcessSample(buf[i])
	}
}

// followGain advances the attack/hold/release state machine that tracks
// the reduction-ratio envelope by one sample, updating h.envelope (r_ahr).
func (h *Hyrax) followGain(rReq float64) {
	switch h.state {
	case stateTracking:
		if rReq < h.envelope {
			h.state = stateAttacking
			h.followGain(rReq)

			return
		}

		h.envelope += (1.0 - h.envelope) * h.releaseCoeff

	case stateAttacking:
		h.envelope -= (h.envelope - rReq) * h.attackCoeff
		if h.envelope <= rReq {
			h.envelope = rReq
			h.state = stateHolding
			h.holdCount = h.holdSamples
		}

	case stateHolding:
		if rReq < h.envelope {
			h.envelope = rReq
		}

		h.holdCount--
		if h.holdCount <= 0 {
			h.state = stateTracking
		}
	}
}

func (h *Hyrax) rebuild() error {
	if err := validateSampleRate(h.sampleRate); err != nil {
		return err
	}

	h.attackCoeff = 1.0 - math.Exp(-1.0/(h.attackMs*0.001*h.sampleRate))
	h.releaseCoeff = 1.0 - math.Exp(-1.0/(h.releaseMs*0.001*h.sampleRate))
	h.holdSamples = int(math.Round(h.holdMs * 0.001 * h.sampleRate))

	laSamples := max(int(math.Round(h.lookaheadMs*0.001*h.sampleRate)), 1)

	line, err := delay.New(laSamples + 1)
	if err != nil {
		return fmt.Errorf("hyrax: %w", err)
	}

	h.la = line
	h.peakWindow = make([]float64, laSamples)
	h.peakPos = 0

	h.stage1.Configure(1.0/(2*math.Pi*h.stage1Ms*0.001), h.sampleRate)
	h.stage2.Configure(1.0/(2*math.Pi*h.stage2Ms*0.001), h.sampleRate)
	h.stage1.enabled = true
	h.stage2.enabled = true

	return nil
}
