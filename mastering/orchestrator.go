package mastering

import (
	"context"
	"fmt"
	"math"

	"github.com/reftone/refmaster/dsp/effects/dynamics"
	timestats "github.com/reftone/refmaster/stats/time"
)

// limitedMaximumPoint is the near-unity ceiling used to pre-normalize
// the reference and to scale "normalize" outputs.
const limitedMaximumPoint = 0.9981

// stageBundle threads every intermediate buffer between stage methods.
// The orchestrator owns every field; nothing survives past Process.
type stageBundle struct {
	targetM, targetS []float64
	refM, refS       []float64

	finalAmpCoef float64
	refMatchingM float64
	refMatchingS float64
	refPeak      float64
}

// session is the per-call orchestrator state: a Process invocation
// constructs one, runs it through stage0..stage4, and discards it.
// No state is shared across calls except the reference cache, which
// is safe for concurrent use.
type session struct {
	cfg    Config
	sink   EventSink
	loader Loader
	cache  *referenceCache
}

// Process runs the full reference-matching mastering pipeline: it
// loads the target and reference via loader, matches levels and
// frequency response, applies the Hyrax limiter, and writes every
// requested ResultSpec via saver. ctx is consulted at stage
// boundaries for cancellation; a nil sink discards all events.
func Process(ctx context.Context, targetSource, referenceSource string, loader Loader, saver Saver, results []ResultSpec, config Config, sink EventSink) error {
	if sink == nil {
		sink = DiscardSink{}
	}

	if err := config.Validate(); err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	s := &session{
		cfg:    config,
		sink:   sink,
		loader: loader,
		cache:  newReferenceCache(config.CacheDir),
	}

	bundle, err := s.stage0(ctx, targetSource, referenceSource)
	if err != nil {
		return err
	}

	if err := s.stage0b(bundle); err != nil {
		return err
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}

	if err := s.stage1(bundle); err != nil {
		return err
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}

	if err := s.stage2(bundle); err != nil {
		return err
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}

	if err := s.stage3(bundle); err != nil {
		return err
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}

	return s.stage4(bundle, saver, results)
}

func checkCancelled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return newCodedError(CodeCancelled, ErrCancelled)
	default:
		return nil
	}
}

func (s *session) pieceSize() int {
	return int(s.cfg.PieceSizeSeconds * s.cfg.InternalSampleRate)
}

// loadedSignal is a fully-prepared (resampled, promoted, validated)
// stereo buffer ready for M/S decomposition.
type loadedSignal struct {
	l, r []float64
}

// stage0 loads and prepares both sources: Loader decode, mono
// promotion, channel-count validation, resampling to the internal
// rate, and length-bound validation.
func (s *session) stage0(ctx context.Context, targetSource, referenceSource string) (*stageBundle, error) {
	emit(s.sink, CodeLoadingAnalysis, LevelInfo, "loading & analysis")

	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	target, err := s.loadAndPrepare(targetSource, false)
	if err != nil {
		return nil, err
	}

	reference, err := s.loadAndPrepare(referenceSource, true)
	if err != nil {
		return nil, err
	}

	if !s.cfg.AllowEquality && sameSamples(target.l, target.r, reference.l, reference.r) {
		return nil, newCodedError(CodeTargetEqualsReference, ErrIdenticalInput)
	}

	tgtM, tgtS := lrToMS(target.l, target.r)
	refM, refS := lrToMS(reference.l, reference.r)

	tgtStats := timestats.Calculate(tgtM)
	emit(s.sink, CodeLoadingAnalysis, LevelInfo, "target mid: peak %.2f dBFS, crest factor %.2f dB", tgtStats.Peak_dB, tgtStats.CrestFactor_dB)

	refStats := timestats.Calculate(refM)
	emit(s.sink, CodeLoadingAnalysis, LevelInfo, "reference mid: peak %.2f dBFS, crest factor %.2f dB", refStats.Peak_dB, refStats.CrestFactor_dB)

	return &stageBundle{
		targetM: tgtM,
		targetS: tgtS,
		refM:    refM,
		refS:    refS,
	}, nil
}

func (s *session) loadAndPrepare(source string, isReference bool) (loadedSignal, error) {
	raw, err := s.loader.Load(source)
	if err != nil {
		code := CodeTargetStreamError
		if isReference {
			code = CodeReferenceStreamError
		}

		return loadedSignal{}, newCodedError(code, fmt.Errorf("%w: %v", ErrStreamUnreadable, err))
	}

	if len(raw.Channels) == 0 {
		code := CodeTargetStreamError
		if isReference {
			code = CodeReferenceStreamError
		}

		return loadedSignal{}, newCodedError(code, ErrStreamUnreadable)
	}

	if len(raw.Channels) > 2 {
		code := CodeTargetTooManyChannels
		if isReference {
			code = CodeReferenceTooManyChannels
		}

		return loadedSignal{}, newCodedError(code, ErrTooManyChannels)
	}

	l := raw.Channels[0]

	var r []float64

	if len(raw.Channels) == 1 {
		r = append([]float64(nil), l...)

		if !isReference {
			emit(s.sink, CodeTargetMonoPromoted, LevelInfo, "target was mono, promoted to stereo")
		}
	} else {
		r = raw.Channels[1]
	}

	if raw.SampleRate != s.cfg.InternalSampleRate {
		l, err = resampleToInternalRate(l, raw.SampleRate, s.cfg.InternalSampleRate)
		if err != nil {
			return loadedSignal{}, err
		}

		r, err = resampleToInternalRate(r, raw.SampleRate, s.cfg.InternalSampleRate)
		if err != nil {
			return loadedSignal{}, err
		}

		if isReference {
			emit(s.sink, CodeReferenceResampled, LevelInfo, "reference resampled from %g Hz", raw.SampleRate)
		} else {
			emit(s.sink, CodeTargetResampled, LevelWarning, "target resampled from %g Hz", raw.SampleRate)
		}
	}

	minLen := s.cfg.FFTSize

	if len(l) < minLen {
		code := CodeTargetTooShort
		if isReference {
			code = CodeReferenceTooShort
		}

		return loadedSignal{}, newCodedError(code, ErrTooShort)
	}

	if s.cfg.MaxLengthMinutes > 0 {
		maxLen := int(s.cfg.MaxLengthMinutes * 60 * s.cfg.InternalSampleRate)

		if len(l) > maxLen {
			code := CodeTargetTooLong
			if isReference {
				code = CodeReferenceTooLong
			}

			return loadedSignal{}, newCodedError(code, ErrTooLong)
		}
	}

	if !isReference {
		mid, _ := lrToMS(l, r)

		if clipping, limited := detectLimited(mid, s.cfg.ClippingSamplesThreshold, s.cfg.LimitedSamplesThreshold); clipping || limited {
			if clipping {
				emit(s.sink, CodeTargetClippingDetected, LevelWarning, "target clipping detected")
			}

			if limited {
				emit(s.sink, CodeTargetLimiterDetected, LevelWarning, "target limiting detected")
			}
		}
	}

	return loadedSignal{l: l, r: r}, nil
}

func sameSamples(tl, tr, rl, rr []float64) bool {
	if len(tl) != len(rl) || len(tr) != len(rr) {
		return false
	}

	for i := range tl {
		if tl[i] != rl[i] {
			return false
		}
	}

	for i := range tr {
		if tr[i] != rr[i] {
			return false
		}
	}

	return true
}

// stage0b pre-normalizes the reference to limitedMaximumPoint when its
// peak falls short of it, remembering the coefficient for stage4's
// final_amp_coef application.
func (s *session) stage0b(b *stageBundle) error {
	refL, refR := msToLR(b.refM, b.refS)
	peak := math.Max(peakAbs(refL), peakAbs(refR))

	if peak < epsilon {
		return newCodedError(CodeInternalValidationFail, ErrSilentReference)
	}

	b.refPeak = peak
	b.finalAmpCoef = 1.0

	if peak < limitedMaximumPoint {
		coef := limitedMaximumPoint / peak
		amplify(b.refM, coef)
		amplify(b.refS, coef)
		b.finalAmpCoef = coef
	}

	return nil
}

// stage1 derives the level-matching coefficient from the Mid channels
// and applies it uniformly to target Mid and Side.
func (s *session) stage1(b *stageBundle) error {
	emit(s.sink, CodeMatchingLevels, LevelInfo, "matching levels")

	pieceSize := s.pieceSize()

	tgtPieces := segment(len(b.targetM), pieceSize)
	refPieces := segment(len(b.refM), pieceSize)

	if len(tgtPieces) == 0 || len(refPieces) == 0 {
		return newCodedError(CodeInternalValidationFail, ErrNoLoudPieces)
	}

	_, tgtRMS := loudPieces(b.targetM, tgtPieces)
	_, refRMS := loudPieces(b.refM, refPieces)

	coef, _, refMatchingRMS, silentTarget := levelCoefficient(tgtRMS, refRMS)
	if silentTarget {
		emit(s.sink, CodeMatchingLevels, LevelWarning, "target matching rms below floor, clamped")
	}

	amplify(b.targetM, coef)
	amplify(b.targetS, coef)

	b.refMatchingM = refMatchingRMS

	_, refSideRMS := loudPieces(b.refS, refPieces)
	b.refMatchingS = matchingRMS(refSideRMS)

	return nil
}

// stage2 runs the Spectral Analyzer and FIR Synthesizer on Mid and
// Side independently, then convolves each target channel with its
// synthesized filter.
func (s *session) stage2(b *stageBundle) error {
	emit(s.sink, CodeMatchingFrequencies, LevelInfo, "matching frequencies")

	pieceSize := s.pieceSize()
	workers := defaultWorkerCount()

	refSpecM, refSpecS, err := s.referenceSpectra(b, pieceSize, workers)
	if err != nil {
		return err
	}

	tgtMPieces := segment(len(b.targetM), pieceSize)
	tgtLoudM, _ := loudPieces(b.targetM, tgtMPieces)

	tgtSPieces := segment(len(b.targetS), pieceSize)
	tgtLoudS, _ := loudPieces(b.targetS, tgtSPieces)

	tgtSpecM, err := spectralAnalysis(b.targetM, tgtLoudM, s.cfg.FFTSize, workers)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	tgtSpecS, err := spectralAnalysis(b.targetS, tgtLoudS, s.cfg.FFTSize, workers)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	if detectLossySource(tgtSpecM, s.cfg.InternalSampleRate, s.cfg.FFTSize) {
		emit(s.sink, CodeLossySource, LevelWarning, "target spectrum suggests a lossy source")
	}

	firM, err := synthesizeFIR(refSpecM, tgtSpecM, s.cfg.InternalSampleRate, s.cfg.FFTSize, s.cfg.LinLogOversampling, s.cfg.LoessSpan, s.cfg.PreserveEdgeBins)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	firS, err := synthesizeFIR(refSpecS, tgtSpecS, s.cfg.InternalSampleRate, s.cfg.FFTSize, s.cfg.LinLogOversampling, s.cfg.LoessSpan, s.cfg.PreserveEdgeBins)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	filteredM, err := convolveTrimmed(b.targetM, firM)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	filteredS, err := convolveTrimmed(b.targetS, firS)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	b.targetM = filteredM
	b.targetS = filteredS

	return nil
}

// referenceSpectra returns the reference's average Mid/Side magnitude
// spectra, from the cache when a fingerprint-matching entry exists and
// freshly computed (then persisted) otherwise.
func (s *session) referenceSpectra(b *stageBundle, pieceSize, workers int) (specM, specS []float64, err error) {
	key := fingerprint(referenceBytes(b.refM, b.refS), s.cfg.InternalSampleRate, s.cfg.FFTSize, pieceSize, s.cfg.LoessSpan)

	if cached, ok := s.cache.load(key); ok {
		if cached.FFTSize == s.cfg.FFTSize && cached.PieceSize == pieceSize && cached.InternalRate == s.cfg.InternalSampleRate {
			return cached.RefAvgSpectrumM, cached.RefAvgSpectrumS, nil
		}
	}

	refMPieces := segment(len(b.refM), pieceSize)
	refLoudM, _ := loudPieces(b.refM, refMPieces)

	refSPieces := segment(len(b.refS), pieceSize)
	refLoudS, _ := loudPieces(b.refS, refSPieces)

	specM, err = spectralAnalysis(b.refM, refLoudM, s.cfg.FFTSize, workers)
	if err != nil {
		return nil, nil, newCodedError(CodeInternalValidationFail, err)
	}

	specS, err = spectralAnalysis(b.refS, refLoudS, s.cfg.FFTSize, workers)
	if err != nil {
		return nil, nil, newCodedError(CodeInternalValidationFail, err)
	}

	_ = s.cache.store(key, bundle{
		RefMatchingRMSM: b.refMatchingM,
		RefMatchingRMSS: b.refMatchingS,
		RefAvgSpectrumM: specM,
		RefAvgSpectrumS: specS,
		RefPeak:         b.refPeak,
		RefSampleCount:  len(b.refM),
		InternalRate:    s.cfg.InternalSampleRate,
		FFTSize:         s.cfg.FFTSize,
		PieceSize:       pieceSize,
	})

	return specM, specS, nil
}

// stage3 runs the correction loop, recombining Mid/Side to a Stereo
// signal for the loop's final real-limiter pass.
func (s *session) stage3(b *stageBundle) error {
	emit(s.sink, CodeCorrectingLevels, LevelInfo, "correcting levels")

	limiter, err := s.newConfiguredLimiter()
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	l, r := msToLR(b.targetM, b.targetS)

	corrected, err := correctionLoop(Stereo{L: l, R: r}, s.pieceSize(), b.refMatchingM, s.cfg.RMSCorrectionSteps, limiter)
	if err != nil {
		return newCodedError(CodeInternalValidationFail, err)
	}

	b.targetM, b.targetS = lrToMS(corrected.L, corrected.R)

	return nil
}

func (s *session) newConfiguredLimiter() (*dynamics.Hyrax, error) {
	limiter, err := dynamics.NewHyrax(s.cfg.InternalSampleRate)
	if err != nil {
		return nil, err
	}

	if err := limiter.SetThreshold(s.cfg.Limiter.Threshold); err != nil {
		return nil, err
	}

	if err := limiter.SetAttackMs(s.cfg.Limiter.AttackMs); err != nil {
		return nil, err
	}

	if err := limiter.SetReleaseMs(s.cfg.Limiter.ReleaseMs); err != nil {
		return nil, err
	}

	if err := limiter.SetHoldMs(s.cfg.Limiter.HoldMs); err != nil {
		return nil, err
	}

	if err := limiter.SetLookaheadMs(s.cfg.Limiter.LookaheadMs); err != nil {
		return nil, err
	}

	if err := limiter.SetSmoothingStagesMs(s.cfg.Limiter.SmoothingStages[0], s.cfg.Limiter.SmoothingStages[1]); err != nil {
		return nil, err
	}

	return limiter, nil
}

// stage4 applies the limiter (per ResultSpec), the final_amp_coef, and
// optional normalize/preview, then hands each variant to the Saver.
func (s *session) stage4(b *stageBundle, saver Saver, results []ResultSpec) error {
	emit(s.sink, CodeFinalizeSaving, LevelInfo, "finalize")

	baseL, baseR := msToLR(b.targetM, b.targetS)

	for _, spec := range results {
		l := append([]float64(nil), baseL...)
		r := append([]float64(nil), baseR...)

		if spec.UseLimiter {
			limiter, err := s.newConfiguredLimiter()
			if err != nil {
				return newCodedError(CodeInternalValidationFail, err)
			}

			mid, side := lrToMS(l, r)
			limiter.ProcessInPlace(mid)
			limiter.Reset()
			limiter.ProcessInPlace(side)
			l, r = msToLR(mid, side)
		}

		amplify(l, b.finalAmpCoef)
		amplify(r, b.finalAmpCoef)

		if spec.Normalize {
			peak := math.Max(peakAbs(l), peakAbs(r))

			if peak > epsilon {
				coef := limitedMaximumPoint / peak
				amplify(l, coef)
				amplify(r, coef)
			}
		}

		out := Stereo{L: l, R: r}

		if spec.Preview {
			var err error

			out, err = previewExcerpt(out, s.pieceSize(), s.cfg.PreviewSize)
			if err != nil {
				return newCodedError(CodeInternalValidationFail, err)
			}
		}

		if err := saver.Save(spec.Path, out, s.cfg.InternalSampleRate, spec.BitDepth); err != nil {
			return newCodedError(CodeUnknownError, fmt.Errorf("mastering: save %s: %w", spec.Path, err))
		}
	}

	emit(s.sink, CodeTaskComplete, LevelInfo, "task complete")

	return nil
}
