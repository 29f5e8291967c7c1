package mastering

import (
	"math"
	"testing"

	"github.com/reftone/refmaster/dsp/effects/dynamics"
	"github.com/reftone/refmaster/internal/testutil"
)

func TestClipHardClampsToLimit(t *testing.T) {
	if got := clipHard(2.0, 1.0); got != 1.0 {
		t.Fatalf("clipHard(2.0, 1.0) = %v, want 1.0", got)
	}

	if got := clipHard(-2.0, 1.0); got != -1.0 {
		t.Fatalf("clipHard(-2.0, 1.0) = %v, want -1.0", got)
	}

	if got := clipHard(0.3, 1.0); got != 0.3 {
		t.Fatalf("clipHard(0.3, 1.0) = %v, want 0.3 (inside limit, unchanged)", got)
	}
}

func TestCorrectionCoefficientMatchesReferenceRMS(t *testing.T) {
	mid := testutil.DC(0.1, 4000)

	coef, err := correctionCoefficient(mid, 1000, 0.5)
	if err != nil {
		t.Fatalf("correctionCoefficient: %v", err)
	}

	if coef < 4.9 || coef > 5.1 {
		t.Fatalf("coef = %v, want ~5.0 to bring 0.1 rms up to 0.5", coef)
	}
}

func TestCorrectionLoopBringsSignalTowardReferenceRMS(t *testing.T) {
	l := testutil.DeterministicSine(440, 44100, 0.1, 8000)
	r := testutil.DeterministicSine(441, 44100, 0.1, 8000)

	limiter, err := dynamics.NewHyrax(44100)
	if err != nil {
		t.Fatalf("NewHyrax: %v", err)
	}

	out, err := correctionLoop(Stereo{L: l, R: r}, 1000, 0.5, 4, limiter)
	if err != nil {
		t.Fatalf("correctionLoop: %v", err)
	}

	mid, _ := lrToMS(out.L, out.R)
	got := rms(mid)

	if math.Abs(got-0.5) > 0.15 {
		t.Fatalf("final mid rms = %v, want close to the reference matching rms 0.5", got)
	}

	testutil.RequireFinite(t, out.L)
	testutil.RequireFinite(t, out.R)
}

func TestCorrectionLoopSingleStepStillAppliesTerminalLimiterPass(t *testing.T) {
	l := testutil.DeterministicSine(440, 44100, 0.1, 4000)
	r := testutil.DeterministicSine(441, 44100, 0.1, 4000)

	limiter, err := dynamics.NewHyrax(44100)
	if err != nil {
		t.Fatalf("NewHyrax: %v", err)
	}

	out, err := correctionLoop(Stereo{L: l, R: r}, 1000, 0.5, 1, limiter)
	if err != nil {
		t.Fatalf("correctionLoop: %v", err)
	}

	testutil.RequireFinite(t, out.L)
	testutil.RequireFinite(t, out.R)
}
