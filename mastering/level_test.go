package mastering

import "testing"

func TestLevelCoefficientBringsTargetUpToReference(t *testing.T) {
	tgtRMS := []float64{0.1, 0.1}
	refRMS := []float64{0.5, 0.5}

	coef, tgtMatching, refMatching, silent := levelCoefficient(tgtRMS, refRMS)

	if silent {
		t.Fatal("target should not be flagged silent")
	}

	if coef < 4.9 || coef > 5.1 {
		t.Fatalf("coef = %v, want ~5.0", coef)
	}

	if tgtMatching < 0.0999 || tgtMatching > 0.1001 {
		t.Fatalf("tgtMatching = %v, want ~0.1", tgtMatching)
	}

	if refMatching < 0.4999 || refMatching > 0.5001 {
		t.Fatalf("refMatching = %v, want ~0.5", refMatching)
	}
}

func TestLevelCoefficientClampsSilentTarget(t *testing.T) {
	tgtRMS := []float64{0, 0}
	refRMS := []float64{0.3}

	coef, _, _, silent := levelCoefficient(tgtRMS, refRMS)

	if !silent {
		t.Fatal("expected silent target to be flagged")
	}

	if coef <= 0 {
		t.Fatalf("coef = %v, want a large positive gain rather than a blow-up", coef)
	}
}

func TestLevelCoefficientIdentityWhenEqual(t *testing.T) {
	rms := []float64{0.2, 0.2, 0.2}

	coef, _, _, silent := levelCoefficient(rms, rms)
	if silent {
		t.Fatal("equal non-zero rms sets should not be flagged silent")
	}

	if coef < 0.999 || coef > 1.001 {
		t.Fatalf("coef = %v, want ~1.0 for identical matching rms", coef)
	}
}
