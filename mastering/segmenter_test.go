package mastering

import (
	"testing"

	"github.com/reftone/refmaster/internal/testutil"
)

func TestSegmentExactMultiple(t *testing.T) {
	pieces := segment(300, 100)
	if len(pieces) != 3 {
		t.Fatalf("len(pieces) = %d, want 3", len(pieces))
	}

	if pieces[0] != (piece{start: 0, end: 100}) || pieces[2] != (piece{start: 200, end: 300}) {
		t.Fatalf("unexpected piece boundaries: %+v", pieces)
	}
}

func TestSegmentDropsTrailingRemainder(t *testing.T) {
	pieces := segment(250, 100)
	if len(pieces) != 2 {
		t.Fatalf("len(pieces) = %d, want 2 (trailing 50 samples dropped)", len(pieces))
	}
}

func TestSegmentShorterThanPieceSizeYieldsNone(t *testing.T) {
	pieces := segment(50, 100)
	if len(pieces) != 0 {
		t.Fatalf("len(pieces) = %d, want 0", len(pieces))
	}
}

func TestLoudPiecesAdmitsAtLeastOne(t *testing.T) {
	silence := make([]float64, 4*1000)
	loud := testutil.DC(0.9, 1000)
	copy(silence[3000:], loud)

	pieces := segment(len(silence), 1000)
	admitted, admittedRMS := loudPieces(silence, pieces)

	if len(admitted) == 0 {
		t.Fatal("expected at least one admitted piece")
	}

	if len(admitted) != len(admittedRMS) {
		t.Fatalf("admitted/admittedRMS length mismatch: %d vs %d", len(admitted), len(admittedRMS))
	}

	found := false

	for _, p := range admitted {
		if p.start == 3000 {
			found = true
		}
	}

	if !found {
		t.Fatal("expected the loud piece at offset 3000 to be admitted")
	}
}

func TestLoudPiecesIdenticalRepeatedPiecesAdmitsAll(t *testing.T) {
	base := testutil.DeterministicSine(440, 44100, 0.5, 1000)

	x := make([]float64, 0, 4000)
	for i := 0; i < 4; i++ {
		x = append(x, base...)
	}

	pieces := segment(len(x), 1000)

	admitted, _ := loudPieces(x, pieces)
	if len(admitted) != len(pieces) {
		t.Fatalf("admitted %d of %d identical-RMS pieces, want all (ties are admitted)", len(admitted), len(pieces))
	}
}

func TestMatchingRMSIsRMSOfPieceRMSes(t *testing.T) {
	got := matchingRMS([]float64{0.1, 0.1, 0.1})
	if got < 0.0999 || got > 0.1001 {
		t.Fatalf("matchingRMS of constant 0.1 values = %v, want ~0.1", got)
	}
}
