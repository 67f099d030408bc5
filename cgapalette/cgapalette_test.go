/*
DESCRIPTION
  cgapalette_test.go tests the 16-entry RGBI palette generation,
  its linear-light cache, and the 136-entry combined-pair expansion.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cgapalette

import (
	"math"
	"testing"

	"github.com/ausocean/cgacast/colorkernel"
)

func TestGenerateWhiteAndBlack(t *testing.T) {
	p := Generate()
	if p[0] != (colorkernel.RGB{0, 0, 0}) {
		t.Errorf("color 0 (black) = %v, want {0,0,0}", p[0])
	}
	white := colorkernel.RGB{1, 1, 1}
	if p[15] != white {
		t.Errorf("color 15 (bright white) = %v, want %v", p[15], white)
	}
}

func TestGenerateBrownGreenHalved(t *testing.T) {
	p := Generate()
	// Color 6, code 0110: R bit set, G bit set, B bit clear, I clear.
	wantG := major / 2
	if math.Abs(p[6][1]-wantG) > 1e-12 {
		t.Errorf("color 6 green channel = %v, want %v (halved brown fix)", p[6][1], wantG)
	}
	if p[6][0] != major || p[6][2] != 0 {
		t.Errorf("color 6 R/B channels = %v,%v, want %v,0", p[6][0], p[6][2], major)
	}
}

func TestLinearMatchesConversion(t *testing.T) {
	srgb := Generate()
	lin := Linear()
	for i := range srgb {
		want := colorkernel.LinearOf(srgb[i])
		if lin[i] != want {
			t.Errorf("Linear()[%d] = %v, want %v", i, lin[i], want)
		}
	}
}

func TestCombineSizeAndOrder(t *testing.T) {
	base := Generate()
	combined, pairs := Combine(base[:])
	n := len(base)
	want := n * (n + 1) / 2
	if len(combined) != want || len(pairs) != want {
		t.Fatalf("Combine returned %d/%d entries, want %d", len(combined), len(pairs), want)
	}
	if pairs[0] != (Pair{A: 0, B: 0}) {
		t.Errorf("first pair = %v, want {0,0}", pairs[0])
	}
	if pairs[want-1] != (Pair{A: n - 1, B: n - 1}) {
		t.Errorf("last pair = %v, want {%d,%d}", pairs[want-1], n-1, n-1)
	}
}

func TestCombineSolidEntryEqualsBase(t *testing.T) {
	base := Generate()
	combined, pairs := Combine(base[:])
	for k, p := range pairs {
		if p.A == p.B {
			if combined[k] != base[p.A] {
				t.Errorf("solid entry %d (pair %v) = %v, want %v", k, p, combined[k], base[p.A])
			}
		}
	}
}
