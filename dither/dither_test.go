/*
DESCRIPTION
  dither_test.go tests the allowed-pair compatibility rules (S7), nearest
  solid/dithered color lookup, and the precomputed r5g6b5 LUT's
  agreement with a direct per-color lookup (S5).

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dither

import (
	"math"
	"testing"

	"github.com/ausocean/cgacast/cgapalette"
	"github.com/ausocean/cgacast/colorkernel"
)

func TestAllowedDitherSpotChecks(t *testing.T) {
	cases := []struct {
		left, right int
		want        bool
	}{
		{0, 15, false},
		{4, 14, false},
		{0, 1, true},
		{1, 9, true},
		{8, 0, true},
		{8, 3, true},
	}
	for _, c := range cases {
		if got := AllowedDither(c.left, c.right); got != c.want {
			t.Errorf("AllowedDither(%d,%d) = %v, want %v", c.left, c.right, got, c.want)
		}
	}
}

func TestAllowedDitherReflexive(t *testing.T) {
	for i := 0; i < 16; i++ {
		if !AllowedDither(i, i) {
			t.Errorf("AllowedDither(%d,%d) = false, want true (identical colors always allowed)", i, i)
		}
	}
}

func TestEvalNearestColorExactMatch(t *testing.T) {
	palette := cgapalette.Linear()
	for i, c := range palette {
		idx, dist := EvalNearestColor(palette[:], c)
		if idx != i {
			t.Errorf("EvalNearestColor(palette[%d]) = %d, want %d", i, idx, i)
		}
		if dist > 1e-12 {
			t.Errorf("EvalNearestColor(palette[%d]) dist = %v, want ~0", i, dist)
		}
	}
}

func TestEvalDitherMixEndpoints(t *testing.T) {
	left := colorkernel.RGB{0, 0, 0}
	right := colorkernel.RGB{1, 1, 1}
	if m := EvalDitherMix(left, left, right); m != 0 {
		t.Errorf("EvalDitherMix at left = %v, want 0", m)
	}
	if m := EvalDitherMix(right, left, right); m != 1 {
		t.Errorf("EvalDitherMix at right = %v, want 1", m)
	}
	mid := colorkernel.Lerp(left, right, 0.5)
	if m := EvalDitherMix(mid, left, right); math.Abs(m-0.5) > 1e-9 {
		t.Errorf("EvalDitherMix at midpoint = %v, want 0.5", m)
	}
}

func TestEvalNearestDitheredColorSolidSnapsToExact(t *testing.T) {
	palette := cgapalette.Linear()
	c, dist := EvalNearestDitheredColor(palette[:], AllowedDither, palette[7])
	if c.Left != c.Right || int(c.Left) != 7 {
		t.Errorf("EvalNearestDitheredColor(exact palette[7]) = %+v, want solid 7", c)
	}
	if dist > 1e-12 {
		t.Errorf("dist = %v, want ~0", dist)
	}
}

func TestLUTAgreesWithDirectLookup(t *testing.T) {
	palette := cgapalette.Linear()
	direct := func(c colorkernel.RGB) DitheredColor {
		dc, _ := EvalNearestDitheredColor(palette[:], AllowedDither, c)
		return dc
	}
	lut := NewLUT(palette[:], direct)

	// S5: every CGA color, looked up through the LUT, must resolve to
	// itself: the r5g6b5 key may select a pair, but the color's own index
	// is then the side the mix sits on (mix ~0 for left, ~1 for right).
	for i, c := range palette {
		got := lut.Get(c)
		onLeft := int(got.Left) == i && got.Mix < 1e-6
		onRight := int(got.Right) == i && got.Mix > 1-1e-6
		if !onLeft && !onRight {
			t.Errorf("LUT.Get(palette[%d]) = %+v, want index %d with mix at its end", i, got, i)
		}
	}
}

func TestLUTGetRederivesMix(t *testing.T) {
	palette := cgapalette.Linear()
	direct := func(c colorkernel.RGB) DitheredColor {
		dc, _ := EvalNearestDitheredColor(palette[:], AllowedDither, c)
		return dc
	}
	lut := NewLUT(palette[:], direct)

	c := colorkernel.LinearOf(colorkernel.RGB{0.4, 0.4, 0.45})
	got := lut.Get(c)
	want := EvalDitherMix(c, palette[got.Left], palette[got.Right])
	if math.Abs(got.Mix-want) > 1e-9 {
		t.Errorf("LUT.Get Mix = %v, want %v (re-derived from unquantized color)", got.Mix, want)
	}
}
