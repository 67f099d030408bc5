/*
DESCRIPTION
  fit_test.go tests BestFit/GetScalingFactors' aspect-preserving scale
  math, the centering formula, and the analog-emulation safety
  no-op guard.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fit

import (
	"testing"

	"github.com/ausocean/cgacast/cgapalette"
	"github.com/ausocean/cgacast/frame"
	"github.com/ausocean/cgacast/output"
)

func TestBestFitSquareContainer(t *testing.T) {
	w, h := BestFit(1, 8, 8, 1)
	if w != 8 || h != 8 {
		t.Errorf("BestFit(1,8,8,1) = %d,%d, want 8,8", w, h)
	}
}

func TestGetScalingFactorsIntegerScale(t *testing.T) {
	xs, ys := GetScalingFactors(4, 4, 1, 8, 8, 1)
	if xs != 2 || ys != 2 {
		t.Errorf("GetScalingFactors(4x4 -> 8x8) = %d,%d, want 2,2", xs, ys)
	}
}

func TestGetScalingFactorsLineSkip(t *testing.T) {
	// A source taller than the best-fit container (e.g. 640x400 CGA
	// content squeezed into a 640x200 destination) must report a
	// negative line-skip factor rather than a sub-unity replication.
	xs, ys := GetScalingFactors(4, 8, 1, 4, 4, 1)
	if xs != 1 {
		t.Errorf("xs = %d, want 1", xs)
	}
	if ys >= 0 {
		t.Errorf("ys = %d, want negative (line-skip)", ys)
	}
}

func TestBltCenteringAndCorners(t *testing.T) {
	palette := cgapalette.Generate()
	b := NewBlitter(palette)

	src := frame.NewOwned(4, 4, frame.BPP4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			output.Normal{}.PP(src, x, y, 0)
		}
	}
	output.Normal{}.PP(src, 3, 3, 15)

	dst := frame.NewOwned(8, 8, frame.BPP32)
	b.Blt(dst, 8, 8, src, 1, 1, 0, 0, 0, 1, true)

	if got := dst.GetPacked(0, 0); got != 0xFF000000 {
		t.Errorf("dst(0,0) = %#x, want black 0xff000000", got)
	}
	if got := dst.GetPacked(7, 7); got != 0xFFFFFFFF {
		t.Errorf("dst(7,7) = %#x, want white 0xffffffff", got)
	}
}

func TestBltSafetyNoOpBelowEmulationThreshold(t *testing.T) {
	palette := cgapalette.Generate()
	b := NewBlitter(palette)

	src := frame.NewOwned(4, 4, frame.BPP4)
	dst := frame.NewOwned(8, 8, frame.BPP32)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			dst.SetPacked(x, y, 0x11223344)
		}
	}

	// xs will be 2 here (below the 3x analog-emulation threshold) and
	// emulateCGA is false, so Blt must leave dst untouched.
	b.Blt(dst, 8, 8, src, 1, 1, 0, 0, 0, 1, false)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := dst.GetPacked(x, y); got != 0x11223344 {
				t.Fatalf("dst(%d,%d) = %#x, want untouched 0x11223344", x, y, got)
			}
		}
	}
}
